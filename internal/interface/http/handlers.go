package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/promptcraft/progress-engine/internal/application/command"
	"github.com/promptcraft/progress-engine/internal/application/query"
	"github.com/promptcraft/progress-engine/internal/domain/ledger"
	"github.com/promptcraft/progress-engine/internal/domain/shared"
	"github.com/promptcraft/progress-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// HealthChecker reports backing store health.
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

// Dependencies holds everything the routes dispatch to. Query handlers may
// be nil when a deployment runs write-only; their routes then return 503.
type Dependencies struct {
	SubmitPractice *command.SubmitPracticeHandler
	UpdateProgress *command.UpdateProgressHandler
	ToggleBookmark *command.ToggleBookmarkHandler
	RecordActivity *command.RecordActivityHandler

	GetStats       *query.GetStatsHandler
	Analytics      *query.ChallengeAnalyticsHandler
	GetStreak      *query.GetStreakHandler
	GetLeaderboard *query.GetLeaderboardHandler
	RecentActivity *query.RecentActivityHandler
	Dashboard      *query.ComposeDashboardHandler

	Health HealthChecker
	Logger *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if err := s.deps.Health.Healthy(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"reason": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

type submitPracticeRequest struct {
	UserID      string `json:"user_id"`
	ChallengeID int64  `json:"challenge_id"`
	Response    string `json:"response"`
}

func (s *Server) handleSubmitPractice(w http.ResponseWriter, r *http.Request) {
	if s.deps.SubmitPractice == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "practice submission is not enabled")
		return
	}

	var req submitPracticeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	result, err := s.deps.SubmitPractice.Handle(r.Context(), command.SubmitPracticeCommand{
		UserID:      req.UserID,
		ChallengeID: req.ChallengeID,
		Response:    req.Response,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type updateProgressRequest struct {
	UserID   string `json:"user_id"`
	Progress int    `json:"progress"`
}

func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	lessonID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid lesson id")
		return
	}

	var req updateProgressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	result, err := s.deps.UpdateProgress.Handle(r.Context(), command.UpdateProgressCommand{
		UserID:   req.UserID,
		LessonID: lessonID,
		Progress: req.Progress,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type toggleBookmarkRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	lessonID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid lesson id")
		return
	}

	var req toggleBookmarkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	result, err := s.deps.ToggleBookmark.Handle(r.Context(), command.ToggleBookmarkCommand{
		UserID:   req.UserID,
		LessonID: lessonID,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type recordActivityRequest struct {
	UserID    string         `json:"user_id"`
	Kind      string         `json:"kind"`
	SubjectID int64          `json:"subject_id"`
	Payload   map[string]any `json:"payload"`
}

func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	var req recordActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	result, err := s.deps.RecordActivity.Handle(r.Context(), command.RecordActivityCommand{
		UserID:    req.UserID,
		Kind:      ledger.EventKind(req.Kind),
		SubjectID: req.SubjectID,
		Payload:   req.Payload,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERIES
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.GetStats.Handle(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleChallengeAnalytics(w http.ResponseWriter, r *http.Request) {
	challengeID, err := pathInt64(r, "challengeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid challenge id")
		return
	}

	analytics, err := s.deps.Analytics.Handle(r.Context(), r.PathValue("id"), challengeID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func (s *Server) handleGetStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := s.deps.GetStreak.Handle(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, streak)
}

func (s *Server) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	feed, err := s.deps.RecentActivity.Handle(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": feed})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Dashboard.Handle(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	challengeID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid challenge id")
		return
	}

	limit := queryInt(r, "limit", query.DefaultBoardSize)
	viewer := r.URL.Query().Get("viewer")

	board, err := s.deps.GetLeaderboard.Handle(r.Context(), challengeID, viewer, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps the error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a 500 and gets logged.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, shared.ErrUpstreamFailure):
		writeError(w, http.StatusBadGateway, "upstream_failure", "scoring service is unavailable")
	case errors.Is(err, shared.ErrInvariantViolation):
		writeError(w, http.StatusUnprocessableEntity, "invalid_input", err.Error())
	default:
		s.log.Error("unhandled error", logger.Err(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}
