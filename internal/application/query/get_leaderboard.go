package query

import (
	"context"

	"github.com/promptcraft/progress-engine/internal/domain/leaderboard"
	"github.com/promptcraft/progress-engine/pkg/logger"
)

// DefaultBoardSize is how many entries a board returns by default.
const DefaultBoardSize = 20

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// BoardCache is the read-side port to the cached rankings. Any error from
// the cache is treated as a miss; PostgreSQL remains the source of truth.
type BoardCache interface {
	TopN(ctx context.Context, challengeID int64, limit int) ([]leaderboard.RankedEntry, error)
	UserRank(ctx context.Context, challengeID int64, userID string) (*leaderboard.RankedEntry, error)
	ReplaceBoard(ctx context.Context, challengeID int64, entries []leaderboard.Entry) error
}

// GetLeaderboardResult is a ranked board with the viewer's own position.
type GetLeaderboardResult struct {
	ChallengeID int64                     `json:"challenge_id"`
	Entries     []leaderboard.RankedEntry `json:"entries"`
	Viewer      *leaderboard.RankedEntry  `json:"viewer,omitempty"`
}

// GetLeaderboardHandler serves boards cache-first with storage fallback.
type GetLeaderboardHandler struct {
	repo  leaderboard.Repository
	cache BoardCache
	log   *logger.Logger
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
func NewGetLeaderboardHandler(repo leaderboard.Repository, cache BoardCache, log *logger.Logger) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		repo:  repo,
		cache: cache,
		log:   log.With(logger.Component("get_leaderboard")),
	}
}

// Handle returns the board for a challenge. viewerID may be empty.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, challengeID int64, viewerID string, limit int) (*GetLeaderboardResult, error) {
	if limit <= 0 {
		limit = DefaultBoardSize
	}

	if h.cache != nil {
		result, err := h.fromCache(ctx, challengeID, viewerID, limit)
		if err == nil {
			return result, nil
		}
		h.log.Debug("cache miss, falling back to storage",
			logger.ChallengeID(challengeID), logger.Err(err))
	}

	entries, err := h.repo.TopN(ctx, challengeID, limit)
	if err != nil {
		return nil, err
	}

	result := &GetLeaderboardResult{ChallengeID: challengeID, Entries: entries}

	if viewerID != "" {
		viewer, err := h.repo.UserRank(ctx, challengeID, viewerID)
		if err != nil {
			return nil, err
		}
		result.Viewer = viewer
	}

	h.warmCache(ctx, challengeID)

	return result, nil
}

// fromCache serves the board entirely from the cache.
func (h *GetLeaderboardHandler) fromCache(ctx context.Context, challengeID int64, viewerID string, limit int) (*GetLeaderboardResult, error) {
	entries, err := h.cache.TopN(ctx, challengeID, limit)
	if err != nil {
		return nil, err
	}

	result := &GetLeaderboardResult{ChallengeID: challengeID, Entries: entries}

	if viewerID != "" {
		viewer, err := h.cache.UserRank(ctx, challengeID, viewerID)
		if err != nil {
			return nil, err
		}
		result.Viewer = viewer
	}

	return result, nil
}

// warmCache rebuilds the cached board from storage, best-effort.
func (h *GetLeaderboardHandler) warmCache(ctx context.Context, challengeID int64) {
	if h.cache == nil {
		return
	}

	// Warm with the full board so cached viewer ranks are correct.
	ranked, err := h.repo.TopN(ctx, challengeID, 0)
	if err != nil {
		h.log.Debug("cache warm read failed", logger.ChallengeID(challengeID), logger.Err(err))
		return
	}

	entries := make([]leaderboard.Entry, len(ranked))
	for i, r := range ranked {
		entries[i] = r.Entry
	}
	if err := h.cache.ReplaceBoard(ctx, challengeID, entries); err != nil {
		h.log.Debug("cache warm write failed", logger.ChallengeID(challengeID), logger.Err(err))
	}
}
