// Package command implements the write-side operations of the progress
// engine. Each handler validates input, calls collaborators, and publishes
// domain events after the state change commits.
package command

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/promptcraft/progress-engine/internal/domain/achievement"
	"github.com/promptcraft/progress-engine/internal/domain/content"
	"github.com/promptcraft/progress-engine/internal/domain/ledger"
	"github.com/promptcraft/progress-engine/internal/domain/shared"
	"github.com/promptcraft/progress-engine/internal/domain/stats"
	"github.com/promptcraft/progress-engine/pkg/logger"
)

// ScoreOracle is the port to the external scoring service.
type ScoreOracle interface {
	Evaluate(ctx context.Context, challengeID int64, prompt, response string) (*stats.Assessment, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT PRACTICE
// ══════════════════════════════════════════════════════════════════════════════

// SubmitPracticeCommand carries one practice submission.
type SubmitPracticeCommand struct {
	UserID      string
	ChallengeID int64
	Response    string
}

// Validate checks command invariants.
func (c SubmitPracticeCommand) Validate() error {
	if c.UserID == "" {
		return shared.WrapError("practice", "SubmitPractice", shared.ErrInvariantViolation,
			"invalid command", shared.ErrEmptyUserID)
	}
	if strings.TrimSpace(c.Response) == "" {
		return shared.NewDomainError("practice", "SubmitPractice", shared.ErrInvariantViolation,
			"response cannot be empty")
	}
	return nil
}

// SubmitPracticeResult is returned to the caller after a successful chain.
type SubmitPracticeResult struct {
	SessionID       uuid.UUID
	Score           float64
	Feedback        string
	Breakdown       json.RawMessage
	Suggestions     []string
	Stats           *stats.PracticeStats
	PersonalBest    bool
	PreviousBest    float64
	NewAchievements []achievement.Definition
}

// SubmitPracticeHandler runs the submission chain: score with the oracle,
// then persist the session and every piece of derived state atomically.
// Oracle failure aborts before anything is written.
type SubmitPracticeHandler struct {
	challenges content.Repository
	oracle     ScoreOracle
	store      stats.SubmissionStore
	bus        shared.EventPublisher
	log        *logger.Logger
}

// NewSubmitPracticeHandler creates a new SubmitPracticeHandler.
func NewSubmitPracticeHandler(
	challenges content.Repository,
	scoreOracle ScoreOracle,
	store stats.SubmissionStore,
	bus shared.EventPublisher,
	log *logger.Logger,
) *SubmitPracticeHandler {
	return &SubmitPracticeHandler{
		challenges: challenges,
		oracle:     scoreOracle,
		store:      store,
		bus:        bus,
		log:        log.With(logger.Component("submit_practice")),
	}
}

// Handle executes the command.
func (h *SubmitPracticeHandler) Handle(ctx context.Context, cmd SubmitPracticeCommand) (*SubmitPracticeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	challenge, err := h.challenges.GetChallenge(ctx, cmd.ChallengeID)
	if err != nil {
		return nil, err
	}

	verdict, err := h.oracle.Evaluate(ctx, challenge.ID, challenge.Prompt, cmd.Response)
	if err != nil {
		return nil, err
	}

	session, err := stats.NewPracticeSession(cmd.UserID, challenge.ID, cmd.Response, *verdict)
	if err != nil {
		return nil, err
	}

	event, err := ledger.NewActivityEvent(cmd.UserID, ledger.KindPracticeSubmitted, challenge.ID,
		map[string]any{"score": verdict.Score, "session_id": session.ID.String()})
	if err != nil {
		return nil, err
	}
	event.RecordedAt = session.SubmittedAt

	outcome, err := h.store.SubmitScored(ctx, session, event)
	if err != nil {
		return nil, err
	}

	h.publishEvents(ctx, session, outcome)

	h.log.Info("practice submission recorded",
		logger.UserID(cmd.UserID),
		logger.ChallengeID(challenge.ID),
		logger.Score(verdict.Score),
		logger.Bool("personal_best", outcome.LeaderboardImproved),
		logger.Int("new_achievements", len(outcome.GrantedDefs)),
	)

	return &SubmitPracticeResult{
		SessionID:       session.ID,
		Score:           verdict.Score,
		Feedback:        verdict.Feedback,
		Breakdown:       verdict.Breakdown,
		Suggestions:     verdict.Suggestions,
		Stats:           outcome.Stats,
		PersonalBest:    outcome.LeaderboardImproved,
		PreviousBest:    outcome.PreviousBest,
		NewAchievements: outcome.GrantedDefs,
	}, nil
}

// publishEvents announces the committed changes. Publishing is best-effort;
// the submission already committed.
func (h *SubmitPracticeHandler) publishEvents(ctx context.Context, session *stats.PracticeSession, outcome *stats.SubmissionOutcome) {
	if h.bus == nil {
		return
	}

	_ = h.bus.Publish(ctx, shared.NewPracticeRecordedEvent(
		session.UserID, session.ChallengeID, session.ID, session.Score))

	if outcome.LeaderboardImproved {
		_ = h.bus.Publish(ctx, shared.NewPersonalBestEvent(
			session.UserID, session.ChallengeID, session.ID,
			session.Score, outcome.PreviousBest, session.SubmittedAt))
	}

	for _, def := range outcome.GrantedDefs {
		_ = h.bus.Publish(ctx, shared.NewAchievementEarnedEvent(
			session.UserID, def.ID, def.Name, def.Points))
	}
}
