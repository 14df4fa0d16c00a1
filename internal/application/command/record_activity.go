package command

import (
	"context"
	"fmt"

	"github.com/promptcraft/progress-engine/internal/domain/achievement"
	"github.com/promptcraft/progress-engine/internal/domain/ledger"
	"github.com/promptcraft/progress-engine/internal/domain/shared"
	"github.com/promptcraft/progress-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ACTIVITY
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityCommand appends a free-standing ledger event: engagement
// pings and preview generations, activities with no other write path.
type RecordActivityCommand struct {
	UserID    string
	Kind      ledger.EventKind
	SubjectID int64
	Payload   map[string]any
}

// Validate rejects kinds that have their own write chain. Completions,
// submissions and bookmark toggles feed streaks and achievement facts, so
// they may only enter the ledger through the operations that also update
// the derived state.
func (c RecordActivityCommand) Validate() error {
	switch c.Kind {
	case ledger.KindEngagementPing, ledger.KindPreviewGenerated:
		return nil
	}
	return shared.NewDomainError("ledger", "RecordActivity", shared.ErrInvariantViolation,
		fmt.Sprintf("kind %q cannot be recorded directly", c.Kind))
}

// RecordActivityResult reports the appended event.
type RecordActivityResult struct {
	Event           *ledger.ActivityEvent
	NewAchievements []achievement.Definition
}

// RecordActivityHandler appends the event and re-evaluates achievements for
// kinds that move a criterion counter.
type RecordActivityHandler struct {
	ledgerRepo ledger.Repository
	evaluator  AchievementEvaluator
	log        *logger.Logger
}

// NewRecordActivityHandler creates a new RecordActivityHandler.
func NewRecordActivityHandler(ledgerRepo ledger.Repository, evaluator AchievementEvaluator, log *logger.Logger) *RecordActivityHandler {
	return &RecordActivityHandler{
		ledgerRepo: ledgerRepo,
		evaluator:  evaluator,
		log:        log.With(logger.Component("record_activity")),
	}
}

// Handle executes the command.
func (h *RecordActivityHandler) Handle(ctx context.Context, cmd RecordActivityCommand) (*RecordActivityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	event, err := ledger.NewActivityEvent(cmd.UserID, cmd.Kind, cmd.SubjectID, cmd.Payload)
	if err != nil {
		return nil, err
	}

	if err := h.ledgerRepo.Append(ctx, event); err != nil {
		return nil, err
	}

	result := &RecordActivityResult{Event: event}

	// Preview counts feed the preview achievements; pings feed nothing.
	if cmd.Kind == ledger.KindPreviewGenerated && h.evaluator != nil {
		_, defs, err := h.evaluator.EvaluateAndGrant(ctx, cmd.UserID)
		if err != nil {
			h.log.Error("achievement evaluation failed",
				logger.UserID(cmd.UserID), logger.Err(err))
		} else {
			result.NewAchievements = defs
		}
	}

	h.log.Debug("activity recorded",
		logger.UserID(cmd.UserID),
		logger.EventKind(string(cmd.Kind)),
	)

	return result, nil
}
