package command

import (
	"context"

	"github.com/promptcraft/progress-engine/internal/domain/achievement"
	"github.com/promptcraft/progress-engine/internal/domain/content"
	"github.com/promptcraft/progress-engine/internal/domain/ledger"
	"github.com/promptcraft/progress-engine/internal/domain/shared"
	"github.com/promptcraft/progress-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProgressCommand advances a user's progress on a lesson.
type UpdateProgressCommand struct {
	UserID   string
	LessonID int64
	Progress int
}

// Validate checks command invariants.
func (c UpdateProgressCommand) Validate() error {
	if c.UserID == "" {
		return shared.WrapError("progress", "UpdateProgress", shared.ErrInvariantViolation,
			"invalid command", shared.ErrEmptyUserID)
	}
	if c.Progress < 0 || c.Progress > 100 {
		return shared.NewDomainError("progress", "UpdateProgress", shared.ErrInvariantViolation,
			"progress must be between 0 and 100")
	}
	return nil
}

// UpdateProgressResult describes the stored progress after the command.
type UpdateProgressResult struct {
	Progress        *content.UserProgress
	JustCompleted   bool
	NewAchievements []achievement.Definition
}

// AchievementEvaluator re-checks achievement criteria after a counter moved.
type AchievementEvaluator interface {
	EvaluateAndGrant(ctx context.Context, userID string) ([]achievement.Grant, []achievement.Definition, error)
}

// UpdateProgressHandler persists lesson progress, appends the ledger event,
// and re-evaluates achievements when the lesson was just completed.
type UpdateProgressHandler struct {
	contentRepo content.Repository
	ledgerRepo  ledger.Repository
	evaluator   AchievementEvaluator
	bus         shared.EventPublisher
	log         *logger.Logger
}

// NewUpdateProgressHandler creates a new UpdateProgressHandler.
func NewUpdateProgressHandler(
	contentRepo content.Repository,
	ledgerRepo ledger.Repository,
	evaluator AchievementEvaluator,
	bus shared.EventPublisher,
	log *logger.Logger,
) *UpdateProgressHandler {
	return &UpdateProgressHandler{
		contentRepo: contentRepo,
		ledgerRepo:  ledgerRepo,
		evaluator:   evaluator,
		bus:         bus,
		log:         log.With(logger.Component("update_progress")),
	}
}

// Handle executes the command.
func (h *UpdateProgressHandler) Handle(ctx context.Context, cmd UpdateProgressCommand) (*UpdateProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	progress, justCompleted, err := h.contentRepo.UpsertProgress(ctx, cmd.UserID, cmd.LessonID, cmd.Progress)
	if err != nil {
		return nil, err
	}

	kind := ledger.KindLessonProgress
	switch {
	case justCompleted:
		kind = ledger.KindLessonCompleted
	case progress.StartedAt.Equal(progress.UpdatedAt):
		kind = ledger.KindLessonStarted
	}

	event, err := ledger.NewActivityEvent(cmd.UserID, kind, cmd.LessonID,
		map[string]any{"progress": progress.Progress})
	if err != nil {
		return nil, err
	}
	if err := h.ledgerRepo.Append(ctx, event); err != nil {
		return nil, err
	}

	result := &UpdateProgressResult{Progress: progress, JustCompleted: justCompleted}

	if justCompleted && h.evaluator != nil {
		_, defs, err := h.evaluator.EvaluateAndGrant(ctx, cmd.UserID)
		if err != nil {
			// The progress write already committed; losing a grant here is
			// recoverable on the next evaluation.
			h.log.Error("achievement evaluation failed",
				logger.UserID(cmd.UserID), logger.Err(err))
		} else {
			result.NewAchievements = defs
		}
	}

	if h.bus != nil {
		_ = h.bus.Publish(ctx, shared.NewLessonProgressEvent(cmd.UserID, cmd.LessonID, progress.Progress))
		for _, def := range result.NewAchievements {
			_ = h.bus.Publish(ctx, shared.NewAchievementEarnedEvent(cmd.UserID, def.ID, def.Name, def.Points))
		}
	}

	h.log.Debug("lesson progress updated",
		logger.UserID(cmd.UserID),
		logger.LessonID(cmd.LessonID),
		logger.Int("progress", progress.Progress),
		logger.Bool("completed", justCompleted),
	)

	return result, nil
}
