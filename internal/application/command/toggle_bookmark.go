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
// TOGGLE BOOKMARK
// ══════════════════════════════════════════════════════════════════════════════

// ToggleBookmarkCommand flips a bookmark on a lesson.
type ToggleBookmarkCommand struct {
	UserID   string
	LessonID int64
}

// Validate checks command invariants.
func (c ToggleBookmarkCommand) Validate() error {
	if c.UserID == "" {
		return shared.WrapError("bookmark", "ToggleBookmark", shared.ErrInvariantViolation,
			"invalid command", shared.ErrEmptyUserID)
	}
	return nil
}

// ToggleBookmarkResult reports the new bookmark state.
type ToggleBookmarkResult struct {
	Bookmarked      bool
	NewAchievements []achievement.Definition
}

// ToggleBookmarkHandler flips the bookmark, records the ledger event, and
// re-evaluates bookmark-count achievements on adds.
type ToggleBookmarkHandler struct {
	contentRepo content.Repository
	ledgerRepo  ledger.Repository
	evaluator   AchievementEvaluator
	bus         shared.EventPublisher
	log         *logger.Logger
}

// NewToggleBookmarkHandler creates a new ToggleBookmarkHandler.
func NewToggleBookmarkHandler(
	contentRepo content.Repository,
	ledgerRepo ledger.Repository,
	evaluator AchievementEvaluator,
	bus shared.EventPublisher,
	log *logger.Logger,
) *ToggleBookmarkHandler {
	return &ToggleBookmarkHandler{
		contentRepo: contentRepo,
		ledgerRepo:  ledgerRepo,
		evaluator:   evaluator,
		bus:         bus,
		log:         log.With(logger.Component("toggle_bookmark")),
	}
}

// Handle executes the command.
func (h *ToggleBookmarkHandler) Handle(ctx context.Context, cmd ToggleBookmarkCommand) (*ToggleBookmarkResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	bookmarked, err := h.contentRepo.ToggleBookmark(ctx, cmd.UserID, cmd.LessonID)
	if err != nil {
		return nil, err
	}

	kind := ledger.KindBookmarkRemoved
	if bookmarked {
		kind = ledger.KindBookmarkAdded
	}

	event, err := ledger.NewActivityEvent(cmd.UserID, kind, cmd.LessonID, nil)
	if err != nil {
		return nil, err
	}
	if err := h.ledgerRepo.Append(ctx, event); err != nil {
		return nil, err
	}

	result := &ToggleBookmarkResult{Bookmarked: bookmarked}

	if bookmarked && h.evaluator != nil {
		_, defs, err := h.evaluator.EvaluateAndGrant(ctx, cmd.UserID)
		if err != nil {
			h.log.Error("achievement evaluation failed",
				logger.UserID(cmd.UserID), logger.Err(err))
		} else {
			result.NewAchievements = defs
		}
	}

	if h.bus != nil {
		_ = h.bus.Publish(ctx, shared.NewBookmarkToggledEvent(cmd.UserID, cmd.LessonID, bookmarked))
		for _, def := range result.NewAchievements {
			_ = h.bus.Publish(ctx, shared.NewAchievementEarnedEvent(cmd.UserID, def.ID, def.Name, def.Points))
		}
	}

	return result, nil
}
