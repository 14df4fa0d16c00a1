package query

import (
	"context"
	"time"

	"github.com/promptcraft/progress-engine/internal/domain/ledger"
	"github.com/promptcraft/progress-engine/internal/domain/shared"
	"github.com/promptcraft/progress-engine/internal/domain/streak"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STREAK
// ══════════════════════════════════════════════════════════════════════════════

// GetStreakHandler computes a user's activity streak from the ledger.
type GetStreakHandler struct {
	ledgerRepo ledger.Repository
	now        func() time.Time
}

// NewGetStreakHandler creates a new GetStreakHandler.
func NewGetStreakHandler(ledgerRepo ledger.Repository) *GetStreakHandler {
	return &GetStreakHandler{ledgerRepo: ledgerRepo, now: time.Now}
}

// Handle fetches the recent activity dates and derives the streak.
func (h *GetStreakHandler) Handle(ctx context.Context, userID string) (streak.LearningStreak, error) {
	if userID == "" {
		return streak.LearningStreak{}, shared.WrapError("streak", "GetStreak",
			shared.ErrInvariantViolation, "invalid query", shared.ErrEmptyUserID)
	}

	dates, err := h.ledgerRepo.ActivityDates(ctx, userID, streak.WindowDays)
	if err != nil {
		return streak.LearningStreak{}, err
	}

	return streak.Compute(dates, h.now().UTC()), nil
}
