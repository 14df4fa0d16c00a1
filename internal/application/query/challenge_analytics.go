package query

import (
	"context"

	"github.com/promptcraft/progress-engine/internal/domain/shared"
	"github.com/promptcraft/progress-engine/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHALLENGE ANALYTICS
// ══════════════════════════════════════════════════════════════════════════════

// ChallengeAnalyticsHandler returns a user's attempt history on a challenge.
type ChallengeAnalyticsHandler struct {
	repo stats.Repository
}

// NewChallengeAnalyticsHandler creates a new ChallengeAnalyticsHandler.
func NewChallengeAnalyticsHandler(repo stats.Repository) *ChallengeAnalyticsHandler {
	return &ChallengeAnalyticsHandler{repo: repo}
}

// Handle returns the analytics, zero-valued when the user never attempted
// the challenge.
func (h *ChallengeAnalyticsHandler) Handle(ctx context.Context, userID string, challengeID int64) (*stats.ChallengeAnalytics, error) {
	if userID == "" {
		return nil, shared.WrapError("stats", "ChallengeAnalytics",
			shared.ErrInvariantViolation, "invalid query", shared.ErrEmptyUserID)
	}
	return h.repo.ChallengeAnalytics(ctx, userID, challengeID)
}
