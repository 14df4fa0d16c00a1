// Package query implements the read-side operations of the progress engine.
// Queries never mutate state; reads for unknown users return zero values
// rather than errors.
package query

import (
	"context"

	"github.com/promptcraft/progress-engine/internal/domain/shared"
	"github.com/promptcraft/progress-engine/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STATS
// ══════════════════════════════════════════════════════════════════════════════

// GetStatsHandler returns a user's practice aggregate.
type GetStatsHandler struct {
	repo stats.Repository
}

// NewGetStatsHandler creates a new GetStatsHandler.
func NewGetStatsHandler(repo stats.Repository) *GetStatsHandler {
	return &GetStatsHandler{repo: repo}
}

// Handle returns the aggregate, zero-valued for users with no submissions.
func (h *GetStatsHandler) Handle(ctx context.Context, userID string) (*stats.PracticeStats, error) {
	if userID == "" {
		return nil, shared.WrapError("stats", "GetStats", shared.ErrInvariantViolation,
			"invalid query", shared.ErrEmptyUserID)
	}
	return h.repo.Get(ctx, userID)
}
