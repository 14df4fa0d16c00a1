package command

import (
	"context"
	"fmt"

	"github.com/promptcraft/progress-engine/internal/domain/achievement"
	"github.com/promptcraft/progress-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATE ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateAchievementsHandler checks all criteria against the user's current
// counters and grants whatever is newly satisfied. Safe to call after any
// counter movement and safe to call concurrently: grants are idempotent.
type EvaluateAchievementsHandler struct {
	repo achievement.Repository
	log  *logger.Logger
}

// NewEvaluateAchievementsHandler creates a new EvaluateAchievementsHandler.
func NewEvaluateAchievementsHandler(repo achievement.Repository, log *logger.Logger) *EvaluateAchievementsHandler {
	return &EvaluateAchievementsHandler{
		repo: repo,
		log:  log.With(logger.Component("evaluate_achievements")),
	}
}

// EvaluateAndGrant returns the grants created by this call, paired with
// their definitions. Already-earned achievements are never returned.
func (h *EvaluateAchievementsHandler) EvaluateAndGrant(ctx context.Context, userID string) ([]achievement.Grant, []achievement.Definition, error) {
	defs, err := h.repo.ListDefinitions(ctx)
	if err != nil {
		return nil, nil, err
	}

	facts, err := h.repo.GetFacts(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	satisfied := achievement.Evaluate(defs, facts, nil)
	if len(satisfied) == 0 {
		return nil, nil, nil
	}

	grants, err := h.repo.GrantMissing(ctx, userID, satisfied)
	if err != nil {
		return nil, nil, err
	}

	defByID := make(map[int64]achievement.Definition, len(defs))
	for _, def := range defs {
		defByID[def.ID] = def
	}

	granted := make([]achievement.Definition, len(grants))
	for i, g := range grants {
		def, ok := defByID[g.AchievementID]
		if !ok {
			return nil, nil, fmt.Errorf("granted unknown achievement %d", g.AchievementID)
		}
		granted[i] = def

		h.log.Info("achievement earned",
			logger.UserID(userID),
			logger.String("achievement", def.Name),
			logger.Int("points", def.Points),
		)
	}

	return grants, granted, nil
}

// Ensure interface is implemented
var _ AchievementEvaluator = (*EvaluateAchievementsHandler)(nil)
