package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptcraft/progress-engine/internal/domain/achievement"
	"github.com/promptcraft/progress-engine/pkg/logger"
)

type fakeAchievementRepo struct {
	defs   []achievement.Definition
	facts  achievement.Facts
	earned map[int64]bool
}

func (f *fakeAchievementRepo) ListDefinitions(ctx context.Context) ([]achievement.Definition, error) {
	return f.defs, nil
}

func (f *fakeAchievementRepo) GetFacts(ctx context.Context, userID string) (achievement.Facts, error) {
	return f.facts, nil
}

func (f *fakeAchievementRepo) ListEarned(ctx context.Context, userID string) (map[int64]bool, error) {
	return f.earned, nil
}

func (f *fakeAchievementRepo) GrantMissing(ctx context.Context, userID string, defs []achievement.Definition) ([]achievement.Grant, error) {
	if f.earned == nil {
		f.earned = map[int64]bool{}
	}
	var grants []achievement.Grant
	for _, def := range defs {
		if f.earned[def.ID] {
			continue
		}
		f.earned[def.ID] = true
		grants = append(grants, achievement.Grant{
			UserID:        userID,
			AchievementID: def.ID,
			EarnedAt:      time.Now().UTC(),
		})
	}
	return grants, nil
}

func TestEvaluateAndGrant_GrantsNewlySatisfied(t *testing.T) {
	repo := &fakeAchievementRepo{
		defs:  achievement.DefaultCatalog(),
		facts: achievement.Facts{LessonsCompleted: 1},
	}
	handler := NewEvaluateAchievementsHandler(repo, logger.Default())

	grants, defs, err := handler.EvaluateAndGrant(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, grants, 1)
	require.Len(t, defs, 1)
	assert.Equal(t, "First Steps", defs[0].Name)
}

func TestEvaluateAndGrant_SecondCallGrantsNothing(t *testing.T) {
	repo := &fakeAchievementRepo{
		defs:  achievement.DefaultCatalog(),
		facts: achievement.Facts{LessonsCompleted: 5, Bookmarks: 15},
	}
	handler := NewEvaluateAchievementsHandler(repo, logger.Default())

	grants, _, err := handler.EvaluateAndGrant(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, grants, 3) // First Steps, Quick Learner, Bookworm

	grants, defs, err := handler.EvaluateAndGrant(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, grants)
	assert.Empty(t, defs)
}

func TestEvaluateAndGrant_NoCountersNoGrants(t *testing.T) {
	repo := &fakeAchievementRepo{defs: achievement.DefaultCatalog()}
	handler := NewEvaluateAchievementsHandler(repo, logger.Default())

	grants, defs, err := handler.EvaluateAndGrant(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Empty(t, grants)
	assert.Empty(t, defs)
}
