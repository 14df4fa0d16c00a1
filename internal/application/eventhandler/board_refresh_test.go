package eventhandler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptcraft/progress-engine/internal/domain/leaderboard"
	"github.com/promptcraft/progress-engine/internal/domain/shared"
	"github.com/promptcraft/progress-engine/pkg/logger"
)

type fakeBoardCache struct {
	updated     []leaderboard.Entry
	invalidated []int64
	updateErr   error
}

func (f *fakeBoardCache) UpdateEntry(ctx context.Context, challengeID int64, entry leaderboard.Entry) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, entry)
	return nil
}

func (f *fakeBoardCache) Invalidate(ctx context.Context, challengeID int64) error {
	f.invalidated = append(f.invalidated, challengeID)
	return nil
}

func TestBoardRefresh_FoldsPersonalBestIntoCache(t *testing.T) {
	cache := &fakeBoardCache{}
	handler := NewBoardRefreshHandler(cache, logger.Default())

	sessionID := uuid.New()
	achievedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	event := shared.NewPersonalBestEvent("challenger", 9, sessionID, 95, 80, achievedAt)

	require.True(t, handler.CanHandle(event.Type()))
	require.NoError(t, handler.Handle(context.Background(), event))

	require.Len(t, cache.updated, 1)
	entry := cache.updated[0]
	assert.Equal(t, "challenger", entry.UserID)
	assert.Equal(t, int64(9), entry.ChallengeID)
	assert.InDelta(t, 95.0, entry.Score, 1e-9)
	assert.Equal(t, achievedAt, entry.AchievedAt)
	assert.Equal(t, sessionID, entry.SessionID)
	assert.Empty(t, cache.invalidated)
}

func TestBoardRefresh_DropsBoardWhenUpdateFails(t *testing.T) {
	cache := &fakeBoardCache{updateErr: errors.New("pipeline aborted")}
	handler := NewBoardRefreshHandler(cache, logger.Default())

	event := shared.NewPersonalBestEvent("challenger", 9, uuid.New(), 95, 80, time.Now().UTC())
	require.NoError(t, handler.Handle(context.Background(), event))

	assert.Empty(t, cache.updated)
	assert.Equal(t, []int64{9}, cache.invalidated)
}

func TestBoardRefresh_IgnoresOtherEvents(t *testing.T) {
	cache := &fakeBoardCache{}
	handler := NewBoardRefreshHandler(cache, logger.Default())

	assert.False(t, handler.CanHandle(shared.EventAchievementEarned))

	// A mismatched payload on the right type is skipped, never a panic.
	other := shared.NewAchievementEarnedEvent("user-1", 3, "AI Apprentice", 50)
	require.NoError(t, handler.Handle(context.Background(), other))
	assert.Empty(t, cache.updated)
	assert.Empty(t, cache.invalidated)
}
