package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptcraft/progress-engine/internal/domain/leaderboard"
	"github.com/promptcraft/progress-engine/pkg/logger"
)

type fakeLeaderboardRepo struct {
	entries  []leaderboard.Entry
	topNErr  error
	topCalls int
}

func (f *fakeLeaderboardRepo) RecordScore(ctx context.Context, entry leaderboard.Entry) (bool, float64, error) {
	return false, 0, nil
}

func (f *fakeLeaderboardRepo) TopN(ctx context.Context, challengeID int64, limit int) ([]leaderboard.RankedEntry, error) {
	f.topCalls++
	if f.topNErr != nil {
		return nil, f.topNErr
	}
	ranked := leaderboard.Rank(f.entries)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (f *fakeLeaderboardRepo) UserRank(ctx context.Context, challengeID int64, userID string) (*leaderboard.RankedEntry, error) {
	for _, r := range leaderboard.Rank(f.entries) {
		if r.UserID == userID {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeLeaderboardRepo) ChallengeIDs(ctx context.Context) ([]int64, error) {
	return []int64{7}, nil
}

type fakeBoardCache struct {
	entries  []leaderboard.RankedEntry
	err      error
	replaced [][]leaderboard.Entry
}

func (f *fakeBoardCache) TopN(ctx context.Context, challengeID int64, limit int) ([]leaderboard.RankedEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeBoardCache) UserRank(ctx context.Context, challengeID int64, userID string) (*leaderboard.RankedEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.entries {
		if r.UserID == userID {
			entry := r
			return &entry, nil
		}
	}
	return nil, nil
}

func (f *fakeBoardCache) ReplaceBoard(ctx context.Context, challengeID int64, entries []leaderboard.Entry) error {
	f.replaced = append(f.replaced, entries)
	return nil
}

func boardEntries(t time.Time) []leaderboard.Entry {
	return []leaderboard.Entry{
		{UserID: "slow", ChallengeID: 7, Score: 91.5, AchievedAt: t.Add(time.Hour)},
		{UserID: "fast", ChallengeID: 7, Score: 91.5, AchievedAt: t},
		{UserID: "third", ChallengeID: 7, Score: 80, AchievedAt: t},
	}
}

func TestGetLeaderboard_ServedFromCache(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeLeaderboardRepo{}
	cache := &fakeBoardCache{entries: leaderboard.Rank(boardEntries(now))}

	handler := NewGetLeaderboardHandler(repo, cache, logger.Default())
	result, err := handler.Handle(context.Background(), 7, "third", 0)

	require.NoError(t, err)
	require.Len(t, result.Entries, 3)
	assert.Equal(t, "fast", result.Entries[0].UserID)
	assert.Equal(t, "slow", result.Entries[1].UserID)
	require.NotNil(t, result.Viewer)
	assert.Equal(t, 3, result.Viewer.Rank)

	// Storage stays untouched on a cache hit.
	assert.Equal(t, 0, repo.topCalls)
}

func TestGetLeaderboard_CacheFailureFallsBackAndWarms(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeLeaderboardRepo{entries: boardEntries(now)}
	cache := &fakeBoardCache{err: errors.New("connection refused")}

	handler := NewGetLeaderboardHandler(repo, cache, logger.Default())
	result, err := handler.Handle(context.Background(), 7, "", 2)

	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "fast", result.Entries[0].UserID)

	// One read for the response, one full read to rebuild the cache.
	assert.Equal(t, 2, repo.topCalls)
	require.Len(t, cache.replaced, 1)
	assert.Len(t, cache.replaced[0], 3)
}

func TestGetLeaderboard_NoCacheConfigured(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeLeaderboardRepo{entries: boardEntries(now)}

	handler := NewGetLeaderboardHandler(repo, nil, logger.Default())
	result, err := handler.Handle(context.Background(), 7, "missing", 0)

	require.NoError(t, err)
	assert.Len(t, result.Entries, 3)
	assert.Nil(t, result.Viewer)
}
