package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptcraft/progress-engine/internal/domain/achievement"
	"github.com/promptcraft/progress-engine/internal/domain/dashboard"
	"github.com/promptcraft/progress-engine/internal/domain/shared"
)

type fakeFeedSource struct {
	lessons   []dashboard.ActivityItem
	practice  []dashboard.ActivityItem
	bookmarks []dashboard.ActivityItem
}

func (f *fakeFeedSource) RecentLessonActivity(ctx context.Context, userID string, limit int) ([]dashboard.ActivityItem, error) {
	return f.lessons, nil
}

func (f *fakeFeedSource) RecentPracticeActivity(ctx context.Context, userID string, limit int) ([]dashboard.ActivityItem, error) {
	return f.practice, nil
}

func (f *fakeFeedSource) RecentBookmarkActivity(ctx context.Context, userID string, limit int) ([]dashboard.ActivityItem, error) {
	return f.bookmarks, nil
}

func feedItems(kind string, base time.Time, step time.Duration, n int) []dashboard.ActivityItem {
	items := make([]dashboard.ActivityItem, n)
	for i := range items {
		items[i] = dashboard.ActivityItem{
			Kind:       kind,
			Title:      fmt.Sprintf("%s %d", kind, i),
			OccurredAt: base.Add(time.Duration(i) * step),
		}
	}
	return items
}

func TestRecentActivity_MergesThreeSourcesNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	source := &fakeFeedSource{
		lessons:   feedItems("lesson", base, time.Hour, 4),
		practice:  feedItems("practice", base.Add(20*time.Minute), time.Hour, 4),
		bookmarks: feedItems("bookmark", base.Add(40*time.Minute), time.Hour, 4),
	}

	handler := NewRecentActivityHandler(source, nil)
	feed, err := handler.Handle(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, feed, dashboard.RecentLimit)

	for i := 1; i < len(feed); i++ {
		assert.False(t, feed[i].OccurredAt.After(feed[i-1].OccurredAt),
			"feed must be ordered newest first")
	}

	// The three newest items alternate across sources.
	assert.Equal(t, "bookmark", feed[0].Kind)
	assert.Equal(t, "practice", feed[1].Kind)
	assert.Equal(t, "lesson", feed[2].Kind)
}

func TestRecentActivity_ShortFeed(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	source := &fakeFeedSource{
		lessons: feedItems("lesson", base, time.Hour, 2),
	}

	handler := NewRecentActivityHandler(source, nil)
	feed, err := handler.Handle(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Len(t, feed, 2)
}

func TestRecentActivity_IncludesEarnedAchievements(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	catalog := achievement.DefaultCatalog()
	source := &fakeFeedSource{
		lessons: feedItems("lesson", base, time.Hour, 2),
	}
	achievements := &fakeAchievementView{
		defs: catalog,
		grants: []achievement.Grant{
			{UserID: "user-1", AchievementID: catalog[0].ID, EarnedAt: base.Add(30 * time.Minute)},
		},
	}

	handler := NewRecentActivityHandler(source, achievements)
	feed, err := handler.Handle(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, feed, 3)
	assert.Equal(t, "lesson", feed[0].Kind)
	assert.Equal(t, "achievement", feed[1].Kind)
	assert.Equal(t, catalog[0].Name, feed[1].Title)
}

func TestRecentActivity_EmptyUser(t *testing.T) {
	handler := NewRecentActivityHandler(&fakeFeedSource{}, nil)
	_, err := handler.Handle(context.Background(), "")
	assert.ErrorIs(t, err, shared.ErrEmptyUserID)
}
