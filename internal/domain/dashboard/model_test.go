package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(kind string, minutesAgo int) ActivityItem {
	base := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	return ActivityItem{Kind: kind, OccurredAt: base.Add(-time.Duration(minutesAgo) * time.Minute)}
}

func TestMergeRecent_InterleavesNewestFirst(t *testing.T) {
	lessons := []ActivityItem{item("lesson", 30), item("lesson", 5)}
	practice := []ActivityItem{item("practice", 10)}
	bookmarks := []ActivityItem{item("bookmark", 1), item("bookmark", 60)}

	merged := MergeRecent(RecentLimit, lessons, practice, bookmarks)

	require.Len(t, merged, 5)
	kinds := make([]string, len(merged))
	for i, m := range merged {
		kinds[i] = m.Kind
	}
	assert.Equal(t, []string{"bookmark", "lesson", "practice", "lesson", "bookmark"}, kinds)
}

func TestMergeRecent_Truncates(t *testing.T) {
	var src []ActivityItem
	for i := 0; i < 25; i++ {
		src = append(src, item("lesson", i))
	}

	merged := MergeRecent(RecentLimit, src)

	assert.Len(t, merged, RecentLimit)
	assert.Equal(t, item("lesson", 0).OccurredAt, merged[0].OccurredAt)
}

func TestMergeRecent_EmptySources(t *testing.T) {
	assert.Empty(t, MergeRecent(RecentLimit, nil, nil))
}
