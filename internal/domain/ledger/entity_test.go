package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptcraft/progress-engine/internal/domain/shared"
)

func TestNewActivityEvent(t *testing.T) {
	event, err := NewActivityEvent("user-1", KindLessonCompleted, 42, map[string]any{"progress": 100})

	require.NoError(t, err)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", event.ID.String())
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, KindLessonCompleted, event.Kind)
	assert.Equal(t, int64(42), event.SubjectID)
	assert.False(t, event.RecordedAt.IsZero())
	assert.Equal(t, "UTC", event.RecordedAt.Location().String())
}

func TestNewActivityEvent_EmptyUser(t *testing.T) {
	_, err := NewActivityEvent("", KindLessonStarted, 1, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvariantViolation)
	assert.ErrorIs(t, err, shared.ErrEmptyUserID)
}

func TestNewActivityEvent_UnknownKind(t *testing.T) {
	_, err := NewActivityEvent("user-1", EventKind("lesson_skimmed"), 1, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidEventKind)
}

func TestEventKind_Valid(t *testing.T) {
	for _, k := range []EventKind{
		KindLessonStarted, KindLessonProgress, KindLessonCompleted,
		KindPracticeSubmitted, KindBookmarkAdded, KindBookmarkRemoved,
		KindPreviewGenerated, KindEngagementPing,
	} {
		assert.True(t, k.Valid(), string(k))
	}
	assert.False(t, EventKind("").Valid())
	assert.False(t, EventKind("login").Valid())
}

func TestEventKind_CountsAsActivity(t *testing.T) {
	assert.True(t, KindLessonCompleted.CountsAsActivity())
	assert.True(t, KindPracticeSubmitted.CountsAsActivity())
	assert.True(t, KindEngagementPing.CountsAsActivity())
	assert.True(t, KindBookmarkAdded.CountsAsActivity())
	assert.False(t, KindLessonProgress.CountsAsActivity())
	assert.False(t, KindPreviewGenerated.CountsAsActivity())
}

func TestStreakKinds_MatchCountsAsActivity(t *testing.T) {
	marked := make(map[EventKind]bool)
	for _, k := range StreakKinds() {
		marked[k] = true
	}
	for _, k := range []EventKind{
		KindLessonStarted, KindLessonProgress, KindLessonCompleted,
		KindPracticeSubmitted, KindBookmarkAdded, KindBookmarkRemoved,
		KindPreviewGenerated, KindEngagementPing,
	} {
		assert.Equal(t, k.CountsAsActivity(), marked[k], string(k))
	}
}
