// Package ledger defines the append-only activity event ledger. Every
// user-visible action flows through here before any derived state (stats,
// streaks, achievements) is recomputed.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/promptcraft/progress-engine/internal/domain/shared"
)

// EventKind classifies an activity event. The set is closed: unknown kinds
// are rejected at the boundary rather than stored.
type EventKind string

const (
	KindLessonStarted     EventKind = "lesson_started"
	KindLessonProgress    EventKind = "lesson_progress"
	KindLessonCompleted   EventKind = "lesson_completed"
	KindPracticeSubmitted EventKind = "practice_submitted"
	KindBookmarkAdded     EventKind = "bookmark_added"
	KindBookmarkRemoved   EventKind = "bookmark_removed"
	KindPreviewGenerated  EventKind = "preview_generated"
	KindEngagementPing    EventKind = "engagement_ping"
)

// Valid reports whether the kind belongs to the closed set.
func (k EventKind) Valid() bool {
	switch k {
	case KindLessonStarted, KindLessonProgress, KindLessonCompleted,
		KindPracticeSubmitted, KindBookmarkAdded, KindBookmarkRemoved,
		KindPreviewGenerated, KindEngagementPing:
		return true
	}
	return false
}

// CountsAsActivity reports whether the kind anchors a streak day.
// Completions, submissions, bookmark toggles and pings all qualify;
// partial lesson progress and previews do not.
func (k EventKind) CountsAsActivity() bool {
	switch k {
	case KindLessonCompleted, KindPracticeSubmitted,
		KindBookmarkAdded, KindBookmarkRemoved, KindEngagementPing:
		return true
	}
	return false
}

// StreakKinds returns the kinds that anchor a streak day, for queries that
// filter in storage.
func StreakKinds() []EventKind {
	return []EventKind{
		KindLessonCompleted, KindPracticeSubmitted,
		KindBookmarkAdded, KindBookmarkRemoved, KindEngagementPing,
	}
}

// ActivityEvent is a single immutable entry in the ledger.
type ActivityEvent struct {
	// ID uniquely identifies the event.
	ID uuid.UUID

	// UserID is the owner of the activity.
	UserID string

	// Kind classifies the activity.
	Kind EventKind

	// SubjectID references the lesson or challenge acted on, when any.
	SubjectID int64

	// Payload carries kind-specific detail (score, progress percent).
	Payload map[string]any

	// RecordedAt is the server-side timestamp assigned at append time.
	RecordedAt time.Time

	// Seq is a monotonic sequence number assigned by storage. Events with
	// equal RecordedAt order by Seq.
	Seq int64
}

// NewActivityEvent creates a validated ledger entry. The timestamp is
// assigned here, never taken from the caller.
func NewActivityEvent(userID string, kind EventKind, subjectID int64, payload map[string]any) (*ActivityEvent, error) {
	if userID == "" {
		return nil, shared.WrapError("ledger", "NewActivityEvent", shared.ErrInvariantViolation,
			"invalid event", shared.ErrEmptyUserID)
	}
	if !kind.Valid() {
		return nil, shared.WrapError("ledger", "NewActivityEvent", shared.ErrInvariantViolation,
			string(kind), shared.ErrInvalidEventKind)
	}
	return &ActivityEvent{
		ID:         uuid.New(),
		UserID:     userID,
		Kind:       kind,
		SubjectID:  subjectID,
		Payload:    payload,
		RecordedAt: time.Now().UTC(),
	}, nil
}

// Repository persists and reads the event ledger.
type Repository interface {
	// Append stores one event and fills in its Seq.
	Append(ctx context.Context, event *ActivityEvent) error

	// ListRecent returns the newest events for a user, RecordedAt descending
	// with Seq breaking ties, up to limit.
	ListRecent(ctx context.Context, userID string, limit int) ([]*ActivityEvent, error)

	// ActivityDates returns the distinct UTC dates on which the user had at
	// least one streak-anchoring event within the last windowDays days.
	ActivityDates(ctx context.Context, userID string, windowDays int) ([]time.Time, error)
}
