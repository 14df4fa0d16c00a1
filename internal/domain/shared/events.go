package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ═══════════════════════════════════════════════════════════════════════════
// DOMAIN EVENTS
// ═══════════════════════════════════════════════════════════════════════════

// EventType identifies the type of a domain event.
type EventType string

const (
	// EventPracticeRecorded - a practice submission was scored and persisted.
	EventPracticeRecorded EventType = "practice.recorded"

	// EventPersonalBest - a submission beat the user's previous best for a
	// challenge and the leaderboard high-water mark moved.
	EventPersonalBest EventType = "leaderboard.personal_best"

	// EventAchievementEarned - a previously unearned achievement was granted.
	EventAchievementEarned EventType = "achievement.earned"

	// EventLessonProgress - lesson progress was created or advanced.
	EventLessonProgress EventType = "progress.updated"

	// EventBookmarkToggled - a bookmark was added or removed.
	EventBookmarkToggled EventType = "bookmark.toggled"

	// EventStreakExtended - the activity streak grew to a new length today.
	EventStreakExtended EventType = "streak.extended"
)

// Event is the interface all domain events implement.
type Event interface {
	// EventID returns the unique identifier of this event instance.
	EventID() uuid.UUID

	// Type returns the event type.
	Type() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that emitted the event.
	AggregateID() string
}

// BaseEvent provides common event fields. Embed it in concrete events.
type BaseEvent struct {
	ID        uuid.UUID
	EventType EventType
	Timestamp time.Time
	Aggregate string
}

// NewBaseEvent creates a base event with a fresh ID and current timestamp.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Aggregate: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) Type() EventType       { return e.EventType }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.Aggregate }

// ─────────────────────────────────────────────────────────────────────────────
// Concrete events
// ─────────────────────────────────────────────────────────────────────────────

// PracticeRecordedEvent is emitted after a scored submission is persisted.
type PracticeRecordedEvent struct {
	BaseEvent
	UserID      string
	ChallengeID int64
	SessionID   uuid.UUID
	Score       float64
}

// NewPracticeRecordedEvent creates a practice recorded event.
func NewPracticeRecordedEvent(userID string, challengeID int64, sessionID uuid.UUID, score float64) *PracticeRecordedEvent {
	return &PracticeRecordedEvent{
		BaseEvent:   NewBaseEvent(EventPracticeRecorded, userID),
		UserID:      userID,
		ChallengeID: challengeID,
		SessionID:   sessionID,
		Score:       score,
	}
}

// PersonalBestEvent is emitted when a leaderboard entry is improved. It
// carries everything a subscriber needs to rebuild the board entry without
// another storage read.
type PersonalBestEvent struct {
	BaseEvent
	UserID        string
	ChallengeID   int64
	SessionID     uuid.UUID
	Score         float64
	PreviousScore float64
	AchievedAt    time.Time
}

// NewPersonalBestEvent creates a personal best event.
func NewPersonalBestEvent(userID string, challengeID int64, sessionID uuid.UUID, score, previous float64, achievedAt time.Time) *PersonalBestEvent {
	return &PersonalBestEvent{
		BaseEvent:     NewBaseEvent(EventPersonalBest, userID),
		UserID:        userID,
		ChallengeID:   challengeID,
		SessionID:     sessionID,
		Score:         score,
		PreviousScore: previous,
		AchievedAt:    achievedAt,
	}
}

// AchievementEarnedEvent is emitted once per user per achievement.
type AchievementEarnedEvent struct {
	BaseEvent
	UserID        string
	AchievementID int64
	Name          string
	Points        int
}

// NewAchievementEarnedEvent creates an achievement earned event.
func NewAchievementEarnedEvent(userID string, achievementID int64, name string, points int) *AchievementEarnedEvent {
	return &AchievementEarnedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementEarned, userID),
		UserID:        userID,
		AchievementID: achievementID,
		Name:          name,
		Points:        points,
	}
}

// LessonProgressEvent is emitted when lesson progress changes.
type LessonProgressEvent struct {
	BaseEvent
	UserID   string
	LessonID int64
	Progress int
}

// NewLessonProgressEvent creates a lesson progress event.
func NewLessonProgressEvent(userID string, lessonID int64, progress int) *LessonProgressEvent {
	return &LessonProgressEvent{
		BaseEvent: NewBaseEvent(EventLessonProgress, userID),
		UserID:    userID,
		LessonID:  lessonID,
		Progress:  progress,
	}
}

// BookmarkToggledEvent is emitted when a bookmark is added or removed.
type BookmarkToggledEvent struct {
	BaseEvent
	UserID     string
	LessonID   int64
	Bookmarked bool
}

// NewBookmarkToggledEvent creates a bookmark toggled event.
func NewBookmarkToggledEvent(userID string, lessonID int64, bookmarked bool) *BookmarkToggledEvent {
	return &BookmarkToggledEvent{
		BaseEvent:  NewBaseEvent(EventBookmarkToggled, userID),
		UserID:     userID,
		LessonID:   lessonID,
		Bookmarked: bookmarked,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// EVENT BUS CONTRACTS
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler processes a single domain event.
type EventHandler interface {
	// Handle processes the event. Errors are logged by the bus, not returned
	// to the publisher.
	Handle(ctx context.Context, event Event) error

	// CanHandle reports whether this handler is interested in the event type.
	CanHandle(eventType EventType) bool
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	// Publish delivers the event to all subscribed handlers asynchronously.
	Publish(ctx context.Context, event Event) error
}

// EventBus combines publishing and subscription.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for the given event types.
	Subscribe(handler EventHandler, eventTypes ...EventType)
}
