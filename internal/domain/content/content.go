// Package content defines the catalog entities (categories, lessons,
// challenges) and per-lesson user progress. The engine does not author
// content; it reads the catalog and tracks what users do with it.
package content

import (
	"context"
	"time"
)

// Category groups lessons.
type Category struct {
	ID    int64
	Name  string
	Order int
}

// Lesson is one unit of learnable content.
type Lesson struct {
	ID         int64
	CategoryID int64
	Title      string
	Summary    string
	Order      int
	Published  bool
}

// Challenge is a practice task submissions are scored against.
type Challenge struct {
	ID         int64
	LessonID   int64
	Title      string
	Prompt     string
	Difficulty string
	Active     bool
}

// UserProgress tracks one user's progress through one lesson.
// StartedAt is stamped on first contact and CompletedAt the first time
// progress reaches 100; neither moves afterwards.
type UserProgress struct {
	UserID      string
	LessonID    int64
	Progress    int
	StartedAt   time.Time
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// Completed reports whether the lesson has been finished.
func (p UserProgress) Completed() bool {
	return p.CompletedAt != nil
}

// Repository reads the catalog and persists user progress and bookmarks.
type Repository interface {
	// GetChallenge returns an active challenge by ID.
	GetChallenge(ctx context.Context, id int64) (*Challenge, error)

	// GetLesson returns a published lesson by ID.
	GetLesson(ctx context.Context, id int64) (*Lesson, error)

	// UpsertProgress advances the user's progress on a lesson. Progress
	// never decreases; completion is stamped once. It returns the stored
	// row and whether this call completed the lesson.
	UpsertProgress(ctx context.Context, userID string, lessonID int64, progress int) (*UserProgress, bool, error)

	// ToggleBookmark flips the bookmark for a lesson and reports the new
	// state.
	ToggleBookmark(ctx context.Context, userID string, lessonID int64) (bool, error)
}
