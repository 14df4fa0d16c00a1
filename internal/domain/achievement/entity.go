// Package achievement defines achievement criteria and their evaluation.
// Evaluation is pure: facts are gathered from storage, checked against a
// closed set of criterion kinds, and the missing grants are returned.
package achievement

import (
	"context"
	"time"
)

// CriterionKind is the closed set of measurable achievement conditions.
// Adding a kind means adding a case to Facts.valueFor; free-form criteria
// are deliberately impossible.
type CriterionKind string

const (
	// LessonsCompletedAtLeast - total lessons fully completed.
	LessonsCompletedAtLeast CriterionKind = "lessons_completed_at_least"

	// PracticeSessionsAtLeast - total scored practice submissions.
	PracticeSessionsAtLeast CriterionKind = "practice_sessions_at_least"

	// DistinctCategoriesAtLeast - distinct content categories with at least
	// one completed lesson.
	DistinctCategoriesAtLeast CriterionKind = "distinct_categories_completed_at_least"

	// PreviewsAtLeast - total content previews generated.
	PreviewsAtLeast CriterionKind = "previews_at_least"

	// BookmarksAtLeast - lessons currently bookmarked.
	BookmarksAtLeast CriterionKind = "bookmarks_at_least"
)

// Definition describes one grantable achievement.
type Definition struct {
	ID          int64
	Name        string
	Description string
	Icon        string
	Points      int
	Criterion   CriterionKind
	Threshold   int
}

// Grant records that a user earned an achievement. Grants are permanent:
// once earned, an achievement is never revoked or re-granted.
type Grant struct {
	UserID        string
	AchievementID int64
	EarnedAt      time.Time
}

// Facts is the snapshot of user counters that criteria are checked against.
// All counters are gathered in one read so evaluation sees a consistent view.
type Facts struct {
	LessonsCompleted   int
	PracticeSessions   int
	DistinctCategories int
	Previews           int
	Bookmarks          int
}

// valueFor returns the counter a criterion kind measures.
func (f Facts) valueFor(kind CriterionKind) int {
	switch kind {
	case LessonsCompletedAtLeast:
		return f.LessonsCompleted
	case PracticeSessionsAtLeast:
		return f.PracticeSessions
	case DistinctCategoriesAtLeast:
		return f.DistinctCategories
	case PreviewsAtLeast:
		return f.Previews
	case BookmarksAtLeast:
		return f.Bookmarks
	}
	return 0
}

// Satisfies reports whether the facts meet the definition's criterion.
func (f Facts) Satisfies(def Definition) bool {
	return f.valueFor(def.Criterion) >= def.Threshold
}

// Progress reports how far the facts are toward the criterion, clamped
// to [0, Threshold].
func (f Facts) Progress(def Definition) (current, required int) {
	current = f.valueFor(def.Criterion)
	if current > def.Threshold {
		current = def.Threshold
	}
	return current, def.Threshold
}

// Evaluate returns the definitions whose criteria the facts satisfy but
// that are absent from earned. Definitions with unknown criterion kinds
// never match. The result preserves catalog order.
func Evaluate(defs []Definition, facts Facts, earned map[int64]bool) []Definition {
	var missing []Definition
	for _, def := range defs {
		if earned[def.ID] {
			continue
		}
		if facts.Satisfies(def) {
			missing = append(missing, def)
		}
	}
	return missing
}

// Repository persists achievement definitions and grants.
type Repository interface {
	// ListDefinitions returns the full catalog in display order.
	ListDefinitions(ctx context.Context) ([]Definition, error)

	// GetFacts gathers the user's counters in a single consistent read.
	GetFacts(ctx context.Context, userID string) (Facts, error)

	// ListEarned returns the IDs of achievements the user already holds.
	ListEarned(ctx context.Context, userID string) (map[int64]bool, error)

	// GrantMissing inserts grants for the given definitions, skipping any
	// that already exist. It returns the grants actually created, so
	// concurrent evaluations announce each achievement exactly once.
	GrantMissing(ctx context.Context, userID string, defs []Definition) ([]Grant, error)
}
