// Package dashboard defines the aggregated read model returned to clients
// and the merge rules for the recent activity feed.
package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/promptcraft/progress-engine/internal/domain/achievement"
	"github.com/promptcraft/progress-engine/internal/domain/stats"
	"github.com/promptcraft/progress-engine/internal/domain/streak"
)

// RecentLimit is how many items the recent activity feed returns.
const RecentLimit = 10

// ActivityItem is one entry in the recent activity feed. Items from all
// sources share this shape so the feed can be merged and sorted uniformly.
type ActivityItem struct {
	Kind       string    `json:"kind"`
	Title      string    `json:"title"`
	SubjectID  int64     `json:"subject_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// MergeRecent interleaves items from any number of sources into a single
// feed, newest first, truncated to limit. Sources need not be sorted.
func MergeRecent(limit int, sources ...[]ActivityItem) []ActivityItem {
	var merged []ActivityItem
	for _, src := range sources {
		merged = append(merged, src...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].OccurredAt.After(merged[j].OccurredAt)
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// EarnedAchievement pairs a definition with when the user earned it.
type EarnedAchievement struct {
	achievement.Definition
	EarnedAt time.Time `json:"earned_at"`
}

// NextAchievement shows progress toward an unearned achievement.
type NextAchievement struct {
	achievement.Definition
	Current  int `json:"current"`
	Required int `json:"required"`
}

// CategoryProgress summarizes completion within one content category.
type CategoryProgress struct {
	CategoryID int64   `json:"category_id"`
	Name       string  `json:"name"`
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percent    float64 `json:"percent"`
}

// Recommendation is a suggested next lesson.
type Recommendation struct {
	LessonID int64  `json:"lesson_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// Dashboard is the composed view for one user. Sections a collaborator
// could not provide are empty, never nil maps or error placeholders.
type Dashboard struct {
	UserID           string                `json:"user_id"`
	Stats            *stats.PracticeStats  `json:"stats"`
	Streak           streak.LearningStreak `json:"streak"`
	Earned           []EarnedAchievement   `json:"earned_achievements"`
	Next             []NextAchievement     `json:"next_achievements"`
	RecentActivity   []ActivityItem        `json:"recent_activity"`
	CategoryProgress []CategoryProgress    `json:"category_progress"`
	Recommendations  []Recommendation      `json:"recommendations"`
	GeneratedAt      time.Time             `json:"generated_at"`
}

// CategoryProgressProvider supplies per-category completion rollups.
type CategoryProgressProvider interface {
	CategoryProgress(ctx context.Context, userID string) ([]CategoryProgress, error)
}

// Recommender suggests lessons the user has not completed.
type Recommender interface {
	Recommend(ctx context.Context, userID string, limit int) ([]Recommendation, error)
}
