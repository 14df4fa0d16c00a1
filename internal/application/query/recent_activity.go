package query

import (
	"context"

	"github.com/promptcraft/progress-engine/internal/domain/dashboard"
	"github.com/promptcraft/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECENT ACTIVITY
// ══════════════════════════════════════════════════════════════════════════════

// ActivityFeedSource supplies the three per-table activity feeds that the
// merged view is built from. Each method returns items newest first, already
// limited; the merge re-sorts so the contract is loose on ordering.
type ActivityFeedSource interface {
	RecentLessonActivity(ctx context.Context, userID string, limit int) ([]dashboard.ActivityItem, error)
	RecentPracticeActivity(ctx context.Context, userID string, limit int) ([]dashboard.ActivityItem, error)
	RecentBookmarkActivity(ctx context.Context, userID string, limit int) ([]dashboard.ActivityItem, error)
}

// RecentActivityHandler merges lesson, practice, bookmark and achievement
// activity into one feed.
type RecentActivityHandler struct {
	source       ActivityFeedSource
	achievements AchievementView
}

// NewRecentActivityHandler creates a new RecentActivityHandler. The
// achievements view may be nil; the feed then carries no earned entries.
func NewRecentActivityHandler(source ActivityFeedSource, achievements AchievementView) *RecentActivityHandler {
	return &RecentActivityHandler{source: source, achievements: achievements}
}

// Handle returns the user's merged feed, newest first. Each source is read
// up to the full limit because any one of them may dominate the window.
func (h *RecentActivityHandler) Handle(ctx context.Context, userID string) ([]dashboard.ActivityItem, error) {
	if userID == "" {
		return nil, shared.WrapError("dashboard", "RecentActivity",
			shared.ErrInvariantViolation, "invalid query", shared.ErrEmptyUserID)
	}

	lessons, err := h.source.RecentLessonActivity(ctx, userID, dashboard.RecentLimit)
	if err != nil {
		return nil, err
	}
	practice, err := h.source.RecentPracticeActivity(ctx, userID, dashboard.RecentLimit)
	if err != nil {
		return nil, err
	}
	bookmarks, err := h.source.RecentBookmarkActivity(ctx, userID, dashboard.RecentLimit)
	if err != nil {
		return nil, err
	}
	earned, err := h.earnedItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	return dashboard.MergeRecent(dashboard.RecentLimit, lessons, practice, bookmarks, earned), nil
}

// earnedItems turns recent grants into feed entries.
func (h *RecentActivityHandler) earnedItems(ctx context.Context, userID string) ([]dashboard.ActivityItem, error) {
	if h.achievements == nil {
		return nil, nil
	}

	defs, err := h.achievements.ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	grants, err := h.achievements.ListEarnedWithTime(ctx, userID)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(defs))
	for _, def := range defs {
		names[def.ID] = def.Name
	}

	items := make([]dashboard.ActivityItem, 0, len(grants))
	for _, grant := range grants {
		name, ok := names[grant.AchievementID]
		if !ok {
			continue
		}
		items = append(items, dashboard.ActivityItem{
			Kind:       "achievement",
			Title:      name,
			SubjectID:  grant.AchievementID,
			Detail:     "Achievement earned",
			OccurredAt: grant.EarnedAt,
		})
		if len(items) == dashboard.RecentLimit {
			break
		}
	}

	return items, nil
}
