package query

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/promptcraft/progress-engine/internal/domain/achievement"
	"github.com/promptcraft/progress-engine/internal/domain/dashboard"
	"github.com/promptcraft/progress-engine/internal/domain/shared"
	"github.com/promptcraft/progress-engine/internal/domain/stats"
	"github.com/promptcraft/progress-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPOSE DASHBOARD
// ══════════════════════════════════════════════════════════════════════════════

// RecommendationLimit is how many suggested lessons the dashboard carries.
const RecommendationLimit = 3

// AchievementView is the read-side port to the achievement store. Grants
// come back newest first so the earned section needs no re-sort.
type AchievementView interface {
	ListDefinitions(ctx context.Context) ([]achievement.Definition, error)
	GetFacts(ctx context.Context, userID string) (achievement.Facts, error)
	ListEarnedWithTime(ctx context.Context, userID string) ([]achievement.Grant, error)
}

// ComposeDashboardHandler assembles the per-user dashboard from the other
// read models. Sections are fetched concurrently; a nil collaborator leaves
// its section empty rather than failing the whole view.
type ComposeDashboardHandler struct {
	stats        stats.Repository
	streaks      *GetStreakHandler
	achievements AchievementView
	activity     *RecentActivityHandler
	categories   dashboard.CategoryProgressProvider
	recommender  dashboard.Recommender
	log          *logger.Logger
	now          func() time.Time
}

// NewComposeDashboardHandler creates a new ComposeDashboardHandler. Any
// collaborator may be nil.
func NewComposeDashboardHandler(
	statsRepo stats.Repository,
	streaks *GetStreakHandler,
	achievements AchievementView,
	activity *RecentActivityHandler,
	categories dashboard.CategoryProgressProvider,
	recommender dashboard.Recommender,
	log *logger.Logger,
) *ComposeDashboardHandler {
	return &ComposeDashboardHandler{
		stats:        statsRepo,
		streaks:      streaks,
		achievements: achievements,
		activity:     activity,
		categories:   categories,
		recommender:  recommender,
		log:          log.With(logger.Component("compose_dashboard")),
		now:          time.Now,
	}
}

// Handle builds the dashboard for one user. Any collaborator error fails
// the composition; partial dashboards would be indistinguishable from
// correct empty ones.
func (h *ComposeDashboardHandler) Handle(ctx context.Context, userID string) (*dashboard.Dashboard, error) {
	if userID == "" {
		return nil, shared.WrapError("dashboard", "ComposeDashboard",
			shared.ErrInvariantViolation, "invalid query", shared.ErrEmptyUserID)
	}

	view := &dashboard.Dashboard{UserID: userID}

	g, gctx := errgroup.WithContext(ctx)

	if h.stats != nil {
		g.Go(func() error {
			s, err := h.stats.Get(gctx, userID)
			if err != nil {
				return err
			}
			view.Stats = s
			return nil
		})
	}

	if h.streaks != nil {
		g.Go(func() error {
			s, err := h.streaks.Handle(gctx, userID)
			if err != nil {
				return err
			}
			view.Streak = s
			return nil
		})
	}

	if h.achievements != nil {
		g.Go(func() error {
			earned, next, err := h.achievementSections(gctx, userID)
			if err != nil {
				return err
			}
			view.Earned = earned
			view.Next = next
			return nil
		})
	}

	if h.activity != nil {
		g.Go(func() error {
			items, err := h.activity.Handle(gctx, userID)
			if err != nil {
				return err
			}
			view.RecentActivity = items
			return nil
		})
	}

	if h.categories != nil {
		g.Go(func() error {
			progress, err := h.categories.CategoryProgress(gctx, userID)
			if err != nil {
				return err
			}
			view.CategoryProgress = progress
			return nil
		})
	}

	if h.recommender != nil {
		g.Go(func() error {
			recs, err := h.recommender.Recommend(gctx, userID, RecommendationLimit)
			if err != nil {
				return err
			}
			view.Recommendations = recs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		h.log.Warn("dashboard composition failed",
			logger.UserID(userID), logger.Err(err))
		return nil, err
	}

	if view.Stats == nil {
		view.Stats = stats.Zero(userID)
	}
	view.GeneratedAt = h.now().UTC()

	return view, nil
}

// achievementSections splits the catalog into earned entries, newest first,
// and unearned entries with criterion progress, in catalog order.
func (h *ComposeDashboardHandler) achievementSections(ctx context.Context, userID string) ([]dashboard.EarnedAchievement, []dashboard.NextAchievement, error) {
	defs, err := h.achievements.ListDefinitions(ctx)
	if err != nil {
		return nil, nil, err
	}
	grants, err := h.achievements.ListEarnedWithTime(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	facts, err := h.achievements.GetFacts(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[int64]achievement.Definition, len(defs))
	for _, def := range defs {
		byID[def.ID] = def
	}

	earned := make([]dashboard.EarnedAchievement, 0, len(grants))
	earnedIDs := make(map[int64]bool, len(grants))
	for _, grant := range grants {
		def, ok := byID[grant.AchievementID]
		if !ok {
			// A grant for a definition no longer in the catalog.
			continue
		}
		earnedIDs[grant.AchievementID] = true
		earned = append(earned, dashboard.EarnedAchievement{
			Definition: def,
			EarnedAt:   grant.EarnedAt,
		})
	}

	next := make([]dashboard.NextAchievement, 0, len(defs)-len(earned))
	for _, def := range defs {
		if earnedIDs[def.ID] {
			continue
		}
		current, required := facts.Progress(def)
		next = append(next, dashboard.NextAchievement{
			Definition: def,
			Current:    current,
			Required:   required,
		})
	}

	return earned, next, nil
}
