package postgres

import (
	"context"
	"fmt"

	"github.com/promptcraft/progress-engine/internal/domain/content"
	"github.com/promptcraft/progress-engine/internal/domain/dashboard"
	"github.com/promptcraft/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ContentRepository implements content.Repository plus the dashboard
// collaborator interfaces that read the catalog.
type ContentRepository struct {
	conn *Connection
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(conn *Connection) *ContentRepository {
	return &ContentRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Catalog reads
// ─────────────────────────────────────────────────────────────────────────────

// GetChallenge returns an active challenge by ID.
func (r *ContentRepository) GetChallenge(ctx context.Context, id int64) (*content.Challenge, error) {
	var c content.Challenge
	var lessonID *int64

	err := r.conn.QueryRow(ctx, `
		SELECT id, lesson_id, title, prompt, difficulty, active
		FROM challenges
		WHERE id = $1 AND active = TRUE
	`, id).Scan(&c.ID, &lessonID, &c.Title, &c.Prompt, &c.Difficulty, &c.Active)
	if IsNoRows(err) {
		return nil, shared.ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	if lessonID != nil {
		c.LessonID = *lessonID
	}
	return &c, nil
}

// GetLesson returns a published lesson by ID.
func (r *ContentRepository) GetLesson(ctx context.Context, id int64) (*content.Lesson, error) {
	var l content.Lesson

	err := r.conn.QueryRow(ctx, `
		SELECT id, category_id, title, summary, display_order, published
		FROM lessons
		WHERE id = $1 AND published = TRUE
	`, id).Scan(&l.ID, &l.CategoryID, &l.Title, &l.Summary, &l.Order, &l.Published)
	if IsNoRows(err) {
		return nil, shared.ErrLessonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	return &l, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Progress and bookmarks
// ─────────────────────────────────────────────────────────────────────────────

// UpsertProgress advances progress on a lesson. GREATEST keeps progress
// monotonic, started_at survives the upsert untouched, and completed_at is
// stamped only on the transition past 100.
func (r *ContentRepository) UpsertProgress(ctx context.Context, userID string, lessonID int64, progress int) (*content.UserProgress, bool, error) {
	var p content.UserProgress
	var wasCompleted bool

	err := r.conn.QueryRow(ctx, `
		WITH old AS (
			SELECT completed_at FROM user_progress
			WHERE user_id = $1 AND lesson_id = $2
		)
		INSERT INTO user_progress (user_id, lesson_id, progress, completed_at, updated_at)
		VALUES ($1, $2, $3, CASE WHEN $3 >= 100 THEN NOW() END, NOW())
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET
			progress = GREATEST(user_progress.progress, EXCLUDED.progress),
			completed_at = COALESCE(
				user_progress.completed_at,
				CASE WHEN EXCLUDED.progress >= 100 THEN NOW() END
			),
			updated_at = NOW()
		RETURNING user_id, lesson_id, progress, started_at, completed_at, updated_at,
			COALESCE((SELECT completed_at IS NOT NULL FROM old), FALSE)
	`, userID, lessonID, progress).Scan(
		&p.UserID,
		&p.LessonID,
		&p.Progress,
		&p.StartedAt,
		&p.CompletedAt,
		&p.UpdatedAt,
		&wasCompleted,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, false, shared.ErrLessonNotFound
		}
		return nil, false, fmt.Errorf("failed to upsert progress: %w", err)
	}

	justCompleted := p.CompletedAt != nil && !wasCompleted
	return &p, justCompleted, nil
}

// ToggleBookmark flips the bookmark and reports the new state.
func (r *ContentRepository) ToggleBookmark(ctx context.Context, userID string, lessonID int64) (bool, error) {
	tag, err := r.conn.Exec(ctx, `
		DELETE FROM user_bookmarks WHERE user_id = $1 AND lesson_id = $2
	`, userID, lessonID)
	if err != nil {
		return false, fmt.Errorf("failed to remove bookmark: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = r.conn.Exec(ctx, `
		INSERT INTO user_bookmarks (user_id, lesson_id) VALUES ($1, $2)
		ON CONFLICT (user_id, lesson_id) DO NOTHING
	`, userID, lessonID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return false, shared.ErrLessonNotFound
		}
		return false, fmt.Errorf("failed to add bookmark: %w", err)
	}

	return true, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Dashboard collaborators
// ─────────────────────────────────────────────────────────────────────────────

// CategoryProgress returns per-category completion rollups, every published
// category included even with zero progress.
func (r *ContentRepository) CategoryProgress(ctx context.Context, userID string) ([]dashboard.CategoryProgress, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT
			c.id,
			c.name,
			COUNT(up.lesson_id) FILTER (WHERE up.completed_at IS NOT NULL) AS completed,
			COUNT(l.id) AS total
		FROM categories c
		JOIN lessons l ON l.category_id = c.id AND l.published = TRUE
		LEFT JOIN user_progress up ON up.lesson_id = l.id AND up.user_id = $1
		GROUP BY c.id, c.name, c.display_order
		ORDER BY c.display_order, c.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category progress: %w", err)
	}
	defer rows.Close()

	var result []dashboard.CategoryProgress
	for rows.Next() {
		var cp dashboard.CategoryProgress
		if err := rows.Scan(&cp.CategoryID, &cp.Name, &cp.Completed, &cp.Total); err != nil {
			return nil, fmt.Errorf("failed to scan category progress: %w", err)
		}
		if cp.Total > 0 {
			cp.Percent = float64(cp.Completed) / float64(cp.Total) * 100
		}
		result = append(result, cp)
	}

	return result, rows.Err()
}

// Recommend suggests published lessons the user has not completed, in
// catalog order, lessons already in progress first.
func (r *ContentRepository) Recommend(ctx context.Context, userID string, limit int) ([]dashboard.Recommendation, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT l.id, l.title, c.name,
			CASE WHEN up.user_id IS NOT NULL THEN 'continue' ELSE 'new' END AS reason
		FROM lessons l
		JOIN categories c ON c.id = l.category_id
		LEFT JOIN user_progress up ON up.lesson_id = l.id AND up.user_id = $1
		WHERE l.published = TRUE
			AND (up.completed_at IS NULL)
		ORDER BY (up.user_id IS NULL), c.display_order, l.display_order, l.id
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []dashboard.Recommendation
	for rows.Next() {
		var rec dashboard.Recommendation
		var reason string
		if err := rows.Scan(&rec.LessonID, &rec.Title, &rec.Category, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		switch reason {
		case "continue":
			rec.Reason = "Pick up where you left off"
		default:
			rec.Reason = "New lesson in " + rec.Category
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Recent activity feed sources
// ─────────────────────────────────────────────────────────────────────────────

// RecentLessonActivity returns recent progress updates as feed items.
func (r *ContentRepository) RecentLessonActivity(ctx context.Context, userID string, limit int) ([]dashboard.ActivityItem, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT l.id, l.title, up.progress, up.completed_at IS NOT NULL, up.updated_at
		FROM user_progress up
		JOIN lessons l ON l.id = up.lesson_id
		WHERE up.user_id = $1
		ORDER BY up.updated_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent lesson activity: %w", err)
	}
	defer rows.Close()

	var items []dashboard.ActivityItem
	for rows.Next() {
		var item dashboard.ActivityItem
		var progress int
		var completed bool

		if err := rows.Scan(&item.SubjectID, &item.Title, &progress, &completed, &item.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan lesson activity: %w", err)
		}

		item.Kind = "lesson"
		if completed {
			item.Detail = "Completed"
		} else {
			item.Detail = fmt.Sprintf("%d%% complete", progress)
		}
		item.OccurredAt = item.OccurredAt.UTC()
		items = append(items, item)
	}

	return items, rows.Err()
}

// RecentPracticeActivity returns recent scored submissions as feed items.
func (r *ContentRepository) RecentPracticeActivity(ctx context.Context, userID string, limit int) ([]dashboard.ActivityItem, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT ch.id, ch.title, ps.score, ps.submitted_at
		FROM practice_sessions ps
		JOIN challenges ch ON ch.id = ps.challenge_id
		WHERE ps.user_id = $1
		ORDER BY ps.submitted_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent practice activity: %w", err)
	}
	defer rows.Close()

	var items []dashboard.ActivityItem
	for rows.Next() {
		var item dashboard.ActivityItem
		var score float64

		if err := rows.Scan(&item.SubjectID, &item.Title, &score, &item.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan practice activity: %w", err)
		}

		item.Kind = "practice"
		item.Detail = fmt.Sprintf("Scored %.1f", score)
		item.OccurredAt = item.OccurredAt.UTC()
		items = append(items, item)
	}

	return items, rows.Err()
}

// RecentBookmarkActivity returns recent bookmarks as feed items.
func (r *ContentRepository) RecentBookmarkActivity(ctx context.Context, userID string, limit int) ([]dashboard.ActivityItem, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT l.id, l.title, ub.created_at
		FROM user_bookmarks ub
		JOIN lessons l ON l.id = ub.lesson_id
		WHERE ub.user_id = $1
		ORDER BY ub.created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent bookmark activity: %w", err)
	}
	defer rows.Close()

	var items []dashboard.ActivityItem
	for rows.Next() {
		var item dashboard.ActivityItem

		if err := rows.Scan(&item.SubjectID, &item.Title, &item.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark activity: %w", err)
		}

		item.Kind = "bookmark"
		item.Detail = "Bookmarked"
		item.OccurredAt = item.OccurredAt.UTC()
		items = append(items, item)
	}

	return items, rows.Err()
}

// Ensure interfaces are implemented
var (
	_ content.Repository                 = (*ContentRepository)(nil)
	_ dashboard.CategoryProgressProvider = (*ContentRepository)(nil)
	_ dashboard.Recommender              = (*ContentRepository)(nil)
)
