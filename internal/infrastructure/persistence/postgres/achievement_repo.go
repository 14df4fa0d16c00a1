package postgres

import (
	"context"
	"fmt"

	"github.com/promptcraft/progress-engine/internal/domain/achievement"
	"github.com/promptcraft/progress-engine/internal/domain/ledger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AchievementRepository implements achievement.Repository for PostgreSQL.
type AchievementRepository struct {
	conn *Connection
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

// ListDefinitions returns the full catalog in display order.
func (r *AchievementRepository) ListDefinitions(ctx context.Context) ([]achievement.Definition, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, name, description, icon, points, criterion, threshold
		FROM achievements
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievement definitions: %w", err)
	}
	defer rows.Close()

	var defs []achievement.Definition
	for rows.Next() {
		var def achievement.Definition
		var criterion string

		err := rows.Scan(
			&def.ID,
			&def.Name,
			&def.Description,
			&def.Icon,
			&def.Points,
			&criterion,
			&def.Threshold,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement definition: %w", err)
		}

		def.Criterion = achievement.CriterionKind(criterion)
		defs = append(defs, def)
	}

	return defs, rows.Err()
}

// GetFacts gathers all criterion counters in one round trip so evaluation
// sees a consistent snapshot.
func (r *AchievementRepository) GetFacts(ctx context.Context, userID string) (achievement.Facts, error) {
	return r.GetFactsTx(ctx, r.conn, userID)
}

// GetFactsTx is GetFacts against an explicit Querier.
func (r *AchievementRepository) GetFactsTx(ctx context.Context, q Querier, userID string) (achievement.Facts, error) {
	var facts achievement.Facts

	err := q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM user_progress
				WHERE user_id = $1 AND completed_at IS NOT NULL),
			(SELECT COUNT(*) FROM practice_sessions WHERE user_id = $1),
			(SELECT COUNT(DISTINCT l.category_id)
				FROM user_progress up
				JOIN lessons l ON l.id = up.lesson_id
				WHERE up.user_id = $1 AND up.completed_at IS NOT NULL),
			(SELECT COUNT(*) FROM activity_events
				WHERE user_id = $1 AND kind = $2),
			(SELECT COUNT(*) FROM user_bookmarks WHERE user_id = $1)
	`, userID, string(ledger.KindPreviewGenerated)).Scan(
		&facts.LessonsCompleted,
		&facts.PracticeSessions,
		&facts.DistinctCategories,
		&facts.Previews,
		&facts.Bookmarks,
	)
	if err != nil {
		return achievement.Facts{}, fmt.Errorf("failed to gather achievement facts: %w", err)
	}

	return facts, nil
}

// ListEarned returns the IDs of achievements the user already holds.
func (r *AchievementRepository) ListEarned(ctx context.Context, userID string) (map[int64]bool, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT achievement_id FROM user_achievements WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list earned achievements: %w", err)
	}
	defer rows.Close()

	earned := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan earned achievement: %w", err)
		}
		earned[id] = true
	}

	return earned, rows.Err()
}

// ListEarnedWithTime returns the user's grants with timestamps, newest first.
func (r *AchievementRepository) ListEarnedWithTime(ctx context.Context, userID string) ([]achievement.Grant, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT user_id, achievement_id, earned_at
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY earned_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	defer rows.Close()

	var grants []achievement.Grant
	for rows.Next() {
		var g achievement.Grant
		if err := rows.Scan(&g.UserID, &g.AchievementID, &g.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		g.EarnedAt = g.EarnedAt.UTC()
		grants = append(grants, g)
	}

	return grants, rows.Err()
}

// GrantMissing inserts grants for the given definitions. ON CONFLICT DO
// NOTHING makes the grant idempotent under concurrent evaluation: only the
// writer that actually created a row gets it back, so each achievement is
// announced exactly once.
func (r *AchievementRepository) GrantMissing(ctx context.Context, userID string, defs []achievement.Definition) ([]achievement.Grant, error) {
	return r.GrantMissingTx(ctx, r.conn, userID, defs)
}

// GrantMissingTx is GrantMissing against an explicit Querier.
func (r *AchievementRepository) GrantMissingTx(ctx context.Context, q Querier, userID string, defs []achievement.Definition) ([]achievement.Grant, error) {
	if len(defs) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(defs))
	for i, def := range defs {
		ids[i] = def.ID
	}

	rows, err := q.Query(ctx, `
		INSERT INTO user_achievements (user_id, achievement_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT (user_id, achievement_id) DO NOTHING
		RETURNING user_id, achievement_id, earned_at
	`, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to grant achievements: %w", err)
	}
	defer rows.Close()

	var grants []achievement.Grant
	for rows.Next() {
		var g achievement.Grant
		if err := rows.Scan(&g.UserID, &g.AchievementID, &g.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		g.EarnedAt = g.EarnedAt.UTC()
		grants = append(grants, g)
	}

	return grants, rows.Err()
}

// Ensure interface is implemented
var _ achievement.Repository = (*AchievementRepository)(nil)
