package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/promptcraft/progress-engine/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// RecordScore applies the high-water mark rule in a single statement. The
// conditional upsert only rewrites the row when the new score strictly beats
// the stored one, so achieved_at always records when the best was reached
// and concurrent submissions converge on the maximum.
func (r *LeaderboardRepository) RecordScore(ctx context.Context, entry leaderboard.Entry) (bool, float64, error) {
	return r.RecordScoreTx(ctx, r.conn, entry)
}

// RecordScoreTx is RecordScore against an explicit Querier.
func (r *LeaderboardRepository) RecordScoreTx(ctx context.Context, q Querier, entry leaderboard.Entry) (bool, float64, error) {
	var improved bool
	var previous float64

	err := q.QueryRow(ctx, `
		WITH old AS (
			SELECT score FROM leaderboard_entries
			WHERE user_id = $1 AND challenge_id = $2
		), upserted AS (
			INSERT INTO leaderboard_entries (user_id, challenge_id, score, achieved_at, session_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, challenge_id) DO UPDATE SET
				score = EXCLUDED.score,
				achieved_at = EXCLUDED.achieved_at,
				session_id = EXCLUDED.session_id
			WHERE EXCLUDED.score > leaderboard_entries.score
			RETURNING score
		)
		SELECT EXISTS (SELECT 1 FROM upserted), COALESCE((SELECT score FROM old), 0)
	`, entry.UserID, entry.ChallengeID, entry.Score, entry.AchievedAt, entry.SessionID).Scan(&improved, &previous)
	if err != nil {
		return false, 0, fmt.Errorf("failed to record leaderboard score: %w", err)
	}

	return improved, previous, nil
}

// TopN returns the board for a challenge ordered by rank. A limit of zero
// returns the whole board.
func (r *LeaderboardRepository) TopN(ctx context.Context, challengeID int64, limit int) ([]leaderboard.RankedEntry, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT
			ROW_NUMBER() OVER (ORDER BY score DESC, achieved_at ASC) AS rank,
			user_id, challenge_id, score, achieved_at, session_id
		FROM leaderboard_entries
		WHERE challenge_id = $1
		ORDER BY rank
		LIMIT NULLIF($2, 0)
	`, challengeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	return scanRankedEntries(rows)
}

// UserRank returns the user's ranked entry for a challenge, or nil when the
// user has no entry.
func (r *LeaderboardRepository) UserRank(ctx context.Context, challengeID int64, userID string) (*leaderboard.RankedEntry, error) {
	var entry leaderboard.RankedEntry

	err := r.conn.QueryRow(ctx, `
		SELECT rank, user_id, challenge_id, score, achieved_at, session_id
		FROM (
			SELECT
				ROW_NUMBER() OVER (ORDER BY score DESC, achieved_at ASC) AS rank,
				user_id, challenge_id, score, achieved_at, session_id
			FROM leaderboard_entries
			WHERE challenge_id = $1
		) ranked
		WHERE user_id = $2
	`, challengeID, userID).Scan(
		&entry.Rank,
		&entry.UserID,
		&entry.ChallengeID,
		&entry.Score,
		&entry.AchievedAt,
		&entry.SessionID,
	)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user rank: %w", err)
	}

	entry.AchievedAt = entry.AchievedAt.UTC()
	return &entry, nil
}

// ChallengeIDs lists the challenges that currently have entries.
func (r *LeaderboardRepository) ChallengeIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT DISTINCT challenge_id FROM leaderboard_entries ORDER BY challenge_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenge ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan challenge id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// scanRankedEntries scans ranked entries from rows.
func scanRankedEntries(rows pgx.Rows) ([]leaderboard.RankedEntry, error) {
	var entries []leaderboard.RankedEntry

	for rows.Next() {
		var entry leaderboard.RankedEntry
		err := rows.Scan(
			&entry.Rank,
			&entry.UserID,
			&entry.ChallengeID,
			&entry.Score,
			&entry.AchievedAt,
			&entry.SessionID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entry.AchievedAt = entry.AchievedAt.UTC()
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}

// Ensure interface is implemented
var _ leaderboard.Repository = (*LeaderboardRepository)(nil)
