package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/promptcraft/progress-engine/internal/domain/shared"
	"github.com/promptcraft/progress-engine/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StatsRepository implements stats.Repository for PostgreSQL.
type StatsRepository struct {
	conn *Connection
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(conn *Connection) *StatsRepository {
	return &StatsRepository{conn: conn}
}

// Get returns the aggregate for a user. Unknown users get the zero
// aggregate, never an error.
func (r *StatsRepository) Get(ctx context.Context, userID string) (*stats.PracticeStats, error) {
	s := stats.Zero(userID)
	var lastPracticed *time.Time

	err := r.conn.QueryRow(ctx, `
		SELECT total_sessions, average_score, best_score, total_minutes, last_practiced_at
		FROM practice_stats
		WHERE user_id = $1
	`, userID).Scan(
		&s.TotalSessions,
		&s.AverageScore,
		&s.BestScore,
		&s.TotalMinutes,
		&lastPracticed,
	)
	if IsNoRows(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get practice stats: %w", err)
	}

	if lastPracticed != nil {
		s.LastPracticedAt = lastPracticed.UTC()
	}
	return s, nil
}

// RecordScore folds one score into the aggregate in a single statement.
// The running mean reads the stored row inside the UPDATE, so concurrent
// submissions serialize on the row lock and no update is lost.
func (r *StatsRepository) RecordScore(ctx context.Context, userID string, score float64, at time.Time) (*stats.PracticeStats, error) {
	return r.RecordScoreTx(ctx, r.conn, userID, score, at)
}

// RecordScoreTx is RecordScore against an explicit Querier. The score range
// is checked here too, so no caller can fold an invalid score into the
// aggregate.
func (r *StatsRepository) RecordScoreTx(ctx context.Context, q Querier, userID string, score float64, at time.Time) (*stats.PracticeStats, error) {
	if score < 0 || score > 100 {
		return nil, shared.ErrScoreOutOfRange
	}

	s := stats.Zero(userID)
	var lastPracticed *time.Time

	err := q.QueryRow(ctx, `
		INSERT INTO practice_stats (user_id, total_sessions, average_score, best_score, total_minutes, last_practiced_at)
		VALUES ($1, 1, $2, $2, FLOOR($2 / 60)::int, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			average_score = (practice_stats.average_score * practice_stats.total_sessions + EXCLUDED.average_score)
				/ (practice_stats.total_sessions + 1),
			total_sessions = practice_stats.total_sessions + 1,
			best_score = GREATEST(practice_stats.best_score, EXCLUDED.best_score),
			total_minutes = practice_stats.total_minutes + FLOOR(EXCLUDED.average_score / 60)::int,
			last_practiced_at = EXCLUDED.last_practiced_at
		RETURNING total_sessions, average_score, best_score, total_minutes, last_practiced_at
	`, userID, score, at).Scan(
		&s.TotalSessions,
		&s.AverageScore,
		&s.BestScore,
		&s.TotalMinutes,
		&lastPracticed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record score: %w", err)
	}

	if lastPracticed != nil {
		s.LastPracticedAt = lastPracticed.UTC()
	}
	return s, nil
}

// SaveSession stores a scored submission.
func (r *StatsRepository) SaveSession(ctx context.Context, session *stats.PracticeSession) error {
	return r.SaveSessionTx(ctx, r.conn, session)
}

// SaveSessionTx is SaveSession against an explicit Querier.
func (r *StatsRepository) SaveSessionTx(ctx context.Context, q Querier, session *stats.PracticeSession) error {
	_, err := q.Exec(ctx, `
		INSERT INTO practice_sessions (id, user_id, challenge_id, response, score, feedback, breakdown, suggestions, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		session.ID,
		session.UserID,
		session.ChallengeID,
		session.Response,
		session.Score,
		session.Feedback,
		session.Breakdown,
		session.Suggestions,
		session.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save practice session: %w", err)
	}

	return nil
}

// ListSessions returns the newest sessions for a user.
func (r *StatsRepository) ListSessions(ctx context.Context, userID string, limit int) ([]*stats.PracticeSession, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, user_id, challenge_id, response, score, feedback, breakdown, suggestions, submitted_at
		FROM practice_sessions
		WHERE user_id = $1
		ORDER BY submitted_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list practice sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*stats.PracticeSession
	for rows.Next() {
		var session stats.PracticeSession
		err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.ChallengeID,
			&session.Response,
			&session.Score,
			&session.Feedback,
			&session.Breakdown,
			&session.Suggestions,
			&session.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan practice session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	return sessions, rows.Err()
}

// ChallengeAnalytics summarizes one user's attempts on one challenge. The
// aggregate row and the score series come from the same session table, so
// they cannot disagree.
func (r *StatsRepository) ChallengeAnalytics(ctx context.Context, userID string, challengeID int64) (*stats.ChallengeAnalytics, error) {
	a := &stats.ChallengeAnalytics{UserID: userID, ChallengeID: challengeID}
	var first, last *time.Time
	var avg, best *float64

	err := r.conn.QueryRow(ctx, `
		SELECT COUNT(*), AVG(score), MAX(score), MIN(submitted_at), MAX(submitted_at)
		FROM practice_sessions
		WHERE user_id = $1 AND challenge_id = $2
	`, userID, challengeID).Scan(&a.Attempts, &avg, &best, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate challenge analytics: %w", err)
	}
	if a.Attempts == 0 {
		return a, nil
	}

	a.AverageScore = *avg
	a.BestScore = *best
	a.FirstAttemptAt = first.UTC()
	a.LastAttemptAt = last.UTC()

	rows, err := r.conn.Query(ctx, `
		SELECT score, submitted_at
		FROM practice_sessions
		WHERE user_id = $1 AND challenge_id = $2
		ORDER BY submitted_at ASC
	`, userID, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query score series: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p stats.ScorePoint
		if err := rows.Scan(&p.Score, &p.At); err != nil {
			return nil, fmt.Errorf("failed to scan score point: %w", err)
		}
		p.At = p.At.UTC()
		a.Scores = append(a.Scores, p)
	}

	return a, rows.Err()
}

// Ensure interface is implemented
var _ stats.Repository = (*StatsRepository)(nil)
