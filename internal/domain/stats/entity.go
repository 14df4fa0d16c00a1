// Package stats maintains per-user practice aggregates. Aggregates are
// updated incrementally on every scored submission rather than recomputed
// from the session history.
package stats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/promptcraft/progress-engine/internal/domain/shared"
)

// PracticeStats is the per-user aggregate over all scored submissions.
type PracticeStats struct {
	// UserID owns the aggregate. One row per user.
	UserID string

	// TotalSessions is the number of scored submissions recorded.
	TotalSessions int

	// AverageScore is the running mean over all submissions.
	AverageScore float64

	// BestScore is the maximum score ever recorded.
	BestScore float64

	// TotalMinutes approximates practice time. Each submission contributes
	// its score divided by 60, truncated. Kept for parity with historical
	// data until real session durations are tracked.
	TotalMinutes int

	// LastPracticedAt is when the most recent submission was recorded.
	LastPracticedAt time.Time
}

// Zero returns the empty aggregate for a user with no submissions.
// Reads never fail for unknown users.
func Zero(userID string) *PracticeStats {
	return &PracticeStats{UserID: userID}
}

// Record folds one scored submission into the aggregate.
// The running mean update is exact: (avg*n + score) / (n+1).
func (s *PracticeStats) Record(score float64, at time.Time) error {
	if score < 0 || score > 100 {
		return shared.ErrScoreOutOfRange
	}

	n := float64(s.TotalSessions)
	s.AverageScore = (s.AverageScore*n + score) / (n + 1)
	s.TotalSessions++
	if score > s.BestScore {
		s.BestScore = score
	}
	s.TotalMinutes += int(score) / 60
	s.LastPracticedAt = at.UTC()
	return nil
}

// Assessment is the scoring verdict on one submission. Only the score is
// interpreted here; the feedback, per-criterion breakdown and suggestions
// are stored as the scorer produced them.
type Assessment struct {
	Score       float64
	Feedback    string
	Breakdown   json.RawMessage
	Suggestions []string
}

// PracticeSession is one scored submission against a challenge.
type PracticeSession struct {
	ID          uuid.UUID
	UserID      string
	ChallengeID int64
	Response    string
	Score       float64
	Feedback    string
	Breakdown   json.RawMessage
	Suggestions []string
	SubmittedAt time.Time
}

// NewPracticeSession creates a session record for a scored submission.
func NewPracticeSession(userID string, challengeID int64, response string, verdict Assessment) (*PracticeSession, error) {
	if userID == "" {
		return nil, shared.WrapError("stats", "NewPracticeSession", shared.ErrInvariantViolation,
			"invalid session", shared.ErrEmptyUserID)
	}
	if verdict.Score < 0 || verdict.Score > 100 {
		return nil, shared.ErrScoreOutOfRange
	}
	return &PracticeSession{
		ID:          uuid.New(),
		UserID:      userID,
		ChallengeID: challengeID,
		Response:    response,
		Score:       verdict.Score,
		Feedback:    verdict.Feedback,
		Breakdown:   verdict.Breakdown,
		Suggestions: verdict.Suggestions,
		SubmittedAt: time.Now().UTC(),
	}, nil
}

// ScorePoint is one scored attempt on the time axis.
type ScorePoint struct {
	Score float64   `json:"score"`
	At    time.Time `json:"at"`
}

// ChallengeAnalytics summarizes one user's history on one challenge.
// Zero-valued when the user never attempted the challenge.
type ChallengeAnalytics struct {
	UserID         string       `json:"user_id"`
	ChallengeID    int64        `json:"challenge_id"`
	Attempts       int          `json:"attempts"`
	AverageScore   float64      `json:"average_score"`
	BestScore      float64      `json:"best_score"`
	FirstAttemptAt time.Time    `json:"first_attempt_at"`
	LastAttemptAt  time.Time    `json:"last_attempt_at"`
	Scores         []ScorePoint `json:"scores"`
}

// Repository persists practice aggregates and sessions.
type Repository interface {
	// Get returns the aggregate for a user, or the zero aggregate if none
	// exists yet.
	Get(ctx context.Context, userID string) (*PracticeStats, error)

	// RecordScore atomically folds a score into the user's aggregate,
	// creating the row on first submission. Concurrent calls for the same
	// user must not lose updates.
	RecordScore(ctx context.Context, userID string, score float64, at time.Time) (*PracticeStats, error)

	// SaveSession stores a scored submission.
	SaveSession(ctx context.Context, session *PracticeSession) error

	// ListSessions returns the newest sessions for a user, up to limit.
	ListSessions(ctx context.Context, userID string, limit int) ([]*PracticeSession, error)

	// ChallengeAnalytics summarizes the user's attempts on one challenge,
	// zero-valued when there are none.
	ChallengeAnalytics(ctx context.Context, userID string, challengeID int64) (*ChallengeAnalytics, error)
}
