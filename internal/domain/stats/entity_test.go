package stats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptcraft/progress-engine/internal/domain/shared"
)

func TestRecord_FirstSubmission(t *testing.T) {
	s := Zero("user-1")
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(80, at))

	assert.Equal(t, 1, s.TotalSessions)
	assert.InDelta(t, 80.0, s.AverageScore, 1e-9)
	assert.InDelta(t, 80.0, s.BestScore, 1e-9)
	assert.Equal(t, 1, s.TotalMinutes)
	assert.Equal(t, at, s.LastPracticedAt)
}

func TestRecord_RunningMeanMatchesNaiveMean(t *testing.T) {
	scores := []float64{72.5, 88, 91.25, 40, 100, 63.7, 0, 55.5}

	s := Zero("user-1")
	sum := 0.0
	for _, score := range scores {
		require.NoError(t, s.Record(score, time.Now()))
		sum += score
	}

	assert.Equal(t, len(scores), s.TotalSessions)
	assert.InDelta(t, sum/float64(len(scores)), s.AverageScore, 1e-9)
}

func TestRecord_BestIsMaximum(t *testing.T) {
	s := Zero("user-1")
	for _, score := range []float64{60, 95, 70, 95, 30} {
		require.NoError(t, s.Record(score, time.Now()))
	}
	assert.InDelta(t, 95.0, s.BestScore, 1e-9)
}

func TestRecord_MinutesProxy(t *testing.T) {
	s := Zero("user-1")

	// 59 truncates to 0, 60 to 1, 100 to 1.
	require.NoError(t, s.Record(59, time.Now()))
	assert.Equal(t, 0, s.TotalMinutes)
	require.NoError(t, s.Record(60, time.Now()))
	assert.Equal(t, 1, s.TotalMinutes)
	require.NoError(t, s.Record(100, time.Now()))
	assert.Equal(t, 2, s.TotalMinutes)
}

func TestRecord_RejectsOutOfRange(t *testing.T) {
	s := Zero("user-1")

	assert.ErrorIs(t, s.Record(-0.1, time.Now()), shared.ErrInvariantViolation)
	assert.ErrorIs(t, s.Record(100.1, time.Now()), shared.ErrInvariantViolation)
	assert.Equal(t, 0, s.TotalSessions)
}

func TestNewPracticeSession(t *testing.T) {
	session, err := NewPracticeSession("user-1", 7, "my answer", Assessment{
		Score:       82.5,
		Feedback:    "solid work",
		Breakdown:   json.RawMessage(`{"clarity": 40, "specificity": 42.5}`),
		Suggestions: []string{"tighten the constraints"},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), session.ChallengeID)
	assert.InDelta(t, 82.5, session.Score, 1e-9)
	assert.Equal(t, "solid work", session.Feedback)
	assert.JSONEq(t, `{"clarity": 40, "specificity": 42.5}`, string(session.Breakdown))
	assert.Equal(t, []string{"tighten the constraints"}, session.Suggestions)
	assert.False(t, session.SubmittedAt.IsZero())
}

func TestNewPracticeSession_Invalid(t *testing.T) {
	_, err := NewPracticeSession("", 7, "answer", Assessment{Score: 50})
	assert.ErrorIs(t, err, shared.ErrEmptyUserID)

	_, err = NewPracticeSession("user-1", 7, "answer", Assessment{Score: 101})
	assert.ErrorIs(t, err, shared.ErrInvariantViolation)
}
