package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptcraft/progress-engine/internal/application/command"
	"github.com/promptcraft/progress-engine/internal/application/query"
	"github.com/promptcraft/progress-engine/internal/domain/leaderboard"
	"github.com/promptcraft/progress-engine/internal/domain/ledger"
	"github.com/promptcraft/progress-engine/internal/domain/stats"
	"github.com/promptcraft/progress-engine/pkg/logger"
)

type fakeHealth struct {
	err error
}

func (f *fakeHealth) Healthy(ctx context.Context) error { return f.err }

type fakeStatsRepo struct {
	aggregate *stats.PracticeStats
}

func (f *fakeStatsRepo) Get(ctx context.Context, userID string) (*stats.PracticeStats, error) {
	if f.aggregate != nil {
		return f.aggregate, nil
	}
	return stats.Zero(userID), nil
}

func (f *fakeStatsRepo) RecordScore(ctx context.Context, userID string, score float64, at time.Time) (*stats.PracticeStats, error) {
	return nil, nil
}

func (f *fakeStatsRepo) SaveSession(ctx context.Context, session *stats.PracticeSession) error {
	return nil
}

func (f *fakeStatsRepo) ListSessions(ctx context.Context, userID string, limit int) ([]*stats.PracticeSession, error) {
	return nil, nil
}

func (f *fakeStatsRepo) ChallengeAnalytics(ctx context.Context, userID string, challengeID int64) (*stats.ChallengeAnalytics, error) {
	return &stats.ChallengeAnalytics{UserID: userID, ChallengeID: challengeID, Attempts: 2, BestScore: 90}, nil
}

type fakeBoardRepo struct {
	entries []leaderboard.Entry
}

func (f *fakeBoardRepo) RecordScore(ctx context.Context, entry leaderboard.Entry) (bool, float64, error) {
	return false, 0, nil
}

func (f *fakeBoardRepo) TopN(ctx context.Context, challengeID int64, limit int) ([]leaderboard.RankedEntry, error) {
	ranked := leaderboard.Rank(f.entries)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (f *fakeBoardRepo) UserRank(ctx context.Context, challengeID int64, userID string) (*leaderboard.RankedEntry, error) {
	return nil, nil
}

func (f *fakeBoardRepo) ChallengeIDs(ctx context.Context) ([]int64, error) {
	return nil, nil
}

type fakeLedgerRepo struct {
	events []*ledger.ActivityEvent
}

func (f *fakeLedgerRepo) Append(ctx context.Context, event *ledger.ActivityEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeLedgerRepo) ListRecent(ctx context.Context, userID string, limit int) ([]*ledger.ActivityEvent, error) {
	return f.events, nil
}

func (f *fakeLedgerRepo) ActivityDates(ctx context.Context, userID string, windowDays int) ([]time.Time, error) {
	return nil, nil
}

func testServer(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}
	return NewServer(DefaultConfig(), deps)
}

func TestHealth(t *testing.T) {
	srv := testServer(Dependencies{Health: &fakeHealth{}})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	srv = testServer(Dependencies{Health: &fakeHealth{err: errors.New("pool exhausted")}})
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestGetStatsRoute(t *testing.T) {
	srv := testServer(Dependencies{
		GetStats: query.NewGetStatsHandler(&fakeStatsRepo{aggregate: &stats.PracticeStats{
			UserID: "user-1", TotalSessions: 4, AverageScore: 81.25, BestScore: 95,
		}}),
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/user-1/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "81.25")
}

func TestChallengeAnalyticsRoute(t *testing.T) {
	srv := testServer(Dependencies{
		Analytics: query.NewChallengeAnalyticsHandler(&fakeStatsRepo{}),
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/user-1/challenges/7/analytics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"attempts":2`)
}

func TestLeaderboardRoute(t *testing.T) {
	now := time.Now().UTC()
	srv := testServer(Dependencies{
		GetLeaderboard: query.NewGetLeaderboardHandler(&fakeBoardRepo{entries: []leaderboard.Entry{
			{UserID: "a", ChallengeID: 9, Score: 88, AchievedAt: now},
			{UserID: "b", ChallengeID: 9, Score: 92, AchievedAt: now},
		}}, nil, logger.Default()),
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/challenges/9/leaderboard?limit=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"b"`)
	assert.NotContains(t, body, `"a"`)
}

func TestLeaderboardRoute_BadChallengeID(t *testing.T) {
	srv := testServer(Dependencies{
		GetLeaderboard: query.NewGetLeaderboardHandler(&fakeBoardRepo{}, nil, logger.Default()),
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/challenges/abc/leaderboard", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordActivityRoute(t *testing.T) {
	ledgerRepo := &fakeLedgerRepo{}
	srv := testServer(Dependencies{
		RecordActivity: command.NewRecordActivityHandler(ledgerRepo, nil, logger.Default()),
	})

	body := `{"user_id":"user-1","kind":"preview_generated","subject_id":4}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/activity", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, ledgerRepo.events, 1)
	assert.Equal(t, ledger.KindPreviewGenerated, ledgerRepo.events[0].Kind)
}

func TestRecordActivityRoute_InvalidKind(t *testing.T) {
	srv := testServer(Dependencies{
		RecordActivity: command.NewRecordActivityHandler(&fakeLedgerRepo{}, nil, logger.Default()),
	})

	body := `{"user_id":"user-1","kind":"teleported"}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/activity", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_input")
}

func TestRecordActivityRoute_RejectsChainOwnedKind(t *testing.T) {
	ledgerRepo := &fakeLedgerRepo{}
	srv := testServer(Dependencies{
		RecordActivity: command.NewRecordActivityHandler(ledgerRepo, nil, logger.Default()),
	})

	// Completions only enter the ledger through the progress chain; the
	// generic endpoint must not offer a way to inflate streaks.
	body := `{"user_id":"user-1","kind":"lesson_completed","subject_id":3}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/activity", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot be recorded directly")
	assert.Empty(t, ledgerRepo.events)
}

func TestUnknownFieldRejected(t *testing.T) {
	srv := testServer(Dependencies{
		RecordActivity: command.NewRecordActivityHandler(&fakeLedgerRepo{}, nil, logger.Default()),
	})

	body := `{"user_id":"user-1","kind":"engagement_ping","bogus":true}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/activity", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
