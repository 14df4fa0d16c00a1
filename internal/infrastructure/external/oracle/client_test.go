package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptcraft/progress-engine/internal/domain/shared"
	"github.com/promptcraft/progress-engine/pkg/retry"
)

func testConfig(baseURL string) ClientConfig {
	cfg := DefaultClientConfig(baseURL)
	cfg.Timeout = time.Second
	cfg.RetryConfig = retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, JitterFactor: 0}
	return cfg
}

func TestScore_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/score", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"score": 87.5,
			"feedback": "clear and specific",
			"breakdown": {"clarity": 44, "specificity": 43.5},
			"suggestions": ["state the date format", "add an example"]
		}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	result, err := client.Score(context.Background(), ScoreRequest{
		ChallengeID: 7,
		Prompt:      "Write a prompt that extracts dates",
		Response:    "my attempt",
	})

	require.NoError(t, err)
	assert.InDelta(t, 87.5, result.Score, 1e-9)
	assert.Equal(t, "clear and specific", result.Feedback)
	assert.JSONEq(t, `{"clarity": 44, "specificity": 43.5}`, string(result.Breakdown))
	assert.Equal(t, []string{"state the date format", "add an example"}, result.Suggestions)
}

func TestEvaluate_CarriesFullVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"score": 71, "feedback": "decent", "breakdown": {"clarity": 71}, "suggestions": ["be specific"]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	verdict, err := client.Evaluate(context.Background(), 3, "prompt", "response")

	require.NoError(t, err)
	assert.InDelta(t, 71.0, verdict.Score, 1e-9)
	assert.Equal(t, "decent", verdict.Feedback)
	assert.JSONEq(t, `{"clarity": 71}`, string(verdict.Breakdown))
	assert.Equal(t, []string{"be specific"}, verdict.Suggestions)
}

func TestScore_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"score": 60, "feedback": ""}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	result, err := client.Score(context.Background(), ScoreRequest{ChallengeID: 1})

	require.NoError(t, err)
	assert.InDelta(t, 60.0, result.Score, 1e-9)
	assert.Equal(t, int32(3), calls.Load())
}

func TestScore_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.Score(context.Background(), ScoreRequest{ChallengeID: 1})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrUpstreamFailure)
	assert.Equal(t, int32(1), calls.Load())
}

func TestScore_RejectsOutOfRangeScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"score": 140, "feedback": "oops"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.Score(context.Background(), ScoreRequest{ChallengeID: 1})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrUpstreamFailure)
}

func TestScore_BreakerShedsLoadWhenOracleDown(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.BreakerConfig.FailureThreshold = 2
	cfg.BreakerConfig.OpenTimeout = time.Minute
	client := NewClient(cfg)

	ctx := context.Background()
	_, err := client.Score(ctx, ScoreRequest{ChallengeID: 1})
	require.Error(t, err)
	_, err = client.Score(ctx, ScoreRequest{ChallengeID: 1})
	require.Error(t, err)

	before := calls.Load()
	_, err = client.Score(ctx, ScoreRequest{ChallengeID: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrUpstreamFailure)
	assert.Equal(t, before, calls.Load(), "open breaker must not hit the oracle")
}
