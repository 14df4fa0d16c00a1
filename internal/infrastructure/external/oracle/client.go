// Package oracle implements the client for the external scoring service.
// Every practice submission is sent here for evaluation before anything is
// persisted; a failed or timed-out call aborts the whole submission.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/promptcraft/progress-engine/internal/domain/shared"
	"github.com/promptcraft/progress-engine/internal/domain/stats"
	"github.com/promptcraft/progress-engine/pkg/circuitbreaker"
	"github.com/promptcraft/progress-engine/pkg/logger"
	"github.com/promptcraft/progress-engine/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the scoring oracle client.
type ClientConfig struct {
	// BaseURL is the oracle API base URL.
	BaseURL string

	// APIKey authenticates the engine against the oracle.
	APIKey string

	// Timeout is the HTTP request timeout per attempt.
	Timeout time.Duration

	// RetryConfig governs transient-failure retries.
	RetryConfig retry.Config

	// BreakerConfig governs the circuit breaker around the oracle.
	BreakerConfig circuitbreaker.Config

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:       baseURL,
		Timeout:       15 * time.Second,
		RetryConfig:   retry.DefaultConfig(),
		BreakerConfig: circuitbreaker.DefaultConfig("oracle"),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Scorer evaluates a submission against a challenge prompt.
type Scorer interface {
	Score(ctx context.Context, req ScoreRequest) (*ScoreResult, error)
}

// ScoreRequest is the payload sent to the oracle.
type ScoreRequest struct {
	ChallengeID int64  `json:"challenge_id"`
	Prompt      string `json:"prompt"`
	Response    string `json:"response"`
}

// ScoreResult is the oracle's verdict. Breakdown is the per-criterion
// scoring detail, passed through unparsed.
type ScoreResult struct {
	Score       float64         `json:"score"`
	Feedback    string          `json:"feedback"`
	Breakdown   json.RawMessage `json:"breakdown,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
}

// Client talks to the scoring oracle over HTTP with retries and a circuit
// breaker. The breaker sheds load fast when the oracle is down instead of
// letting every submission wait out the full retry schedule.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	retrier    *retry.Retrier
	breaker    *circuitbreaker.Breaker
	log        *logger.Logger
}

// NewClient creates a new oracle client.
func NewClient(cfg ClientConfig) *Client {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Component("oracle"))

	cfg.BreakerConfig.OnStateChange = func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	}

	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retrier:    retry.New(cfg.RetryConfig),
		breaker:    circuitbreaker.New(cfg.BreakerConfig),
		log:        log,
	}
}

// Score evaluates a submission. The returned error always unwraps to
// shared.ErrUpstreamFailure so callers can abort without persisting.
func (c *Client) Score(ctx context.Context, req ScoreRequest) (*ScoreResult, error) {
	start := time.Now()

	var result *ScoreResult
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var retryErr error
		result, retryErr = retry.DoWithData(ctx, c.retrier, func(ctx context.Context) (*ScoreResult, error) {
			return c.doScore(ctx, req)
		})
		return retryErr
	})
	if err != nil {
		c.log.Error("scoring failed",
			logger.ChallengeID(req.ChallengeID),
			logger.Latency(time.Since(start)),
			logger.Err(err),
		)
		return nil, shared.WrapError("oracle", "Score", shared.ErrUpstreamFailure,
			"scoring request failed", err)
	}

	c.log.Debug("submission scored",
		logger.ChallengeID(req.ChallengeID),
		logger.Score(result.Score),
		logger.Latency(time.Since(start)),
	)
	return result, nil
}

// doScore performs one HTTP attempt.
func (c *Client) doScore(ctx context.Context, req ScoreRequest) (*ScoreResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/v1/score", bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	default:
		// Client errors will not succeed on retry.
		return nil, retry.Permanent(fmt.Errorf("oracle rejected request with status %d: %s",
			resp.StatusCode, string(respBody)))
	}

	var result ScoreResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, retry.Permanent(fmt.Errorf("parse response: %w", err))
	}

	if result.Score < 0 || result.Score > 100 {
		return nil, retry.Permanent(fmt.Errorf("oracle returned score %.2f outside [0,100]", result.Score))
	}

	return &result, nil
}

// Evaluate scores a single response against a challenge prompt. It adapts
// Score to the assessment shape the application layer's port expects.
func (c *Client) Evaluate(ctx context.Context, challengeID int64, prompt, response string) (*stats.Assessment, error) {
	result, err := c.Score(ctx, ScoreRequest{
		ChallengeID: challengeID,
		Prompt:      prompt,
		Response:    response,
	})
	if err != nil {
		return nil, err
	}
	return &stats.Assessment{
		Score:       result.Score,
		Feedback:    result.Feedback,
		Breakdown:   result.Breakdown,
		Suggestions: result.Suggestions,
	}, nil
}

// Ensure interface is implemented
var _ Scorer = (*Client)(nil)
