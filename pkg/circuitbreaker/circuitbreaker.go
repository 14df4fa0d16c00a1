// Package circuitbreaker implements the circuit breaker pattern for fault
// tolerance around external services (the scoring oracle).
// No external dependencies - uses only standard library.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the current state of the circuit breaker.
type State int

const (
	// StateClosed is the normal state - requests are allowed through.
	StateClosed State = iota
	// StateOpen is the failure state - requests are blocked.
	StateOpen
	// StateHalfOpen is the recovery state - limited probe requests allowed.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrOpen is returned when the circuit is open and requests are blocked.
	ErrOpen = errors.New("circuitbreaker: circuit is open")

	// ErrTooManyProbes is returned when the half-open probe budget is spent.
	ErrTooManyProbes = errors.New("circuitbreaker: too many requests in half-open state")
)

// Config holds circuit breaker configuration.
type Config struct {
	// Name identifies this breaker in logs and state-change callbacks.
	Name string

	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold int

	// SuccessThreshold is the number of successful probes before closing.
	SuccessThreshold int

	// OpenTimeout is how long to stay open before allowing probes.
	OpenTimeout time.Duration

	// MaxProbes is the number of concurrent requests allowed while half-open.
	MaxProbes int

	// OnStateChange is called when the state changes.
	OnStateChange func(name string, from, to State)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
		MaxProbes:        1,
	}
}

// Breaker is a circuit breaker.
type Breaker struct {
	config Config

	mu           sync.Mutex
	state        State
	failures     int
	successes    int
	activeProbes int
	openedAt     time.Time
}

// New creates a Breaker from the given config, filling in zero values.
func New(cfg Config) *Breaker {
	def := DefaultConfig(cfg.Name)
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if cfg.MaxProbes <= 0 {
		cfg.MaxProbes = def.MaxProbes
	}
	return &Breaker{config: cfg, state: StateClosed}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

// currentState resolves open->half-open transitions by timeout.
// Caller must hold b.mu.
func (b *Breaker) currentState() State {
	if b.state == StateOpen && time.Since(b.openedAt) >= b.config.OpenTimeout {
		b.transition(StateHalfOpen)
	}
	return b.state
}

// transition changes state and resets counters. Caller must hold b.mu.
func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.failures = 0
	b.successes = 0
	b.activeProbes = 0
	if to == StateOpen {
		b.openedAt = time.Now()
	}
	if b.config.OnStateChange != nil {
		b.config.OnStateChange(b.config.Name, from, to)
	}
}

// Execute runs the operation if the circuit allows it.
func (b *Breaker) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	if err := b.before(); err != nil {
		return err
	}

	err := operation(ctx)
	b.after(err)
	return err
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentState() {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		if b.activeProbes >= b.config.MaxProbes {
			return ErrTooManyProbes
		}
		b.activeProbes++
	}
	return nil
}

func (b *Breaker) after(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if err != nil {
			b.failures++
			if b.failures >= b.config.FailureThreshold {
				b.transition(StateOpen)
			}
		} else {
			b.failures = 0
		}
	case StateHalfOpen:
		if b.activeProbes > 0 {
			b.activeProbes--
		}
		if err != nil {
			b.transition(StateOpen)
			return
		}
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transition(StateClosed)
		}
	}
}
