// Package messaging provides the in-process event bus. Publishing is
// non-blocking: handlers run on a worker pool and their failures are logged,
// never propagated back to the publishing operation.
package messaging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/promptcraft/progress-engine/internal/domain/shared"
	"github.com/promptcraft/progress-engine/pkg/logger"
)

// ErrBusClosed is returned when publishing to a stopped bus.
var ErrBusClosed = errors.New("messaging: event bus is closed")

// Config holds event bus configuration.
type Config struct {
	// Workers is the number of goroutines delivering events.
	Workers int

	// QueueSize is the capacity of the pending-event buffer. Publishing to
	// a full buffer drops the event with a warning rather than blocking.
	QueueSize int

	// HandlerTimeout bounds a single handler invocation.
	HandlerTimeout time.Duration

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:        4,
		QueueSize:      256,
		HandlerTimeout: 10 * time.Second,
	}
}

// InMemoryBus is a worker-pool event bus for a single process.
type InMemoryBus struct {
	config Config
	log    *logger.Logger

	mu       sync.RWMutex
	handlers []shared.EventHandler
	closed   bool

	queue chan shared.Event
	wg    sync.WaitGroup
}

// NewInMemoryBus creates a bus and starts its workers.
func NewInMemoryBus(cfg Config) *InMemoryBus {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = def.HandlerTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	bus := &InMemoryBus{
		config: cfg,
		log:    cfg.Logger.With(logger.Component("eventbus")),
		queue:  make(chan shared.Event, cfg.QueueSize),
	}

	bus.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go bus.worker()
	}

	return bus
}

// Subscribe registers a handler. The eventTypes argument is advisory; the
// handler's CanHandle decides delivery.
func (b *InMemoryBus) Subscribe(handler shared.EventHandler, eventTypes ...shared.EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish enqueues the event for asynchronous delivery.
func (b *InMemoryBus) Publish(ctx context.Context, event shared.Event) error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrBusClosed
	}

	select {
	case b.queue <- event:
		return nil
	default:
		b.log.Warn("event queue full, dropping event",
			logger.String("event_type", string(event.Type())),
			logger.String("aggregate_id", event.AggregateID()),
		)
		return nil
	}
}

// Close stops accepting events and waits for in-flight deliveries.
func (b *InMemoryBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	close(b.queue)
	b.wg.Wait()
}

func (b *InMemoryBus) worker() {
	defer b.wg.Done()

	for event := range b.queue {
		b.dispatch(event)
	}
}

func (b *InMemoryBus) dispatch(event shared.Event) {
	b.mu.RLock()
	handlers := make([]shared.EventHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if !handler.CanHandle(event.Type()) {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), b.config.HandlerTimeout)
		if err := handler.Handle(ctx, event); err != nil {
			b.log.Error("event handler failed",
				logger.String("event_type", string(event.Type())),
				logger.String("aggregate_id", event.AggregateID()),
				logger.Err(err),
			)
		}
		cancel()
	}
}

// Ensure interface is implemented
var _ shared.EventBus = (*InMemoryBus)(nil)
