package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptcraft/progress-engine/internal/domain/shared"
)

type recordingHandler struct {
	mu       sync.Mutex
	accepts  shared.EventType
	received []shared.Event
	fail     bool
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.received = append(h.received, event)
	if h.fail {
		return errors.New("handler failure")
	}
	return nil
}

func (h *recordingHandler) CanHandle(eventType shared.EventType) bool {
	return h.accepts == "" || h.accepts == eventType
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.received)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestBus_DeliversToInterestedHandlers(t *testing.T) {
	bus := NewInMemoryBus(Config{Workers: 2})
	defer bus.Close()

	practice := &recordingHandler{accepts: shared.EventPracticeRecorded}
	achievements := &recordingHandler{accepts: shared.EventAchievementEarned}
	bus.Subscribe(practice)
	bus.Subscribe(achievements)

	event := shared.NewPracticeRecordedEvent("user-1", 7, uuid.New(), 80)
	require.NoError(t, bus.Publish(context.Background(), event))

	waitFor(t, func() bool { return practice.count() == 1 })
	assert.Equal(t, 0, achievements.count())
}

func TestBus_HandlerFailureDoesNotAffectOthers(t *testing.T) {
	bus := NewInMemoryBus(Config{Workers: 1})
	defer bus.Close()

	failing := &recordingHandler{fail: true}
	healthy := &recordingHandler{}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(),
		shared.NewAchievementEarnedEvent("user-1", 1, "First Steps", 10)))

	waitFor(t, func() bool { return healthy.count() == 1 && failing.count() == 1 })
}

func TestBus_PublishAfterCloseFails(t *testing.T) {
	bus := NewInMemoryBus(Config{})
	bus.Close()

	err := bus.Publish(context.Background(),
		shared.NewBookmarkToggledEvent("user-1", 3, true))
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestBus_CloseWaitsForInFlight(t *testing.T) {
	bus := NewInMemoryBus(Config{Workers: 2})

	h := &recordingHandler{}
	bus.Subscribe(h)

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(context.Background(),
			shared.NewLessonProgressEvent("user-1", int64(i), 50)))
	}

	bus.Close()
	assert.Equal(t, 10, h.count())
}
