// Package scheduler runs periodic background jobs, currently the leaderboard
// cache warmup. Jobs run on fixed intervals; a job that overruns its interval
// is simply late, never run twice concurrently.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/promptcraft/progress-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOBS AND SCHEDULES
// ══════════════════════════════════════════════════════════════════════════════

// Job is one unit of periodic work. The context is cancelled when the
// scheduler stops.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Schedule decides when a job runs next.
type Schedule interface {
	Next(t time.Time) time.Time
	String() string
}

// IntervalSchedule runs a job at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates an IntervalSchedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns the next run time after t.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns a human-readable form of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval)
}

var (
	// ErrAlreadyRunning is returned when Start is called twice.
	ErrAlreadyRunning = errors.New("scheduler is already running")

	// ErrNotRunning is returned when Stop is called on a stopped scheduler.
	ErrNotRunning = errors.New("scheduler is not running")

	// ErrDuplicateJob is returned when a job name is registered twice.
	ErrDuplicateJob = errors.New("job already registered")

	// ErrJobNotFound is returned when running an unknown job by name.
	ErrJobNotFound = errors.New("job not found")
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// scheduledJob tracks one job's run state.
type scheduledJob struct {
	job      Job
	schedule Schedule
	nextRun  time.Time
	inFlight bool
}

// Scheduler owns the registered jobs and the tick loop.
type Scheduler struct {
	mu      sync.Mutex
	log     *logger.Logger
	jobs    map[string]*scheduledJob
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates an empty Scheduler.
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		log:  log.With(logger.Component("scheduler")),
		jobs: make(map[string]*scheduledJob),
	}
}

// Register adds a job. The first run happens one schedule interval after
// Start, not immediately.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	s.jobs[name] = &scheduledJob{
		job:      job,
		schedule: schedule,
		nextRun:  schedule.Next(time.Now()),
	}

	s.log.Info("job registered",
		logger.String("job", name),
		logger.String("schedule", schedule.String()))

	return nil
}

// Start begins the tick loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.loop(ctx)

	s.log.Info("scheduler started", logger.Int("jobs", len(s.jobs)))
	return nil
}

// Stop cancels the loop and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("scheduler stopped")
	return nil
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	sj, exists := s.jobs[name]
	s.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	return s.execute(ctx, sj)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.runDue(ctx, now)
		}
	}
}

// runDue launches every due job that is not already in flight.
func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	var due []*scheduledJob
	for _, sj := range s.jobs {
		if !sj.inFlight && now.After(sj.nextRun) {
			sj.inFlight = true
			sj.nextRun = sj.schedule.Next(now)
			due = append(due, sj)
		}
	}
	s.mu.Unlock()

	for _, sj := range due {
		s.wg.Add(1)
		go func(sj *scheduledJob) {
			defer s.wg.Done()
			_ = s.execute(ctx, sj)
			s.mu.Lock()
			sj.inFlight = false
			s.mu.Unlock()
		}(sj)
	}
}

func (s *Scheduler) execute(ctx context.Context, sj *scheduledJob) error {
	name := sj.job.Name()
	started := time.Now()

	err := sj.job.Run(ctx)
	elapsed := time.Since(started)

	if err != nil {
		s.log.Error("job failed",
			logger.String("job", name), logger.Latency(elapsed), logger.Err(err))
		return err
	}

	s.log.Info("job completed",
		logger.String("job", name), logger.Latency(elapsed))
	return nil
}
