package index

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/Aman-CERP/titlesearch/internal/async"
)

// DefaultInterval is the wait between the end of one pass and the start
// of the next.
const DefaultInterval = 10 * time.Minute

// Scheduler runs every RebuildTask sequentially, then waits for the
// interval, until its context is cancelled.
//
// After each pass it offers a value on Done without blocking. The channel
// holds one value, so a consumer that waits once observes the first
// completed pass and later passes are dropped until it is drained.
type Scheduler struct {
	tasks        []*RebuildTask
	interval     time.Duration
	initialDelay time.Duration
	progress     *async.Progress
	logger       *slog.Logger

	done chan struct{}

	// passMu keeps RunOnce and the background loop from overlapping.
	passMu sync.Mutex

	mu       sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the wait between passes. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithInitialDelay sets the wait before the first pass. The default is zero:
// the first pass starts as soon as Start is called.
func WithInitialDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.initialDelay = d
		}
	}
}

// WithProgress reports passes and per-language outcomes to p.
func WithProgress(p *async.Progress) Option {
	return func(s *Scheduler) {
		s.progress = p
	}
}

// WithLogger sets the logger used by the scheduler and its tasks.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScheduler creates a scheduler over tasks, run in the given order.
func NewScheduler(tasks []*RebuildTask, opts ...Option) *Scheduler {
	s := &Scheduler{
		tasks:    tasks,
		interval: DefaultInterval,
		logger:   slog.Default(),
		done:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, t := range s.tasks {
		t.progress = s.progress
		t.logger = s.logger
	}
	return s
}

// Done returns the completion signal. See Scheduler for its semantics.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Progress returns the progress tracker, which may be nil.
func (s *Scheduler) Progress() *async.Progress {
	return s.progress
}

// RunOnce performs one synchronous pass over every task.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	start := time.Now()
	if s.progress != nil {
		s.progress.BeginPass()
	}

	var result *multierror.Error
	for _, t := range s.tasks {
		if err := t.Run(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if s.progress != nil {
		s.progress.EndPass()
	}

	select {
	case s.done <- struct{}{}:
	default:
	}

	s.logger.Info("rebuild_pass_complete",
		slog.Int("tasks", len(s.tasks)),
		slog.Int("failures", failureCount(result)),
		slog.Duration("duration", time.Since(start)))

	return result.ErrorOrNil()
}

// Start launches the background loop. It returns immediately; calling it
// more than once has no effect.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Debug("scheduler started",
		slog.Int("tasks", len(s.tasks)),
		slog.Duration("interval", s.interval),
		slog.Duration("initial_delay", s.initialDelay))
}

// Wait blocks until the background loop exits.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Stop cancels the background loop and waits for it to exit. An in-flight
// pass observes the cancellation between fetches.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		cancel := s.cancel
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		s.wg.Wait()
		s.logger.Debug("scheduler stopped")
	})
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	timer := time.NewTimer(s.initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if err := s.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			// Contained: affected languages keep their previous index.
			s.logger.Warn("rebuild_pass_failed", slog.String("error", err.Error()))
		}

		timer.Reset(s.interval)
	}
}

// failureCount relies on multierror.Append flattening nested task errors.
func failureCount(err *multierror.Error) int {
	if err == nil {
		return 0
	}
	return len(err.Errors)
}
