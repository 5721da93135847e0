package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs maintenance daily at 03:00.
const DefaultSchedule = "0 3 * * *"

// Runner performs one maintenance run.
type Runner interface {
	RunOnce(ctx context.Context) (*RunReport, error)
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// Spec is a standard five-field cron expression or a descriptor such
	// as "@daily". Empty means DefaultSchedule.
	Spec string
	// Location is the zone Spec is evaluated in. Nil means UTC.
	Location *time.Location
}

// Scheduler triggers maintenance runs on a cron schedule. At most one run
// is in flight at a time; a trigger arriving while a run is active is
// skipped.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	logger  *slog.Logger
	running atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a Scheduler. It returns an error when the cron expression does
// not parse.
func NewScheduler(runner Runner, config SchedulerConfig, logger *slog.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "scheduler"))

	spec := config.Spec
	if spec == "" {
		spec = DefaultSchedule
	}
	loc := config.Location
	if loc == nil {
		loc = time.UTC
	}

	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner: runner,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", spec, err)
	}
	logger.Info("maintenance scheduled", slog.String("schedule", spec), slog.String("location", loc.String()))
	return s, nil
}

// Start starts the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// RunNow triggers a run in the background outside the schedule. It is
// skipped when a run is already in flight.
func (s *Scheduler) RunNow() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run()
	}()
}

// Running reports whether a run is in flight.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Stop halts the schedule, cancels an in-flight run and waits for it to
// return or for ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler did not stop in time: %w", ctx.Err())
	}
}

func (s *Scheduler) run() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("maintenance run already in progress, skipping")
		return
	}
	defer s.running.Store(false)

	if s.ctx.Err() != nil {
		return
	}
	if _, err := s.runner.RunOnce(s.ctx); err != nil {
		s.logger.Error("maintenance run failed", slog.String("error", err.Error()))
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
