package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Runner is the job the scheduler triggers.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler triggers the nightly pipeline from a cron expression. A run that is
// still going when the next tick fires makes that tick a no-op.
type Scheduler struct {
	spec   string
	runner Runner
	cron   *cron.Cron

	mu      sync.Mutex
	cancel  context.CancelFunc
	lastRun time.Time
	lastErr error
}

// NewScheduler creates a scheduler for the given cron spec (five fields).
func NewScheduler(spec string, runner Runner) *Scheduler {
	return &Scheduler{
		spec:   spec,
		runner: runner,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{}),
			cron.SkipIfStillRunning(cronLogger{}),
		)),
	}
}

// Start registers the nightly job and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(s.spec, func() {
		log.Info().Msg("Running nightly pipeline...")
		if err := s.RunNow(ctx); err != nil {
			log.Error().Err(err).Msg("Nightly pipeline failed")
		}
	}); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule nightly pipeline: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.spec).
		Msg("Nightly pipeline scheduled")
	return nil
}

// RunNow runs the pipeline synchronously and records the outcome.
func (s *Scheduler) RunNow(ctx context.Context) error {
	err := s.runner.Run(ctx)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	s.mu.Unlock()
	return err
}

// LastRun reports when the pipeline last finished and its error.
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

// Stop stops the cron loop, cancels a running pipeline and waits for it.
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	log.Info().Msg("Scheduler stopped")
}

// cronLogger adapts cron's logger to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
