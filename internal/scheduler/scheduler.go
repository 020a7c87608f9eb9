package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Activator runs one location -> weather activation.
type Activator interface {
	Activate(ctx context.Context) error
}

// Scheduler periodically re-runs the activation pipeline so the published UV
// state stays fresh.
type Scheduler struct {
	scheduler *gocron.Scheduler
	activator Activator
	interval  time.Duration
	timeout   time.Duration
	logger    zerolog.Logger
}

// New creates a new Scheduler. Each run is bounded by timeout.
func New(activator Activator, interval, timeout time.Duration, logger zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler: s,
		activator: activator,
		interval:  interval,
		timeout:   timeout,
		logger:    logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the periodic job and starts the underlying scheduler. An
// interval of zero disables the refresh.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info().Msg("refresh interval is zero; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info().Dur("interval", s.interval).Msg("refresh scheduled")
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Debug().Msg("running refresh job")
	if err := s.activator.Activate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("refresh failed")
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
