package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/sunwatch/internal/exposure"
	"github.com/i474232898/sunwatch/internal/location"
	"github.com/i474232898/sunwatch/internal/metrics"
	"github.com/i474232898/sunwatch/internal/reminder"
	"github.com/i474232898/sunwatch/internal/weather"
)

// ErrLowRisk is returned when a reminder is requested while the UV index is
// at or below the high-risk threshold.
var ErrLowRisk = errors.New("uv index is not high; no reminder needed")

// Locator acquires single location fixes.
type Locator interface {
	Request(ctx context.Context) (location.Location, error)
	PlaceName() (location.PlaceName, bool)
}

// WeatherState is the published UV state and the command that refreshes it.
type WeatherState interface {
	Fetch(loc location.Location)
	Snapshot() weather.Snapshot
	CurrentUV() float64
}

// ExposureRecorder records one exposure sample without blocking.
type ExposureRecorder interface {
	Record(value float64) exposure.Sample
}

// SessionConfig holds the collaborators of a Session.
type SessionConfig struct {
	Locator  Locator
	Weather  WeatherState
	Recorder ExposureRecorder

	// Clock drives the reminder countdown; nil uses the system clock.
	Clock reminder.Clock

	// LocationTimeout bounds background activations (default: 30 seconds).
	LocationTimeout time.Duration

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Session is the orchestration layer behind the display: it runs the
// location -> weather pipeline and owns the reminder countdown.
type Session struct {
	locator         Locator
	weather         WeatherState
	recorder        ExposureRecorder
	reminder        *reminder.Timer
	locationTimeout time.Duration
	logger          zerolog.Logger

	// serializes reminder toggles
	mu sync.Mutex
	wg sync.WaitGroup
}

func NewSession(cfg SessionConfig) *Session {
	timeout := cfg.LocationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger.With().Str("component", "app.session").Logger()
	return &Session{
		locator:  cfg.Locator,
		weather:  cfg.Weather,
		recorder: cfg.Recorder,
		reminder: reminder.New(reminder.Config{
			Clock:   cfg.Clock,
			Logger:  cfg.Logger,
			Metrics: cfg.Metrics,
		}),
		locationTimeout: timeout,
		logger:          logger,
	}
}

// Activate requests one location fix and, on success, issues a weather fetch
// for it. The fetch itself runs in the background. A location failure is
// logged and returned; the published state is left as it was.
func (s *Session) Activate(ctx context.Context) error {
	loc, err := s.locator.Request(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("activation skipped: no location")
		return err
	}
	s.weather.Fetch(loc)
	return nil
}

// ActivateAsync runs Activate in the background with its own timeout.
func (s *Session) ActivateAsync() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.locationTimeout)
		defer cancel()

		_ = s.Activate(ctx)
	}()
}

// ToggleReminder cancels a running countdown, or starts one when the current
// UV index is high. Starting records one exposure sample with the UV index
// read at that moment.
func (s *Session) ToggleReminder() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reminder.Cancel() {
		return s.View(), nil
	}

	uv := s.weather.CurrentUV()
	if !weather.IsHighRisk(uv) {
		return s.View(), fmt.Errorf("%w: %.1f", ErrLowRisk, uv)
	}

	if err := s.reminder.Start(); err != nil {
		return s.View(), err
	}
	s.recorder.Record(uv)
	return s.View(), nil
}

// Wait blocks until background activations have returned.
func (s *Session) Wait() {
	s.wg.Wait()
}
