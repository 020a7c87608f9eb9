package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/sunwatch/internal/location"
	"github.com/i474232898/sunwatch/internal/metrics"
)

// DefaultPlaceholderUV is published before the first successful fetch.
const DefaultPlaceholderUV = 7.0

// ErrWeatherFetch wraps provider failures. Such failures are logged and never
// reach the display layer; the previously published state stays in place.
var ErrWeatherFetch = errors.New("weather fetch failed")

// FetcherConfig holds configuration for the Fetcher.
type FetcherConfig struct {
	// Provider is the UV data source.
	Provider Provider

	// PlaceholderUV is the current UV index published until real data
	// arrives. Snapshot.HasData tells the two apart.
	PlaceholderUV float64

	// Timeout bounds each fetch (default: 30 seconds).
	Timeout time.Duration

	// StrictOrdering makes a fetch commit only if no fetch issued after it
	// has committed already. Without it the last fetch to complete wins.
	StrictOrdering bool

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Fetcher owns the published UV state: the current index and the hourly
// forecast. It is the only writer of that state.
type Fetcher struct {
	provider Provider
	timeout  time.Duration
	strict   bool
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	issued atomic.Uint64

	mu        sync.RWMutex
	state     Snapshot
	committed uint64

	wg sync.WaitGroup
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cfg.Metrics.SetUVIndex(cfg.PlaceholderUV)
	return &Fetcher{
		provider: cfg.Provider,
		timeout:  timeout,
		strict:   cfg.StrictOrdering,
		logger:   cfg.Logger.With().Str("component", "weather.fetcher").Logger(),
		metrics:  cfg.Metrics,
		now:      time.Now,
		state: Snapshot{
			Current: UVSample{Value: cfg.PlaceholderUV},
		},
	}
}

// Fetch starts one asynchronous fetch for loc and returns immediately. There
// is no completion signal and no cancellation; a result that arrives late
// still replaces the published state.
func (f *Fetcher) Fetch(loc location.Location) {
	token := f.issued.Add(1)

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.fetch(token, loc)
	}()
}

func (f *Fetcher) fetch(token uint64, loc location.Location) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	start := time.Now()
	report, err := f.provider.FetchUV(ctx, loc)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		f.metrics.WeatherFetch(metrics.ResultError, elapsed)
		f.logger.Error().
			Err(fmt.Errorf("%w: %w", ErrWeatherFetch, err)).
			Str("provider", f.provider.Name()).
			Msg("failed to fetch weather data; keeping last published state")
		return
	}

	if !f.commit(token, loc, report) {
		f.metrics.WeatherFetch(metrics.ResultStale, elapsed)
		f.logger.Debug().Uint64("token", token).Msg("discarding result of superseded fetch")
		return
	}

	f.metrics.WeatherFetch(metrics.ResultSuccess, elapsed)
	f.metrics.SetUVIndex(report.Current.Value)
	f.logger.Info().
		Float64("uv", report.Current.Value).
		Int("hourly", len(report.Hourly)).
		Str("provider", report.Provider).
		Msg("weather data published")
}

// commit replaces current value and hourly sequence together.
func (f *Fetcher) commit(token uint64, loc location.Location, report Report) bool {
	now := f.now().UTC()

	current := report.Current
	if current.ObservedAt.IsZero() {
		current.ObservedAt = now
	}
	hourly := make([]HourlyUV, len(report.Hourly))
	copy(hourly, report.Hourly)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.strict && token < f.committed {
		return false
	}
	f.committed = token
	f.state = Snapshot{
		Current:   current,
		Hourly:    hourly,
		HasData:   true,
		Location:  &loc,
		UpdatedAt: now,
	}
	return true
}

// Snapshot returns a copy of the published state.
func (f *Fetcher) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()

	s := f.state
	s.Hourly = make([]HourlyUV, len(f.state.Hourly))
	copy(s.Hourly, f.state.Hourly)
	if f.state.Location != nil {
		loc := *f.state.Location
		s.Location = &loc
	}
	return s
}

// CurrentUV returns the published current UV index.
func (f *Fetcher) CurrentUV() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state.Current.Value
}

// Wait blocks until every fetch started so far has finished.
func (f *Fetcher) Wait() {
	f.wg.Wait()
}
