package location

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/sunwatch/internal/metrics"
)

// ProviderConfig holds the collaborators of a Provider.
type ProviderConfig struct {
	// Source delivers continuous location updates.
	Source Source

	// Geocoder resolves place names. Optional; nil disables the lookup.
	Geocoder Geocoder

	// GeocodeTimeout bounds each reverse lookup (default: 10 seconds).
	GeocodeTimeout time.Duration

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Provider turns a continuous Source into single-shot location requests and
// keeps the last fix and place name for display.
type Provider struct {
	source         Source
	geocoder       Geocoder
	geocodeTimeout time.Duration
	logger         zerolog.Logger
	metrics        *metrics.Metrics

	mu    sync.RWMutex
	last  *Location
	place *PlaceName

	wg sync.WaitGroup
}

func NewProvider(cfg ProviderConfig) *Provider {
	timeout := cfg.GeocodeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Provider{
		source:         cfg.Source,
		geocoder:       cfg.Geocoder,
		geocodeTimeout: timeout,
		logger:         cfg.Logger.With().Str("component", "location.provider").Logger(),
		metrics:        cfg.Metrics,
	}
}

// Request acquires one fresh fix. Updates are stopped as soon as the first one
// arrives, and only that one is returned; anything the source delivers later is
// dropped. On success a reverse-geocode lookup is started in the background.
func (p *Provider) Request(ctx context.Context) (Location, error) {
	subCtx, stop := context.WithCancel(ctx)
	defer stop()

	updates, err := p.source.Updates(subCtx)
	if err != nil {
		p.metrics.LocationRequest(metrics.ResultError)
		return Location{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}

	var upd Update
	select {
	case u, ok := <-updates:
		if !ok {
			upd = Update{Err: fmt.Errorf("source closed before delivering a fix")}
		} else {
			upd = u
		}
	case <-ctx.Done():
		upd = Update{Err: ctx.Err()}
	}
	stop()

	if upd.Err != nil {
		p.metrics.LocationRequest(metrics.ResultError)
		p.logger.Warn().Err(upd.Err).Msg("location request failed")
		return Location{}, fmt.Errorf("%w: %w", ErrLocationUnavailable, upd.Err)
	}

	loc := upd.Location
	p.mu.Lock()
	p.last = &loc
	p.mu.Unlock()

	p.metrics.LocationRequest(metrics.ResultSuccess)
	p.logger.Debug().
		Float64("lat", loc.Latitude).
		Float64("lon", loc.Longitude).
		Msg("location updated")

	p.resolvePlace(loc)
	return loc, nil
}

func (p *Provider) resolvePlace(loc Location) {
	if p.geocoder == nil {
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), p.geocodeTimeout)
		defer cancel()

		place, err := p.geocoder.Reverse(ctx, loc)
		if err == nil && !place.Complete() {
			err = fmt.Errorf("incomplete place %q", place.String())
		}
		if err != nil {
			p.logger.Warn().Err(fmt.Errorf("%w: %w", ErrGeocodeFailure, err)).Msg("place name not resolved")
			return
		}

		p.mu.Lock()
		p.place = &place
		p.mu.Unlock()
		p.logger.Info().Str("place", place.String()).Msg("place name resolved")
	}()
}

// Last returns the most recent fix, if any.
func (p *Provider) Last() (Location, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return Location{}, false
	}
	return *p.last, true
}

// PlaceName returns the most recently resolved place name, if any.
func (p *Provider) PlaceName() (PlaceName, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.place == nil {
		return PlaceName{}, false
	}
	return *p.place, true
}

// Wait blocks until in-flight geocode lookups have finished.
func (p *Provider) Wait() {
	p.wg.Wait()
}
