package exposure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/i474232898/sunwatch/internal/metrics"
)

// UnitCount is the unit UV exposure samples are recorded in.
const UnitCount = "count"

// ErrHealthWrite wraps failures of the health datastore. They are logged and
// counted, never retried and never surfaced.
var ErrHealthWrite = errors.New("health sample write failed")

// Sample is one recorded UV exposure data point.
type Sample struct {
	ID    uuid.UUID `json:"id"`
	Value float64   `json:"value"`
	Unit  string    `json:"unit"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Sink is the write side of the health datastore.
type Sink interface {
	SaveSample(ctx context.Context, sample Sample) error
}

// RecorderConfig holds configuration for a Recorder.
type RecorderConfig struct {
	Sink Sink

	// Timeout bounds each write (default: 10 seconds).
	Timeout time.Duration

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Recorder writes exposure samples without blocking the caller.
type Recorder struct {
	sink    Sink
	timeout time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	wg sync.WaitGroup
}

func NewRecorder(cfg RecorderConfig) *Recorder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Recorder{
		sink:    cfg.Sink,
		timeout: timeout,
		logger:  cfg.Logger.With().Str("component", "exposure.recorder").Logger(),
		metrics: cfg.Metrics,
		now:     time.Now,
	}
}

// Record submits one sample with start = end = now and returns immediately.
func (r *Recorder) Record(value float64) Sample {
	now := r.now().UTC()
	sample := Sample{
		ID:    uuid.New(),
		Value: value,
		Unit:  UnitCount,
		Start: now,
		End:   now,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.sink.SaveSample(ctx, sample); err != nil {
			r.metrics.ExposureWrite(metrics.ResultError)
			r.logger.Error().
				Err(fmt.Errorf("%w: %w", ErrHealthWrite, err)).
				Str("sample_id", sample.ID.String()).
				Msg("error saving UV exposure sample")
			return
		}
		r.metrics.ExposureWrite(metrics.ResultSuccess)
		r.logger.Info().
			Str("sample_id", sample.ID.String()).
			Float64("uv", sample.Value).
			Msg("UV exposure sample saved")
	}()

	return sample
}

// Wait blocks until all submitted writes have finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
