package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/i474232898/sunwatch/internal/exposure"
)

var (
	// ErrNotFound is returned when no samples match a query.
	ErrNotFound = errors.New("no exposure samples found")
)

// MemoryStore is a concurrency-safe in-memory exposure sample store.
type MemoryStore struct {
	mu sync.RWMutex

	// time-ordered by Start
	samples []exposure.Sample

	// retention configuration
	maxSamples int           // max number of samples kept
	maxAge     time.Duration // optional max age for samples

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxSamples is <= 0, it is treated as unlimited.
func NewMemoryStore(maxSamples int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxSamples: maxSamples,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSample appends a sample and enforces retention.
func (s *MemoryStore) SaveSample(ctx context.Context, sample exposure.Sample) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Keep the slice ordered; samples normally arrive in order.
	i := len(s.samples)
	for i > 0 && s.samples[i-1].Start.After(sample.Start) {
		i--
	}
	s.samples = append(s.samples, exposure.Sample{})
	copy(s.samples[i+1:], s.samples[i:])
	s.samples[i] = sample

	// Enforce retention by count.
	if s.maxSamples > 0 && len(s.samples) > s.maxSamples {
		over := len(s.samples) - s.maxSamples
		s.samples = s.samples[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		j := 0
		for ; j < len(s.samples); j++ {
			if !s.samples[j].Start.Before(cutoff) {
				break
			}
		}
		s.samples = s.samples[j:]
	}
	return nil
}

// ListSamples returns all samples with from <= Start <= to.
func (s *MemoryStore) ListSamples(ctx context.Context, from, to time.Time) ([]exposure.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []exposure.Sample
	for _, sample := range s.samples {
		if (sample.Start.Equal(from) || sample.Start.After(from)) &&
			(sample.Start.Equal(to) || sample.Start.Before(to)) {
			result = append(result, sample)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

// Len returns the number of retained samples.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}
