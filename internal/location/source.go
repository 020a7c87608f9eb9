package location

import (
	"context"
	"time"
)

// Update is one delivery from a continuous location source. Exactly one of
// Location or Err is meaningful.
type Update struct {
	Location Location
	Err      error
}

// Source abstracts a continuous location service. Updates starts delivering
// fixes; cancelling ctx stops them, after which the channel is closed.
type Source interface {
	Updates(ctx context.Context) (<-chan Update, error)
}

// StaticSource reports a fixed coordinate, immediately and then every interval.
type StaticSource struct {
	loc      Location
	interval time.Duration
}

// NewStaticSource creates a StaticSource. An interval <= 0 defaults to 5s.
func NewStaticSource(lat, lon float64, interval time.Duration) *StaticSource {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &StaticSource{
		loc:      Location{Latitude: lat, Longitude: lon},
		interval: interval,
	}
}

func (s *StaticSource) Updates(ctx context.Context) (<-chan Update, error) {
	if err := s.loc.Validate(); err != nil {
		return nil, err
	}

	out := make(chan Update)
	go func() {
		defer close(out)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			loc := s.loc
			loc.Timestamp = time.Now().UTC()
			select {
			case out <- Update{Location: loc}:
			case <-ctx.Done():
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
