package weather

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/sunwatch/internal/location"
)

// ErrNoReadings is returned when none of the providers produced a report.
var ErrNoReadings = errors.New("no successful provider readings")

// AggregateReports combines reports from several providers into one.
// Current values are averaged and stamped with the newest observation time;
// hourly entries are bucketed per UTC hour and averaged.
func AggregateReports(reports []Report) Report {
	if len(reports) == 0 {
		return Report{}
	}
	if len(reports) == 1 {
		return reports[0]
	}

	var (
		sumCurrent float64
		newestTS   time.Time
		names      = make([]string, 0, len(reports))
		hourSums   = make(map[time.Time]float64)
		hourCounts = make(map[time.Time]int)
	)

	for _, r := range reports {
		sumCurrent += r.Current.Value
		if r.Current.ObservedAt.After(newestTS) {
			newestTS = r.Current.ObservedAt
		}
		names = append(names, r.Provider)

		for _, h := range r.Hourly {
			k := h.Time.UTC().Truncate(time.Hour)
			hourSums[k] += h.Value
			hourCounts[k]++
		}
	}

	if newestTS.IsZero() {
		newestTS = time.Now().UTC()
	}

	hours := make([]time.Time, 0, len(hourSums))
	for k := range hourSums {
		hours = append(hours, k)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Before(hours[j]) })

	hourly := make([]HourlyUV, 0, len(hours))
	for _, k := range hours {
		hourly = append(hourly, NewHourlyUV(k, hourSums[k]/float64(hourCounts[k])))
	}

	sort.Strings(names)
	return Report{
		Provider: strings.Join(names, "+"),
		Current: UVSample{
			Value:      sumCurrent / float64(len(reports)),
			ObservedAt: newestTS,
		},
		Hourly: hourly,
	}
}

// MultiProvider queries several providers concurrently and aggregates the
// successful reports. Partial success is enough to produce a report.
type MultiProvider struct {
	providers []Provider
	logger    zerolog.Logger
}

func NewMultiProvider(logger zerolog.Logger, providers ...Provider) *MultiProvider {
	return &MultiProvider{
		providers: providers,
		logger:    logger.With().Str("component", "weather.multi").Logger(),
	}
}

func (m *MultiProvider) Name() string {
	names := make([]string, 0, len(m.providers))
	for _, p := range m.providers {
		names = append(names, p.Name())
	}
	return strings.Join(names, "+")
}

func (m *MultiProvider) FetchUV(ctx context.Context, loc location.Location) (Report, error) {
	if len(m.providers) == 0 {
		return Report{}, fmt.Errorf("no weather providers configured")
	}
	if len(m.providers) == 1 {
		return m.providers[0].FetchUV(ctx, loc)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		reports []Report
		errs    []error
	)

	for _, p := range m.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()

			r, err := p.FetchUV(ctx, loc)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Log and continue; partial success still yields a report.
				m.logger.Warn().Err(err).Str("provider", p.Name()).Msg("provider fetch failed")
				errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
				return
			}
			reports = append(reports, r)
		}(p)
	}

	wg.Wait()

	if len(reports) == 0 {
		return Report{}, fmt.Errorf("%w: %w", ErrNoReadings, errors.Join(errs...))
	}
	return AggregateReports(reports), nil
}
