package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultStale   = "stale"
)

// Metrics groups the sunwatch collectors. A nil *Metrics records nothing.
type Metrics struct {
	locationRequests *prometheus.CounterVec
	weatherFetches   *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec
	reminders        *prometheus.CounterVec
	exposureWrites   *prometheus.CounterVec
	uvIndex          prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		locationRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sunwatch_location_requests_total",
				Help: "Location requests by result",
			},
			[]string{"result"},
		),
		weatherFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sunwatch_weather_fetches_total",
				Help: "Weather fetches by result",
			},
			[]string{"result"},
		),
		fetchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sunwatch_weather_fetch_duration_seconds",
				Help:    "Weather fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		reminders: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sunwatch_reminder_transitions_total",
				Help: "Reminder state transitions by action",
			},
			[]string{"action"},
		),
		exposureWrites: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sunwatch_exposure_writes_total",
				Help: "Exposure sample writes by result",
			},
			[]string{"result"},
		),
		uvIndex: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "sunwatch_uv_index",
				Help: "Currently published UV index",
			},
		),
	}
}

func (m *Metrics) LocationRequest(result string) {
	if m == nil {
		return
	}
	m.locationRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) WeatherFetch(result string, seconds float64) {
	if m == nil {
		return
	}
	m.weatherFetches.WithLabelValues(result).Inc()
	m.fetchDuration.WithLabelValues(result).Observe(seconds)
}

func (m *Metrics) ReminderTransition(action string) {
	if m == nil {
		return
	}
	m.reminders.WithLabelValues(action).Inc()
}

func (m *Metrics) ExposureWrite(result string) {
	if m == nil {
		return
	}
	m.exposureWrites.WithLabelValues(result).Inc()
}

func (m *Metrics) SetUVIndex(v float64) {
	if m == nil {
		return
	}
	m.uvIndex.Set(v)
}
