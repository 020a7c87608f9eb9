package weather

import (
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/sunwatch/internal/location"
)

// HighRiskThreshold is the UV index above which sunscreen is recommended.
// The comparison is strict: 5 itself is low risk.
const HighRiskThreshold = 5.0

// IsHighRisk reports whether v is above HighRiskThreshold.
func IsHighRisk(v float64) bool {
	return v > HighRiskThreshold
}

// Category maps a UV index to its WHO exposure band.
func Category(v float64) string {
	switch {
	case v < 3:
		return "low"
	case v < 6:
		return "moderate"
	case v < 8:
		return "high"
	case v < 11:
		return "very_high"
	default:
		return "extreme"
	}
}

// UVSample is a single UV index value.
type UVSample struct {
	Value      float64   `json:"value"`
	ObservedAt time.Time `json:"observedAt"` // always UTC
}

// HourlyUV is one entry of an hourly UV forecast.
type HourlyUV struct {
	ID    uuid.UUID `json:"id"`
	Time  time.Time `json:"time"` // always UTC
	Value float64   `json:"value"`
}

// NewHourlyUV builds an entry with a fresh ID.
func NewHourlyUV(ts time.Time, value float64) HourlyUV {
	return HourlyUV{
		ID:    uuid.New(),
		Time:  ts.UTC(),
		Value: value,
	}
}

// Report is what a provider returns for one location.
// Hourly entries are expected to be ordered by Time ascending.
type Report struct {
	Provider string
	Current  UVSample
	Hourly   []HourlyUV
}

// Snapshot is the published weather state.
type Snapshot struct {
	Current UVSample   `json:"current"`
	Hourly  []HourlyUV `json:"hourly"`

	// HasData is false while Current still holds the placeholder value.
	HasData   bool               `json:"hasData"`
	Location  *location.Location `json:"location,omitempty"`
	UpdatedAt time.Time          `json:"updatedAt,omitempty"`
}

// HourlyBetween returns the hourly entries with from <= Time <= to.
func (s Snapshot) HourlyBetween(from, to time.Time) []HourlyUV {
	result := []HourlyUV{}
	for _, h := range s.Hourly {
		if (h.Time.Equal(from) || h.Time.After(from)) &&
			(h.Time.Equal(to) || h.Time.Before(to)) {
			result = append(result, h)
		}
	}
	return result
}
