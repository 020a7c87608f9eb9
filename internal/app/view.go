package app

import (
	"fmt"
	"time"

	"github.com/i474232898/sunwatch/internal/location"
	"github.com/i474232898/sunwatch/internal/reminder"
	"github.com/i474232898/sunwatch/internal/weather"
)

// Display strings.
const (
	MessageHighRisk = "UV is high, apply sunscreen."
	MessageLowRisk  = "UV is low, stay safe."
	ButtonApply     = "Apply"
)

// Gauge bounds of the UV dial.
const (
	GaugeMin = 0
	GaugeMax = 11
)

// View is everything the display renders.
type View struct {
	UVIndex   float64            `json:"uvIndex"`
	UVText    string             `json:"uvText"`
	HasData   bool               `json:"hasData"`
	HighRisk  bool               `json:"highRisk"`
	Category  string             `json:"category"`
	Message   string             `json:"message"`
	Button    string             `json:"button,omitempty"`
	Reminder  ReminderView       `json:"reminder"`
	Gauge     GaugeView          `json:"gauge"`
	Place     string             `json:"place,omitempty"`
	Location  *location.Location `json:"location,omitempty"`
	UpdatedAt *time.Time         `json:"updatedAt,omitempty"`
	Hourly    []weather.HourlyUV `json:"hourly"`
}

type ReminderView struct {
	State            reminder.State `json:"state"`
	RemainingSeconds int64          `json:"remainingSeconds"`
	Remaining        string         `json:"remaining,omitempty"`
}

type GaugeView struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Tint string  `json:"tint"`
}

// View renders the current state.
func (s *Session) View() View {
	snap := s.weather.Snapshot()
	uv := snap.Current.Value
	high := weather.IsHighRisk(uv)

	v := View{
		UVIndex:  uv,
		UVText:   fmt.Sprintf("%.1f", uv),
		HasData:  snap.HasData,
		HighRisk: high,
		Category: weather.Category(uv),
		Gauge:    GaugeView{Min: GaugeMin, Max: GaugeMax, Tint: "green"},
		Location: snap.Location,
		Hourly:   snap.Hourly,
	}
	if !snap.UpdatedAt.IsZero() {
		ts := snap.UpdatedAt
		v.UpdatedAt = &ts
	}
	if place, ok := s.locator.PlaceName(); ok {
		v.Place = place.String()
	}

	secs, running := s.reminder.Remaining()
	v.Reminder = ReminderView{State: reminder.StateIdle}

	switch {
	case running:
		v.Reminder = ReminderView{
			State:            reminder.StateRunning,
			RemainingSeconds: secs,
			Remaining:        reminder.FormatRemaining(secs),
		}
		v.Button = v.Reminder.Remaining
	case high:
		v.Button = ButtonApply
	}

	if high {
		v.Message = MessageHighRisk
		v.Gauge.Tint = "red"
	} else {
		v.Message = MessageLowRisk
	}
	return v
}
