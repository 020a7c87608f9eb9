package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/sunwatch/internal/app"
	"github.com/i474232898/sunwatch/internal/exposure"
	"github.com/i474232898/sunwatch/internal/reminder"
	"github.com/i474232898/sunwatch/internal/store"
	"github.com/i474232898/sunwatch/internal/weather"
)

type fakeDisplay struct {
	view      app.View
	toggleErr error
	activated int
}

func (f *fakeDisplay) View() app.View { return f.view }

func (f *fakeDisplay) ToggleReminder() (app.View, error) {
	return f.view, f.toggleErr
}

func (f *fakeDisplay) ActivateAsync() { f.activated++ }

type fixedSnapshot weather.Snapshot

func (s fixedSnapshot) Snapshot() weather.Snapshot { return weather.Snapshot(s) }

var base = time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T, display *fakeDisplay, samples SampleLister) *fiber.App {
	t.Helper()

	snap := weather.Snapshot{HasData: true}
	for i := 0; i < 4; i++ {
		snap.Hourly = append(snap.Hourly, weather.NewHourlyUV(base.Add(time.Duration(i)*time.Hour), float64(i+4)))
	}
	if samples == nil {
		samples = store.NewMemoryStore(0, 0)
	}

	a := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(a, Deps{
		Display: display,
		Weather: fixedSnapshot(snap),
		Samples: samples,
	})
	return a
}

func doJSON(t *testing.T, a *fiber.App, method, target string, out any) int {
	t.Helper()
	resp, err := a.Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
	return resp.StatusCode
}

type errorBody struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func TestView(t *testing.T) {
	display := &fakeDisplay{view: app.View{
		UVIndex:  7,
		UVText:   "7.0",
		HighRisk: true,
		Message:  app.MessageHighRisk,
		Button:   app.ButtonApply,
		Reminder: app.ReminderView{State: reminder.StateIdle},
	}}
	a := newTestApp(t, display, nil)

	var got map[string]any
	status := doJSON(t, a, http.MethodGet, "/api/v1/view", &got)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "7.0", got["uvText"])
	assert.Equal(t, "Apply", got["button"])
	assert.Equal(t, app.MessageHighRisk, got["message"])
}

func TestActivate(t *testing.T) {
	display := &fakeDisplay{}
	a := newTestApp(t, display, nil)

	status := doJSON(t, a, http.MethodPost, "/api/v1/activate", nil)
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, 1, display.activated)
}

func TestToggleReminder(t *testing.T) {
	t.Run("started", func(t *testing.T) {
		display := &fakeDisplay{view: app.View{
			Button:   "03:00:00",
			Reminder: app.ReminderView{State: reminder.StateRunning, RemainingSeconds: 10800},
		}}
		a := newTestApp(t, display, nil)

		var got app.View
		status := doJSON(t, a, http.MethodPost, "/api/v1/reminder/toggle", &got)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, int64(10800), got.Reminder.RemainingSeconds)
		assert.Equal(t, "03:00:00", got.Button)
	})

	t.Run("low risk", func(t *testing.T) {
		display := &fakeDisplay{toggleErr: fmt.Errorf("%w: %.1f", app.ErrLowRisk, 3.0)}
		a := newTestApp(t, display, nil)

		var got errorBody
		status := doJSON(t, a, http.MethodPost, "/api/v1/reminder/toggle", &got)
		assert.Equal(t, http.StatusConflict, status)
		assert.True(t, got.Error)
		assert.Contains(t, got.Message, "not high")
	})

	t.Run("unexpected", func(t *testing.T) {
		display := &fakeDisplay{toggleErr: reminder.ErrAlreadyRunning}
		a := newTestApp(t, display, nil)

		status := doJSON(t, a, http.MethodPost, "/api/v1/reminder/toggle", nil)
		assert.Equal(t, http.StatusInternalServerError, status)
	})
}

func TestHourlyUV(t *testing.T) {
	a := newTestApp(t, &fakeDisplay{}, nil)

	type hourlyBody struct {
		HasData bool               `json:"hasData"`
		Hourly  []weather.HourlyUV `json:"hourly"`
	}

	var all hourlyBody
	assert.Equal(t, http.StatusOK, doJSON(t, a, http.MethodGet, "/api/v1/uv/hourly", &all))
	assert.True(t, all.HasData)
	assert.Len(t, all.Hourly, 4)

	var window hourlyBody
	target := fmt.Sprintf("/api/v1/uv/hourly?from=%s&to=%d",
		base.Add(time.Hour).Format(time.RFC3339), base.Add(2*time.Hour).Unix())
	assert.Equal(t, http.StatusOK, doJSON(t, a, http.MethodGet, target, &window))
	require.Len(t, window.Hourly, 2)
	assert.Equal(t, 5.0, window.Hourly[0].Value)
	assert.Equal(t, 6.0, window.Hourly[1].Value)
}

func TestRangeValidation(t *testing.T) {
	a := newTestApp(t, &fakeDisplay{}, nil)

	tests := []struct {
		name  string
		query string
	}{
		{"only from", "?from=2024-05-20T09:00:00Z"},
		{"only to", "?to=1716195600"},
		{"bad format", "?from=yesterday&to=today"},
		{"to before from", "?from=2024-05-20T10:00:00Z&to=2024-05-20T09:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, path := range []string{"/api/v1/uv/hourly", "/api/v1/exposure/samples"} {
				var got errorBody
				status := doJSON(t, a, http.MethodGet, path+tt.query, &got)
				assert.Equal(t, http.StatusBadRequest, status, path)
				assert.True(t, got.Error)
			}
		})
	}
}

func TestExposureSamples(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore(0, 0)
	for i, v := range []float64{6.5, 8} {
		ts := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, mem.SaveSample(ctx, exposure.Sample{
			ID: uuid.New(), Value: v, Unit: exposure.UnitCount, Start: ts, End: ts,
		}))
	}
	a := newTestApp(t, &fakeDisplay{}, mem)

	type samplesBody struct {
		Samples []exposure.Sample `json:"samples"`
	}

	var all samplesBody
	assert.Equal(t, http.StatusOK, doJSON(t, a, http.MethodGet, "/api/v1/exposure/samples", &all))
	assert.Len(t, all.Samples, 2)

	var first samplesBody
	target := fmt.Sprintf("/api/v1/exposure/samples?from=%d&to=%d", base.Unix(), base.Add(time.Minute).Unix())
	assert.Equal(t, http.StatusOK, doJSON(t, a, http.MethodGet, target, &first))
	require.Len(t, first.Samples, 1)
	assert.Equal(t, 6.5, first.Samples[0].Value)

	var missing errorBody
	target = fmt.Sprintf("/api/v1/exposure/samples?from=%d&to=%d", base.Add(-48*time.Hour).Unix(), base.Add(-24*time.Hour).Unix())
	assert.Equal(t, http.StatusNotFound, doJSON(t, a, http.MethodGet, target, &missing))
	assert.True(t, missing.Error)
}
