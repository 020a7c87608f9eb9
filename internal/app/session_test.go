package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/sunwatch/internal/exposure"
	"github.com/i474232898/sunwatch/internal/location"
	"github.com/i474232898/sunwatch/internal/reminder"
	"github.com/i474232898/sunwatch/internal/store"
	"github.com/i474232898/sunwatch/internal/weather"
)

type fakeLocator struct {
	loc   location.Location
	err   error
	place location.PlaceName
	calls int
}

func (f *fakeLocator) Request(context.Context) (location.Location, error) {
	f.calls++
	return f.loc, f.err
}

func (f *fakeLocator) PlaceName() (location.PlaceName, bool) {
	return f.place, f.place.Complete()
}

type uvProvider struct {
	value float64
	err   error
}

func (p uvProvider) Name() string { return "fixed" }

func (p uvProvider) FetchUV(context.Context, location.Location) (weather.Report, error) {
	if p.err != nil {
		return weather.Report{}, p.err
	}
	ts := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	return weather.Report{
		Provider: "fixed",
		Current:  weather.UVSample{Value: p.value, ObservedAt: ts},
		Hourly:   []weather.HourlyUV{weather.NewHourlyUV(ts, p.value)},
	}, nil
}

// stepClock is a manual clock; callbacks run synchronously from Advance.
type stepClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []stepTimer
}

type stepTimer struct {
	at      time.Time
	f       func()
	stopped *bool
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) AfterFunc(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	stopped := false
	c.pending = append(c.pending, stepTimer{at: c.now.Add(d), f: f, stopped: &stopped})
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		was := !stopped
		stopped = true
		return was
	}
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.pending {
		if !*t.stopped && !t.at.After(c.now) {
			*t.stopped = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

type fixture struct {
	session *Session
	fetcher *weather.Fetcher
	samples *store.MemoryStore
	clock   *stepClock
	locator *fakeLocator
}

func newFixture(p weather.Provider) *fixture {
	clock := &stepClock{now: time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)}
	samples := store.NewMemoryStore(0, 0)
	fetcher := weather.NewFetcher(weather.FetcherConfig{
		Provider:      p,
		PlaceholderUV: weather.DefaultPlaceholderUV,
		Logger:        zerolog.Nop(),
	})
	locator := &fakeLocator{loc: location.Location{Latitude: 52.52, Longitude: 13.405}}
	session := NewSession(SessionConfig{
		Locator: locator,
		Weather: fetcher,
		Recorder: exposure.NewRecorder(exposure.RecorderConfig{
			Sink:   samples,
			Logger: zerolog.Nop(),
		}),
		Clock:  clock,
		Logger: zerolog.Nop(),
	})
	return &fixture{session: session, fetcher: fetcher, samples: samples, clock: clock, locator: locator}
}

func (f *fixture) sampleCount() int {
	return f.samples.Len()
}

func TestSession_PlaceholderReminderLifecycle(t *testing.T) {
	f := newFixture(uvProvider{value: 2})

	v := f.session.View()
	assert.False(t, v.HasData)
	assert.Equal(t, 7.0, v.UVIndex)
	assert.Equal(t, "7.0", v.UVText)
	assert.Equal(t, MessageHighRisk, v.Message)
	assert.Equal(t, ButtonApply, v.Button)
	assert.Equal(t, "red", v.Gauge.Tint)
	assert.Equal(t, reminder.StateIdle, v.Reminder.State)

	v, err := f.session.ToggleReminder()
	require.NoError(t, err)
	assert.Equal(t, reminder.StateRunning, v.Reminder.State)
	assert.Equal(t, int64(10800), v.Reminder.RemainingSeconds)
	assert.Equal(t, "03:00:00", v.Button)

	assert.Eventually(t, func() bool { return f.sampleCount() == 1 }, time.Second, 5*time.Millisecond)
	got, err := f.samples.ListSamples(context.Background(), time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 7.0, got[0].Value)
	assert.Equal(t, exposure.UnitCount, got[0].Unit)
	assert.Equal(t, got[0].Start, got[0].End)

	f.clock.Advance(time.Second)
	v = f.session.View()
	assert.Equal(t, int64(10799), v.Reminder.RemainingSeconds)
	assert.Equal(t, "02:59:59", v.Button)

	f.clock.Advance(reminder.Duration)
	v = f.session.View()
	assert.Equal(t, reminder.StateIdle, v.Reminder.State)
	assert.Zero(t, v.Reminder.RemainingSeconds)
	assert.Empty(t, v.Reminder.Remaining)
	assert.Equal(t, ButtonApply, v.Button)
	assert.Equal(t, 1, f.sampleCount())
}

func TestSession_ToggleCancelsWithoutRecording(t *testing.T) {
	f := newFixture(uvProvider{value: 2})

	_, err := f.session.ToggleReminder()
	require.NoError(t, err)
	f.clock.Advance(90 * time.Minute)

	v, err := f.session.ToggleReminder()
	require.NoError(t, err)
	assert.Equal(t, reminder.StateIdle, v.Reminder.State)
	assert.Equal(t, ButtonApply, v.Button)

	assert.Eventually(t, func() bool { return f.sampleCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, f.sampleCount())
}

func TestSession_LowRiskRefusesReminder(t *testing.T) {
	for _, uv := range []float64{0, 3.2, 5} {
		f := newFixture(uvProvider{value: uv})
		require.NoError(t, f.session.Activate(context.Background()))
		f.fetcher.Wait()

		v, err := f.session.ToggleReminder()
		assert.ErrorIs(t, err, ErrLowRisk, "uv %v", uv)
		assert.Equal(t, reminder.StateIdle, v.Reminder.State)
		assert.Empty(t, v.Button)
		assert.Equal(t, MessageLowRisk, v.Message)
		assert.Equal(t, "green", v.Gauge.Tint)
		assert.Zero(t, f.sampleCount())
	}
}

func TestSession_RunningCountdownSurvivesLowerUV(t *testing.T) {
	f := newFixture(uvProvider{value: 1.5})

	_, err := f.session.ToggleReminder()
	require.NoError(t, err)

	require.NoError(t, f.session.Activate(context.Background()))
	f.fetcher.Wait()

	v := f.session.View()
	assert.Equal(t, MessageLowRisk, v.Message)
	assert.Equal(t, reminder.StateRunning, v.Reminder.State)
	assert.Equal(t, "03:00:00", v.Button)

	v, err = f.session.ToggleReminder()
	require.NoError(t, err)
	assert.Equal(t, reminder.StateIdle, v.Reminder.State)
	assert.Empty(t, v.Button)
}

func TestSession_ActivatePublishesWeather(t *testing.T) {
	f := newFixture(uvProvider{value: 8.26})
	f.locator.place = location.PlaceName{City: "Berlin", Country: "Germany"}

	require.NoError(t, f.session.Activate(context.Background()))
	f.fetcher.Wait()

	v := f.session.View()
	assert.True(t, v.HasData)
	assert.Equal(t, "8.3", v.UVText)
	assert.Equal(t, "very_high", v.Category)
	assert.Equal(t, "Berlin, Germany", v.Place)
	require.NotNil(t, v.Location)
	assert.Equal(t, 52.52, v.Location.Latitude)
	require.NotNil(t, v.UpdatedAt)
	assert.Len(t, v.Hourly, 1)
}

func TestSession_ActivateWithoutLocation(t *testing.T) {
	f := newFixture(uvProvider{value: 9})
	f.locator.err = location.ErrLocationUnavailable

	err := f.session.Activate(context.Background())
	assert.ErrorIs(t, err, location.ErrLocationUnavailable)
	f.fetcher.Wait()

	v := f.session.View()
	assert.False(t, v.HasData)
	assert.Equal(t, 7.0, v.UVIndex)
	assert.Nil(t, v.Location)
}

func TestSession_FetchFailureKeepsPlaceholder(t *testing.T) {
	f := newFixture(uvProvider{err: errors.New("upstream down")})

	require.NoError(t, f.session.Activate(context.Background()))
	f.fetcher.Wait()

	v := f.session.View()
	assert.False(t, v.HasData)
	assert.Equal(t, "7.0", v.UVText)
	assert.Equal(t, ButtonApply, v.Button)
}

func TestSession_ActivateAsync(t *testing.T) {
	f := newFixture(uvProvider{value: 6})

	f.session.ActivateAsync()
	f.session.Wait()
	f.fetcher.Wait()

	assert.Equal(t, 1, f.locator.calls)
	assert.True(t, f.session.View().HasData)
}
