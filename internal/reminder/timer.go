// Package reminder implements the sunscreen reapplication countdown.
//
// The countdown is a single deadline plus one scheduled callback. Remaining
// time is derived from the clock on demand and reads like a 1 Hz tick: 10800
// at start, one less per elapsed second, then 0 and Idle.
package reminder

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/sunwatch/internal/metrics"
)

// Duration is the length of one countdown.
const Duration = 3 * time.Hour

// State of the countdown.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// ErrAlreadyRunning is returned by Start while a countdown is active.
var ErrAlreadyRunning = errors.New("reminder already running")

// Clock abstracts time for the countdown.
type Clock interface {
	Now() time.Time
	// AfterFunc runs f once after d and returns a function that cancels it.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Config holds configuration for a Timer.
type Config struct {
	// Clock defaults to the system clock.
	Clock Clock

	// OnExpire is called once when a countdown reaches zero on its own.
	// It is not called on Cancel.
	OnExpire func()

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Timer is the Idle/Running countdown state machine.
type Timer struct {
	clock    Clock
	onExpire func()
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	mu       sync.Mutex
	running  bool
	deadline time.Time
	gen      uint64
	stop     func() bool
}

func New(cfg Config) *Timer {
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return &Timer{
		clock:    clock,
		onExpire: cfg.OnExpire,
		logger:   cfg.Logger.With().Str("component", "reminder").Logger(),
		metrics:  cfg.Metrics,
	}
}

// Start moves Idle -> Running with the full Duration remaining.
func (t *Timer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return ErrAlreadyRunning
	}

	t.gen++
	gen := t.gen
	t.running = true
	t.deadline = t.clock.Now().Add(Duration)
	t.stop = t.clock.AfterFunc(Duration, func() { t.expire(gen) })

	t.metrics.ReminderTransition("start")
	t.logger.Info().Time("deadline", t.deadline).Msg("reminder started")
	return nil
}

// Cancel moves Running -> Idle immediately, discarding the remaining time.
// It reports whether a countdown was running.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return false
	}
	t.resetLocked()

	t.metrics.ReminderTransition("cancel")
	t.logger.Info().Msg("reminder cancelled")
	return true
}

// State returns the current state, observing expiry.
func (t *Timer) State() State {
	if _, running := t.Remaining(); running {
		return StateRunning
	}
	return StateIdle
}

// Remaining returns the whole seconds left and whether a countdown is
// running. When Idle it returns 0, false.
func (t *Timer) Remaining() (int64, bool) {
	t.mu.Lock()

	if !t.running {
		t.mu.Unlock()
		return 0, false
	}

	left := t.deadline.Sub(t.clock.Now())
	if left <= 0 {
		t.resetLocked()
		t.mu.Unlock()
		t.expired()
		return 0, false
	}
	t.mu.Unlock()

	secs := int64((left + time.Second - 1) / time.Second)
	if limit := int64(Duration / time.Second); secs > limit {
		secs = limit
	}
	return secs, true
}

func (t *Timer) expire(gen uint64) {
	t.mu.Lock()
	if !t.running || t.gen != gen {
		t.mu.Unlock()
		return
	}
	t.resetLocked()
	t.mu.Unlock()

	t.expired()
}

func (t *Timer) expired() {
	t.metrics.ReminderTransition("expire")
	t.logger.Info().Msg("reminder finished")
	if t.onExpire != nil {
		t.onExpire()
	}
}

func (t *Timer) resetLocked() {
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
	t.running = false
	t.deadline = time.Time{}
}
