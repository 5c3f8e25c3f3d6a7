// Package ticker provides the live refresh loop that keeps station
// durations and costs current.
package ticker

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/loungeclock/internal/domain/sessionclock"
	"github.com/osa030/loungeclock/internal/domain/station"
)

// DefaultInterval is the refresh period.
const DefaultInterval = time.Second

// Registry is the part of the session registry the ticker drives.
type Registry interface {
	RecomputeActive(now time.Time) int
	Snapshot() []station.View
	BindTicker() error
	ReleaseTicker()
}

// Tick is published to subscribers after every refresh.
type Tick struct {
	Seq       uint64
	At        time.Time
	Refreshed int
	Stations  []station.View
}

// Ticker refreshes every active station on a fixed period.
type Ticker struct {
	mu       sync.Mutex
	registry Registry
	sched    Scheduler
	clock    sessionclock.Clock
	interval time.Duration
	cancel   func()
	seq      uint64
	subs     map[int]func(Tick)
	nextSub  int
	observe  func(time.Duration)
}

// Option configures a Ticker.
type Option func(*Ticker)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(t *Ticker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithObserver reports how long each refresh took.
func WithObserver(fn func(time.Duration)) Option {
	return func(t *Ticker) { t.observe = fn }
}

// New creates a stopped ticker.
func New(reg Registry, sched Scheduler, clock sessionclock.Clock, opts ...Option) *Ticker {
	t := &Ticker{
		registry: reg,
		sched:    sched,
		clock:    clock,
		interval: DefaultInterval,
		subs:     make(map[int]func(Tick)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins refreshing. Starting a running ticker is a no-op; starting
// a second ticker on the same registry fails.
func (t *Ticker) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return nil
	}
	if err := t.registry.BindTicker(); err != nil {
		return errors.Wrap(err, "failed to start ticker")
	}
	t.cancel = t.sched.SchedulePeriodic(t.interval, t.fire)
	zlog.Debug().Msgf("ticker started: interval=%s", t.interval)
	return nil
}

// Stop cancels the schedule and releases the registry.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel == nil {
		return
	}
	t.cancel()
	t.cancel = nil
	t.registry.ReleaseTicker()
	zlog.Debug().Msg("ticker stopped")
}

// Running reports whether the ticker is scheduled.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// Subscribe registers fn for every tick and returns its unsubscribe func.
func (t *Ticker) Subscribe(fn func(Tick)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}

func (t *Ticker) fire() {
	t.mu.Lock()
	if t.cancel == nil {
		t.mu.Unlock()
		return
	}
	t.seq++
	seq := t.seq
	subs := make([]func(Tick), 0, len(t.subs))
	for _, fn := range t.subs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()

	started := time.Now()
	now := t.clock.Now()
	n := t.registry.RecomputeActive(now)
	tick := Tick{
		Seq:       seq,
		At:        now,
		Refreshed: n,
		Stations:  t.registry.Snapshot(),
	}
	if t.observe != nil {
		t.observe(time.Since(started))
	}

	for _, fn := range subs {
		fn(tick)
	}
}
