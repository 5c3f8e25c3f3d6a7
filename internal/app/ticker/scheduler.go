package ticker

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Scheduler runs fn every interval until the returned cancel func is called.
type Scheduler interface {
	SchedulePeriodic(interval time.Duration, fn func()) (cancel func())
}

// WallScheduler schedules on the runtime's wall clock.
type WallScheduler struct{}

// SchedulePeriodic starts a goroutine driven by a time.Ticker.
func (WallScheduler) SchedulePeriodic(interval time.Duration, fn func()) func() {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				fn()
			}
		}
	}()

	return cancel
}

// ManualScheduler fires callbacks only when Tick is called.
type ManualScheduler struct {
	mu   sync.Mutex
	jobs map[int]func()
	next int
}

// NewManualScheduler creates an empty manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{jobs: make(map[int]func())}
}

// SchedulePeriodic registers fn; interval is ignored.
func (m *ManualScheduler) SchedulePeriodic(_ time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.next
	m.next++
	m.jobs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.jobs, id)
		})
	}
}

// Tick runs every registered callback once, in registration order.
func (m *ManualScheduler) Tick() {
	m.mu.Lock()
	ids := make([]int, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.jobs[id])
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Pending returns the number of registered callbacks.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}
