package ticker

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/loungeclock/internal/app/session/registry"
	"github.com/osa030/loungeclock/internal/domain/sessionclock"
	"github.com/osa030/loungeclock/internal/domain/station"
	"github.com/osa030/loungeclock/internal/domain/tier"
)

var t0 = time.Date(2025, 3, 14, 18, 0, 0, 0, time.Local)

func newRegistry(t *testing.T, clock sessionclock.Clock) *registry.Registry {
	t.Helper()
	c, err := tier.NewCatalog(tier.Tier{
		ID:          "27in",
		DisplayName: `27" Gaming Setup`,
		Prices: tier.Prices{
			Min30:  decimal.NewFromInt(40),
			Min60:  decimal.NewFromInt(60),
			Min90:  decimal.NewFromInt(100),
			Min120: decimal.NewFromInt(120),
		},
		ExtraControllerCharge: decimal.NewFromInt(40),
		MaxControllers:        4,
		Units:                 1,
	})
	require.NoError(t, err)
	return registry.New(c, clock)
}

func TestTicker_RefreshesAndNotifies(t *testing.T) {
	clock := sessionclock.NewTestClock(t0)
	reg := newRegistry(t, clock)
	v, err := reg.Add(registry.AddRequest{TierID: "27in", PlayerName: "Ira", Controllers: 1, RequestedMinutes: 60})
	require.NoError(t, err)

	sched := NewManualScheduler()
	tk := New(reg, sched, clock)

	var got []Tick
	unsubscribe := tk.Subscribe(func(tick Tick) { got = append(got, tick) })

	require.NoError(t, tk.Start())
	assert.Equal(t, 1, sched.Pending())

	clock.Advance(45 * time.Minute)
	sched.Tick()

	require.Len(t, got, 1)
	assert.Equal(t, uint64(1), got[0].Seq)
	assert.Equal(t, 1, got[0].Refreshed)
	require.Len(t, got[0].Stations, 1)
	assert.Equal(t, v.ID, got[0].Stations[0].ID)
	assert.Equal(t, int64(2700), got[0].Stations[0].DurationSeconds)
	assert.True(t, decimal.NewFromInt(60).Equal(got[0].Stations[0].Cost))

	unsubscribe()
	sched.Tick()
	assert.Len(t, got, 1)
}

func TestTicker_MissedTicksSelfCorrect(t *testing.T) {
	clock := sessionclock.NewTestClock(t0)
	reg := newRegistry(t, clock)
	_, err := reg.Add(registry.AddRequest{TierID: "27in", PlayerName: "Ira", Controllers: 1, RequestedMinutes: 60})
	require.NoError(t, err)

	sched := NewManualScheduler()
	tk := New(reg, sched, clock)
	var last Tick
	tk.Subscribe(func(tick Tick) { last = tick })
	require.NoError(t, tk.Start())

	// no ticks for 170 minutes, then a single one
	clock.Advance(170 * time.Minute)
	sched.Tick()

	assert.Equal(t, int64(170*60), last.Stations[0].DurationSeconds)
	assert.True(t, decimal.NewFromInt(160).Equal(last.Stations[0].Cost))
}

func TestTicker_StartStop(t *testing.T) {
	clock := sessionclock.NewTestClock(t0)
	reg := newRegistry(t, clock)
	sched := NewManualScheduler()

	tk := New(reg, sched, clock)
	require.NoError(t, tk.Start())
	require.NoError(t, tk.Start(), "start is idempotent")
	assert.Equal(t, 1, sched.Pending())
	assert.True(t, tk.Running())

	other := New(reg, sched, clock)
	err := other.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrTickerBound)

	var fired int
	tk.Subscribe(func(Tick) { fired++ })
	tk.Stop()
	assert.False(t, tk.Running())
	assert.Equal(t, 0, sched.Pending())
	sched.Tick()
	assert.Equal(t, 0, fired)

	tk.Stop()
	require.NoError(t, other.Start(), "registry is free after stop")
	other.Stop()
}

func TestTicker_ObserverAndPausedUntouched(t *testing.T) {
	clock := sessionclock.NewTestClock(t0)
	reg := newRegistry(t, clock)
	v, err := reg.Add(registry.AddRequest{TierID: "27in", PlayerName: "Ira", Controllers: 1, RequestedMinutes: 60})
	require.NoError(t, err)
	clock.Advance(10 * time.Minute)
	_, _, err = reg.Pause(v.ID)
	require.NoError(t, err)

	var observed atomic.Int32
	sched := NewManualScheduler()
	tk := New(reg, sched, clock, WithInterval(2*time.Second), WithObserver(func(time.Duration) { observed.Add(1) }))
	var last Tick
	tk.Subscribe(func(tick Tick) { last = tick })
	require.NoError(t, tk.Start())

	clock.Advance(time.Hour)
	sched.Tick()

	assert.Equal(t, int32(1), observed.Load())
	assert.Equal(t, 0, last.Refreshed)
	assert.Equal(t, station.StatusPaused, last.Stations[0].Status)
	assert.Equal(t, int64(600), last.Stations[0].DurationSeconds)
}

func TestWallScheduler_Cancel(t *testing.T) {
	var n atomic.Int32
	cancel := WallScheduler{}.SchedulePeriodic(5*time.Millisecond, func() { n.Add(1) })

	assert.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)
	stopped := n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, n.Load())
}
