package sessionclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActiveDuration(t *testing.T) {
	t0 := time.Date(2025, 3, 14, 18, 0, 0, 0, time.Local)
	at := func(d time.Duration) *time.Time {
		v := t0.Add(d)
		return &v
	}

	tests := []struct {
		name        string
		paused      time.Duration
		pausedSince *time.Time
		now         time.Time
		want        time.Duration
	}{
		{
			name: "running, no pauses",
			now:  t0.Add(45 * time.Minute),
			want: 45 * time.Minute,
		},
		{
			name:   "running after a resumed pause",
			paused: 10 * time.Minute,
			now:    t0.Add(50 * time.Minute),
			want:   40 * time.Minute,
		},
		{
			name:        "paused freezes at pausedSince",
			paused:      5 * time.Minute,
			pausedSince: at(30 * time.Minute),
			now:         t0.Add(3 * time.Hour),
			want:        25 * time.Minute,
		},
		{
			name: "now before start clamps to zero",
			now:  t0.Add(-time.Minute),
			want: 0,
		},
		{
			name: "sub-second remainder is truncated",
			now:  t0.Add(90*time.Second + 700*time.Millisecond),
			want: 90 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ActiveDuration(t0, tt.paused, tt.pausedSince, tt.now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActiveDuration_Monotonic(t *testing.T) {
	t0 := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)
	prev := time.Duration(0)
	for i := 0; i < 300; i += 7 {
		d := ActiveDuration(t0, 2*time.Minute, nil, t0.Add(time.Duration(i)*time.Minute))
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}
}

func TestTestClock(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	c := NewTestClock(t0)
	assert.Equal(t, t0, c.Now())

	c.Advance(90 * time.Second)
	assert.Equal(t, t0.Add(90*time.Second), c.Now())

	c.Set(t0)
	assert.Equal(t, t0, c.Now())
	assert.Equal(t, int64(2700), Seconds(45*time.Minute))
}
