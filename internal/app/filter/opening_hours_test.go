package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 14, hour, minute, 0, 0, time.UTC)
}

func TestOpeningHoursFilter_ValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		wantErr  bool
	}{
		{name: "defaults", settings: nil},
		{name: "overnight", settings: map[string]any{"open": "18:00", "close": "02:00"}},
		{name: "all day", settings: map[string]any{"open": "00:00", "close": "00:00"}},
		{name: "bad time", settings: map[string]any{"open": "25:00"}, wantErr: true},
		{name: "last entry too late", settings: map[string]any{"open": "10:00", "close": "11:00", "last_entry_minutes": 60}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewOpeningHoursFilter().ValidateConfig(tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOpeningHoursFilter_Check(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		now      time.Time
		wantCode string
	}{
		{name: "before open", settings: nil, now: at(9, 59), wantCode: "closed"},
		{name: "at open", settings: nil, now: at(10, 0)},
		{name: "after close", settings: nil, now: at(23, 0), wantCode: "closed"},
		{
			name:     "inside last entry window",
			settings: map[string]any{"last_entry_minutes": 30},
			now:      at(22, 40),
			wantCode: "last_entry_passed",
		},
		{
			name:     "before last entry",
			settings: map[string]any{"last_entry_minutes": 30},
			now:      at(22, 29),
		},
		{
			name:     "overnight after midnight",
			settings: map[string]any{"open": "18:00", "close": "02:00", "last_entry_minutes": 60},
			now:      at(0, 30),
		},
		{
			name:     "overnight last entry",
			settings: map[string]any{"open": "18:00", "close": "02:00", "last_entry_minutes": 60},
			now:      at(1, 30),
			wantCode: "last_entry_passed",
		},
		{
			name:     "overnight closed",
			settings: map[string]any{"open": "18:00", "close": "02:00"},
			now:      at(3, 0),
			wantCode: "closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewOpeningHoursFilter()
			require.NoError(t, f.ValidateConfig(tt.settings))

			result := f.Check(context.Background(), Request{Now: tt.now}, nil)
			if tt.wantCode == "" {
				assert.True(t, result.Accepted)
			} else {
				assert.False(t, result.Accepted)
				assert.Equal(t, tt.wantCode, result.Code)
			}
		})
	}
}
