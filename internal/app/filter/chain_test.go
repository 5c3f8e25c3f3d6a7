package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/loungeclock/internal/domain/station"
)

type stubFilter struct {
	name   string
	result Result
	calls  int
}

func (f *stubFilter) Name() string                        { return f.name }
func (f *stubFilter) Description() string                 { return "stub" }
func (f *stubFilter) ReturnCodes() []string               { return []string{f.result.Code} }
func (f *stubFilter) ValidateConfig(map[string]any) error { return nil }
func (f *stubFilter) Check(context.Context, Request, []station.View) Result {
	f.calls++
	return f.result
}

func TestChain_Execute(t *testing.T) {
	first := &stubFilter{name: "first", result: Accept()}
	second := &stubFilter{name: "second", result: Reject("nope")}
	third := &stubFilter{name: "third", result: Accept()}

	c := NewChain()
	c.Add(first)
	c.Add(second)
	c.Add(third)

	result := c.Execute(context.Background(), Request{}, nil)
	assert.False(t, result.Accepted)
	assert.Equal(t, "nope", result.Code)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 0, third.calls)
}

func TestChain_NilAndEmptyAccept(t *testing.T) {
	var c *Chain
	assert.True(t, c.Execute(context.Background(), Request{}, nil).Accepted)
	assert.True(t, NewChain().Execute(context.Background(), Request{}, nil).Accepted)
}

func TestFromConfig(t *testing.T) {
	c, err := FromConfig(map[string]Settings{
		"session_length_filter":   {Enabled: true, Settings: map[string]any{"max_minutes": 240}},
		"duplicate_player_filter": {Enabled: true},
		"opening_hours_filter":    {Enabled: false},
	})
	require.NoError(t, err)

	names := make([]string, 0, len(c.Filters()))
	for _, f := range c.Filters() {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"duplicate_player_filter", "session_length_filter"}, names)
}

func TestFromConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  map[string]Settings
	}{
		{
			name: "unknown filter",
			cfg:  map[string]Settings{"coin_slot_filter": {Enabled: true}},
		},
		{
			name: "invalid settings",
			cfg: map[string]Settings{
				"session_length_filter": {Enabled: true, Settings: map[string]any{"min_minutes": 90, "max_minutes": 60}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromConfig(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestRegisteredFilters(t *testing.T) {
	reg := GetRegistered()
	for _, name := range []string{"session_length_filter", "duplicate_player_filter", "opening_hours_filter"} {
		factory, ok := reg[name]
		require.True(t, ok, name)
		f := factory()
		assert.Equal(t, name, f.Name())
		assert.NotEmpty(t, f.Description())
		assert.NotEmpty(t, f.ReturnCodes())
	}
}
