package filter

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/loungeclock/internal/domain/station"
)

const minutesPerDay = 24 * 60

// OpeningHoursConfig represents the configuration for OpeningHoursFilter.
// A close time at or before the open time means the lounge runs past
// midnight.
type OpeningHoursConfig struct {
	Open             string `yaml:"open" mapstructure:"open" default:"10:00" validate:"datetime=15:04"`
	Close            string `yaml:"close" mapstructure:"close" default:"23:00" validate:"datetime=15:04"`
	LastEntryMinutes int    `yaml:"last_entry_minutes" mapstructure:"last_entry_minutes" validate:"gte=0,lt=1440"`
}

// OpeningHoursFilter checks if new sessions are still being taken.
type OpeningHoursFilter struct {
	open      int
	closing   int
	lastEntry int
	enabled   bool
}

// NewOpeningHoursFilter creates a new opening hours filter.
func NewOpeningHoursFilter() *OpeningHoursFilter {
	return &OpeningHoursFilter{}
}

func (f *OpeningHoursFilter) Name() string {
	return "opening_hours_filter"
}

func (f *OpeningHoursFilter) Description() string {
	return "Checks if the lounge is open and taking new sessions"
}

func (f *OpeningHoursFilter) ReturnCodes() []string {
	return []string{"closed", "last_entry_passed"}
}

func (f *OpeningHoursFilter) ValidateConfig(settings map[string]any) error {
	var config OpeningHoursConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}

	open, _ := time.Parse("15:04", config.Open)
	closeAt, _ := time.Parse("15:04", config.Close)
	f.open = open.Hour()*60 + open.Minute()
	f.closing = closeAt.Hour()*60 + closeAt.Minute()
	f.lastEntry = config.LastEntryMinutes

	if span(f.open, f.closing) <= f.lastEntry {
		return errors.New("last_entry_minutes leaves no time to start a session")
	}
	f.enabled = true
	zlog.Info().Msgf("opening hours filter config: %+v", config)
	return nil
}

func (f *OpeningHoursFilter) Check(_ context.Context, req Request, _ []station.View) Result {
	if !f.enabled {
		return Accept()
	}

	now := req.Now.Hour()*60 + req.Now.Minute()
	if !within(now, f.open, f.closing) {
		return Reject("closed")
	}
	if !within(now, f.open, f.closing-f.lastEntry) {
		return Reject("last_entry_passed")
	}
	return Accept()
}

// span returns the open length in minutes; equal times mean all day.
func span(open, closing int) int {
	d := ((closing-open)%minutesPerDay + minutesPerDay) % minutesPerDay
	if d == 0 {
		return minutesPerDay
	}
	return d
}

// within reports whether minute m of the day falls in [open, close).
func within(m, open, closing int) bool {
	return ((m-open)%minutesPerDay+minutesPerDay)%minutesPerDay < span(open, closing)
}

func init() {
	Register("opening_hours_filter", func() Filter {
		return &OpeningHoursFilter{}
	})
}
