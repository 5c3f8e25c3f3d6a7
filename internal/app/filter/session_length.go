package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/loungeclock/internal/domain/station"
)

// SessionLengthConfig represents the configuration for SessionLengthFilter.
type SessionLengthConfig struct {
	MinMinutes int `yaml:"min_minutes" mapstructure:"min_minutes" default:"1" validate:"gte=1"`
	MaxMinutes int `yaml:"max_minutes" mapstructure:"max_minutes" validate:"gte=0"`
}

// SessionLengthFilter checks if the requested minutes are within allowed limits.
type SessionLengthFilter struct {
	config *SessionLengthConfig
}

// NewSessionLengthFilter creates a new session length filter.
func NewSessionLengthFilter() *SessionLengthFilter {
	return &SessionLengthFilter{}
}

func (f *SessionLengthFilter) Name() string {
	return "session_length_filter"
}

func (f *SessionLengthFilter) Description() string {
	return "Checks if the requested session length is within allowed limits"
}

func (f *SessionLengthFilter) ReturnCodes() []string {
	return []string{"session_length_out_of_range"}
}

func (f *SessionLengthFilter) ValidateConfig(settings map[string]any) error {
	var config SessionLengthConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}

	// max_minutes of 0 means no limit
	if config.MaxMinutes > 0 && config.MinMinutes > config.MaxMinutes {
		return errors.New("min_minutes cannot be greater than max_minutes")
	}
	f.config = &config
	zlog.Info().Msgf("session length filter config: %+v", config)
	return nil
}

func (f *SessionLengthFilter) Check(_ context.Context, req Request, _ []station.View) Result {
	// If config is not set, accept all sessions
	if f.config == nil {
		return Accept()
	}
	if req.RequestedMinutes < f.config.MinMinutes {
		return Reject("session_length_out_of_range")
	}
	if f.config.MaxMinutes > 0 && req.RequestedMinutes > f.config.MaxMinutes {
		return Reject("session_length_out_of_range")
	}
	return Accept()
}

func init() {
	Register("session_length_filter", func() Filter {
		return &SessionLengthFilter{}
	})
}
