package station

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrUnknownStatus is returned when a status string cannot be parsed.
var ErrUnknownStatus = errors.New("unknown station status")

// Status represents the lifecycle state of a station.
type Status int

const (
	StatusAvailable Status = iota // Free, no player
	StatusActive                  // Clock running
	StatusPaused                  // Clock frozen
	StatusCompleted               // Ended, duration and cost frozen
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusActive:
		return "active"
	case StatusPaused:
		return "paused"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Label returns the upper-case label shown on the station board.
func (s Status) Label() string {
	return strings.ToUpper(s.String())
}

// Occupied reports whether a player holds the station.
func (s Status) Occupied() bool {
	return s == StatusActive || s == StatusPaused
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStatus parses a status name, case-insensitively.
func ParseStatus(v string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "available":
		return StatusAvailable, nil
	case "active":
		return StatusActive, nil
	case "paused":
		return StatusPaused, nil
	case "completed":
		return StatusCompleted, nil
	default:
		return 0, errors.Wrapf(ErrUnknownStatus, "status %q", v)
	}
}
