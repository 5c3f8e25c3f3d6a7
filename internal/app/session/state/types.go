// Package state provides lounge run state management.
package state

// Phase represents the lifecycle phase of the lounge manager.
type Phase int

const (
	PhaseWaiting Phase = iota // Created, state not loaded yet
	PhaseOpen                 // Loaded and ticking
	PhaseClosed               // Shut down
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseOpen:
		return "open"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Info is a point-in-time copy of the run state.
type Info struct {
	RunID    string  `json:"runId"`
	Phase    Phase   `json:"phase"`
	OpenedAt *string `json:"openedAt,omitempty"`
	Restored bool    `json:"restored"`
}
