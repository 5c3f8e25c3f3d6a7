package station

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session holds the occupying player's data. It exists only while a station
// is active, paused or completed.
type Session struct {
	ID               string
	PlayerName       string
	Phone            string
	Notes            string
	Controllers      int
	RequestedMinutes int
	ProjectedCost    decimal.Decimal
	StartTime        time.Time
	PausedDuration   time.Duration
}

// State is the tagged station state. Each variant carries only the fields
// valid for its status.
type State interface {
	Status() Status
	isState()
}

// Available is a free station.
type Available struct{}

// Active is a running session.
type Active struct {
	Session Session
}

// Paused is a session whose clock is frozen since Since.
type Paused struct {
	Session Session
	Since   time.Time
	// Duration and Cost are the values frozen at Since.
	Duration time.Duration
	Cost     decimal.Decimal
}

// Completed is an ended session.
type Completed struct {
	Session   Session
	EndTime   time.Time
	Duration  time.Duration
	TotalCost decimal.Decimal
}

func (Available) Status() Status { return StatusAvailable }
func (Active) Status() Status    { return StatusActive }
func (Paused) Status() Status    { return StatusPaused }
func (Completed) Status() Status { return StatusCompleted }

func (Available) isState() {}
func (Active) isState()    {}
func (Paused) isState()    {}
func (Completed) isState() {}

// sessionOf returns the session of an occupied or completed state.
func sessionOf(s State) (Session, bool) {
	switch v := s.(type) {
	case Active:
		return v.Session, true
	case Paused:
		return v.Session, true
	case Completed:
		return v.Session, true
	default:
		return Session{}, false
	}
}
