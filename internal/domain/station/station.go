// Package station provides the Station entity and its state machine.
package station

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/osa030/loungeclock/internal/domain/pricing"
	"github.com/osa030/loungeclock/internal/domain/sessionclock"
	"github.com/osa030/loungeclock/internal/domain/tier"
)

// Occupant describes the player starting a session.
type Occupant struct {
	SessionID        string
	PlayerName       string
	Phone            string
	Notes            string
	Controllers      int
	RequestedMinutes int
}

// Live is the duration/cost pair refreshed every tick while active.
type Live struct {
	Duration time.Duration
	Cost     decimal.Decimal
}

// Station is one physical seat. Its tier is fixed for its lifetime.
type Station struct {
	ID    string
	Tier  *tier.Tier
	state State
	live  Live
}

// New creates an available station.
func New(id string, t *tier.Tier) *Station {
	return &Station{
		ID:    id,
		Tier:  t,
		state: Available{},
	}
}

// State returns the current state.
func (s *Station) State() State {
	return s.state
}

// Status returns the current status.
func (s *Station) Status() Status {
	return s.state.Status()
}

// Live returns the last live snapshot.
func (s *Station) Live() Live {
	return s.live
}

// Start moves an available station to active.
func (s *Station) Start(now time.Time, occ Occupant) bool {
	if _, ok := s.state.(Available); !ok {
		return false
	}
	controllers := pricing.ClampControllers(occ.Controllers)
	s.state = Active{Session: Session{
		ID:               occ.SessionID,
		PlayerName:       strings.TrimSpace(occ.PlayerName),
		Phone:            strings.TrimSpace(occ.Phone),
		Notes:            occ.Notes,
		Controllers:      controllers,
		RequestedMinutes: occ.RequestedMinutes,
		ProjectedCost:    pricing.Cost(s.Tier, occ.RequestedMinutes, controllers),
		StartTime:        now,
	}}
	s.live = Live{Cost: pricing.Cost(s.Tier, 0, controllers)}
	return true
}

// Pause freezes an active session at now.
func (s *Station) Pause(now time.Time) bool {
	a, ok := s.state.(Active)
	if !ok {
		return false
	}
	d := sessionclock.ActiveDuration(a.Session.StartTime, a.Session.PausedDuration, nil, now)
	cost := pricing.CostFor(s.Tier, d, a.Session.Controllers)
	s.state = Paused{Session: a.Session, Since: now, Duration: d, Cost: cost}
	s.live = Live{Duration: d, Cost: cost}
	return true
}

// Resume restarts a paused session, adding the pause gap to the
// accumulated paused duration.
func (s *Station) Resume(now time.Time) bool {
	p, ok := s.state.(Paused)
	if !ok {
		return false
	}
	gap := now.Sub(p.Since)
	if gap < 0 {
		gap = 0
	}
	sess := p.Session
	sess.PausedDuration += gap
	s.state = Active{Session: sess}
	return true
}

// End completes an active or paused session, freezing duration and cost.
func (s *Station) End(now time.Time) bool {
	var sess Session
	var pausedSince *time.Time
	switch v := s.state.(type) {
	case Active:
		sess = v.Session
	case Paused:
		sess = v.Session
		since := v.Since
		pausedSince = &since
	default:
		return false
	}
	d := sessionclock.ActiveDuration(sess.StartTime, sess.PausedDuration, pausedSince, now)
	cost := pricing.CostFor(s.Tier, d, sess.Controllers)
	s.state = Completed{Session: sess, EndTime: now, Duration: d, TotalCost: cost}
	s.live = Live{Duration: d, Cost: cost}
	return true
}

// Reset clears the station back to available.
func (s *Station) Reset() bool {
	if _, ok := s.state.(Available); ok {
		return false
	}
	s.state = Available{}
	s.live = Live{}
	return true
}

// Recompute refreshes the live snapshot of an active station.
// Other states are left untouched.
func (s *Station) Recompute(now time.Time) bool {
	a, ok := s.state.(Active)
	if !ok {
		return false
	}
	d := sessionclock.ActiveDuration(a.Session.StartTime, a.Session.PausedDuration, nil, now)
	s.live = Live{Duration: d, Cost: pricing.CostFor(s.Tier, d, a.Session.Controllers)}
	return true
}

// Cost returns the amount the station contributes right now: frozen for
// completed, at-pause for paused, live for active, zero when available.
func (s *Station) Cost() decimal.Decimal {
	switch v := s.state.(type) {
	case Completed:
		return v.TotalCost
	case Paused:
		return v.Cost
	case Active:
		return s.live.Cost
	default:
		return decimal.Zero
	}
}

// Duration returns the active duration matching Cost.
func (s *Station) Duration() time.Duration {
	switch v := s.state.(type) {
	case Completed:
		return v.Duration
	case Paused:
		return v.Duration
	case Active:
		return s.live.Duration
	default:
		return 0
	}
}
