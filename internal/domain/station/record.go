package station

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/osa030/loungeclock/internal/domain/pricing"
	"github.com/osa030/loungeclock/internal/domain/sessionclock"
	"github.com/osa030/loungeclock/internal/domain/tier"
)

// ErrMalformedRecord is returned when a persisted record cannot be restored.
var ErrMalformedRecord = errors.New("malformed station record")

// Record is the flat, JSON-serializable form of a station.
// Timestamps are ISO-8601 strings; durations are seconds.
type Record struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"`
	Name             string          `json:"name"`
	Status           string          `json:"status"`
	SessionID        string          `json:"sessionId,omitempty"`
	PlayerName       string          `json:"playerName"`
	PlayerPhone      string          `json:"playerPhone"`
	Notes            string          `json:"notes"`
	ControllerCount  int             `json:"controllerCount"`
	RequestedMinutes int             `json:"requestedMinutes"`
	ProjectedAmount  decimal.Decimal `json:"projectedAmount"`
	StartTime        string          `json:"startTime,omitempty"`
	EndTime          string          `json:"endTime,omitempty"`
	LastPausedTime   string          `json:"lastPausedTime,omitempty"`
	PausedDuration   float64         `json:"pausedDuration"`
	Duration         int64           `json:"duration"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
}

// Record returns the flat form of the station.
func (s *Station) Record() Record {
	r := Record{
		ID:     s.ID,
		Type:   s.Tier.ID,
		Name:   s.Tier.DisplayName,
		Status: s.Status().String(),
	}

	sess, ok := sessionOf(s.state)
	if !ok {
		return r
	}
	r.SessionID = sess.ID
	r.PlayerName = sess.PlayerName
	r.PlayerPhone = sess.Phone
	r.Notes = sess.Notes
	r.ControllerCount = sess.Controllers
	r.RequestedMinutes = sess.RequestedMinutes
	r.ProjectedAmount = sess.ProjectedCost
	r.StartTime = formatTime(sess.StartTime)
	r.PausedDuration = sess.PausedDuration.Seconds()
	r.Duration = sessionclock.Seconds(s.Duration())
	r.TotalAmount = s.Cost()

	switch st := s.state.(type) {
	case Paused:
		r.LastPausedTime = formatTime(st.Since)
	case Completed:
		r.EndTime = formatTime(st.EndTime)
	}
	return r
}

// FromRecord restores a station from its flat form. Derived values of
// active and paused stations are recomputed from the timestamps; completed
// stations keep their frozen duration and total.
func FromRecord(r Record, catalog *tier.Catalog, now time.Time) (*Station, error) {
	if r.ID == "" {
		return nil, errors.Wrap(ErrMalformedRecord, "missing id")
	}
	t, ok := catalog.Get(r.Type)
	if !ok {
		return nil, errors.Wrapf(ErrMalformedRecord, "station %s: unknown tier %q", r.ID, r.Type)
	}
	status, err := ParseStatus(r.Status)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedRecord, "station %s: %v", r.ID, err)
	}

	s := New(r.ID, t)
	if status == StatusAvailable {
		return s, nil
	}

	if r.PlayerName == "" {
		return nil, errors.Wrapf(ErrMalformedRecord, "station %s: missing player name", r.ID)
	}
	if r.ControllerCount < 1 {
		return nil, errors.Wrapf(ErrMalformedRecord, "station %s: controller count %d", r.ID, r.ControllerCount)
	}
	if r.PausedDuration < 0 {
		return nil, errors.Wrapf(ErrMalformedRecord, "station %s: negative paused duration", r.ID)
	}
	start, err := parseTime(r.StartTime)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedRecord, "station %s: startTime: %v", r.ID, err)
	}

	sess := Session{
		ID:               r.SessionID,
		PlayerName:       r.PlayerName,
		Phone:            r.PlayerPhone,
		Notes:            r.Notes,
		Controllers:      r.ControllerCount,
		RequestedMinutes: r.RequestedMinutes,
		ProjectedCost:    r.ProjectedAmount,
		StartTime:        start,
		PausedDuration:   time.Duration(r.PausedDuration * float64(time.Second)),
	}

	switch status {
	case StatusActive:
		s.state = Active{Session: sess}
		s.Recompute(now)
	case StatusPaused:
		since, err := parseTime(r.LastPausedTime)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedRecord, "station %s: lastPausedTime: %v", r.ID, err)
		}
		d := sessionclock.ActiveDuration(start, sess.PausedDuration, &since, now)
		cost := pricing.CostFor(t, d, sess.Controllers)
		s.state = Paused{Session: sess, Since: since, Duration: d, Cost: cost}
		s.live = Live{Duration: d, Cost: cost}
	case StatusCompleted:
		end, err := parseTime(r.EndTime)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedRecord, "station %s: endTime: %v", r.ID, err)
		}
		if r.Duration < 0 || r.TotalAmount.IsNegative() {
			return nil, errors.Wrapf(ErrMalformedRecord, "station %s: negative totals", r.ID)
		}
		d := time.Duration(r.Duration) * time.Second
		s.state = Completed{Session: sess, EndTime: end, Duration: d, TotalCost: r.TotalAmount}
		s.live = Live{Duration: d, Cost: r.TotalAmount}
	}
	return s, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("timestamp is empty")
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.Local(), nil
}
