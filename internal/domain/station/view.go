package station

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/osa030/loungeclock/internal/domain/sessionclock"
)

// View is an immutable copy of a station for presentation and aggregation.
type View struct {
	ID               string          `json:"id"`
	TierID           string          `json:"tierId"`
	TierName         string          `json:"tierName"`
	Status           Status          `json:"status"`
	SessionID        string          `json:"sessionId,omitempty"`
	PlayerName       string          `json:"playerName,omitempty"`
	Phone            string          `json:"phone,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	Controllers      int             `json:"controllers,omitempty"`
	RequestedMinutes int             `json:"requestedMinutes,omitempty"`
	ProjectedCost    decimal.Decimal `json:"projectedCost"`
	StartTime        *time.Time      `json:"startTime,omitempty"`
	EndTime          *time.Time      `json:"endTime,omitempty"`
	PausedSince      *time.Time      `json:"pausedSince,omitempty"`
	PausedSeconds    int64           `json:"pausedSeconds"`
	DurationSeconds  int64           `json:"durationSeconds"`
	Cost             decimal.Decimal `json:"cost"`
}

// View returns a snapshot of the station.
func (s *Station) View() View {
	v := View{
		ID:       s.ID,
		TierID:   s.Tier.ID,
		TierName: s.Tier.DisplayName,
		Status:   s.Status(),
		Cost:     s.Cost(),
	}

	sess, ok := sessionOf(s.state)
	if !ok {
		return v
	}

	start := sess.StartTime
	v.SessionID = sess.ID
	v.PlayerName = sess.PlayerName
	v.Phone = sess.Phone
	v.Notes = sess.Notes
	v.Controllers = sess.Controllers
	v.RequestedMinutes = sess.RequestedMinutes
	v.ProjectedCost = sess.ProjectedCost
	v.StartTime = &start
	v.PausedSeconds = sessionclock.Seconds(sess.PausedDuration)
	v.DurationSeconds = sessionclock.Seconds(s.Duration())

	switch st := s.state.(type) {
	case Paused:
		since := st.Since
		v.PausedSince = &since
	case Completed:
		end := st.EndTime
		v.EndTime = &end
	}
	return v
}
