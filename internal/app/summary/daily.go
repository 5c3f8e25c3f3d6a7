// Package summary folds station snapshots into the day's totals.
package summary

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/osa030/loungeclock/internal/domain/station"
)

// TierTotal is the per-tier share of the day.
type TierTotal struct {
	Count    int             `json:"count"`
	Earnings decimal.Decimal `json:"earnings"`
}

// Board counts stations by status, regardless of date.
type Board struct {
	Active    int `json:"active"`
	Paused    int `json:"paused"`
	Available int `json:"available"`
	Completed int `json:"completed"`
}

// Daily is the summary of sessions started on Date.
type Daily struct {
	Date     string               `json:"date"`
	Earnings decimal.Decimal      `json:"earnings"`
	Players  int                  `json:"players"`
	Seconds  int64                `json:"seconds"`
	ByTier   map[string]TierTotal `json:"byTier"`
	Board    Board                `json:"board"`
}

// Compute summarizes the stations whose session started on the calendar day
// of today, in today's location. Each station contributes its current cost:
// frozen when completed, at-pause when paused, live when active.
func Compute(views []station.View, today time.Time) Daily {
	d := Daily{
		Date:     today.Format(time.DateOnly),
		Earnings: decimal.Zero,
		ByTier:   make(map[string]TierTotal),
	}

	y, m, day := today.Date()
	loc := today.Location()

	for _, v := range views {
		countBoard(&d.Board, v.Status)

		if v.Status == station.StatusAvailable || v.StartTime == nil {
			continue
		}
		sy, sm, sd := v.StartTime.In(loc).Date()
		if sy != y || sm != m || sd != day {
			continue
		}

		d.Players++
		d.Earnings = d.Earnings.Add(v.Cost)
		d.Seconds += v.DurationSeconds

		tt := d.ByTier[v.TierID]
		tt.Count++
		tt.Earnings = tt.Earnings.Add(v.Cost)
		d.ByTier[v.TierID] = tt
	}
	return d
}

func countBoard(b *Board, s station.Status) {
	switch s {
	case station.StatusActive:
		b.Active++
	case station.StatusPaused:
		b.Paused++
	case station.StatusCompleted:
		b.Completed++
	default:
		b.Available++
	}
}

// Hours returns the summed session time in hours.
func (d Daily) Hours() float64 {
	return float64(d.Seconds) / 3600
}
