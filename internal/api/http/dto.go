package httpapi

import (
	"time"

	"github.com/osa030/loungeclock/internal/app/format"
	"github.com/osa030/loungeclock/internal/app/notification"
	"github.com/osa030/loungeclock/internal/app/summary"
	"github.com/osa030/loungeclock/internal/domain/station"
	"github.com/osa030/loungeclock/internal/domain/tier"
)

// stationResponse is a station view with display strings.
type stationResponse struct {
	station.View
	StatusLabel   string `json:"statusLabel"`
	CostText      string `json:"costText"`
	ProjectedText string `json:"projectedText,omitempty"`
	DurationText  string `json:"durationText"`
	StartedAt     string `json:"startedAt,omitempty"`
	EndedAt       string `json:"endedAt,omitempty"`
	PausedAt      string `json:"pausedAt,omitempty"`
}

func newStationResponse(v station.View) stationResponse {
	r := stationResponse{
		View:         v,
		StatusLabel:  v.Status.Label(),
		CostText:     format.Currency(v.Cost),
		DurationText: format.HMS(v.DurationSeconds),
	}
	if v.Status != station.StatusAvailable {
		r.ProjectedText = format.Currency(v.ProjectedCost)
	}
	if v.StartTime != nil {
		r.StartedAt = format.Clock(*v.StartTime)
	}
	if v.EndTime != nil {
		r.EndedAt = format.Clock(*v.EndTime)
	}
	if v.PausedSince != nil {
		r.PausedAt = format.Clock(*v.PausedSince)
	}
	return r
}

func newStationResponses(views []station.View) []stationResponse {
	out := make([]stationResponse, 0, len(views))
	for _, v := range views {
		out = append(out, newStationResponse(v))
	}
	return out
}

// summaryResponse is the daily summary with display strings.
type summaryResponse struct {
	summary.Daily
	DateText     string  `json:"dateText"`
	EarningsText string  `json:"earningsText"`
	Hours        float64 `json:"hours"`
	PlayTimeText string  `json:"playTimeText"`
}

func newSummaryResponse(d summary.Daily) summaryResponse {
	r := summaryResponse{
		Daily:        d,
		DateText:     d.Date,
		EarningsText: format.Currency(d.Earnings),
		Hours:        d.Hours(),
		PlayTimeText: format.Readable(d.Seconds),
	}
	if day, err := time.Parse(time.DateOnly, d.Date); err == nil {
		r.DateText = format.LongDate(day)
	}
	return r
}

// tierResponse is a price chart row.
type tierResponse struct {
	*tier.Tier
	PriceText map[string]string `json:"priceText"`
	ExtraText string            `json:"extraControllerText"`
}

func newTierResponses(tiers []*tier.Tier) []tierResponse {
	out := make([]tierResponse, 0, len(tiers))
	for _, t := range tiers {
		prices := make(map[string]string, len(tier.Bands))
		for _, b := range tier.Bands {
			prices[bandKey(b)] = format.Currency(t.Prices.For(b))
		}
		out = append(out, tierResponse{
			Tier:      t,
			PriceText: prices,
			ExtraText: format.Currency(t.ExtraControllerCharge),
		})
	}
	return out
}

func bandKey(b tier.Band) string {
	switch b {
	case tier.Band30:
		return "30m"
	case tier.Band60:
		return "1h"
	case tier.Band90:
		return "1h30m"
	default:
		return "2h"
	}
}

// eventPayload is the data of one SSE event.
type eventPayload struct {
	SequenceNo uint64               `json:"sequenceNo"`
	Kind       string               `json:"kind"`
	At         time.Time            `json:"at"`
	Change     *notification.Change `json:"change,omitempty"`
	Stations   []stationResponse    `json:"stations"`
	Summary    summaryResponse      `json:"summary"`
}

func newEventPayload(n *notification.Notification) eventPayload {
	return eventPayload{
		SequenceNo: n.SequenceNo,
		Kind:       n.Kind.String(),
		At:         n.At,
		Change:     n.Change,
		Stations:   newStationResponses(n.Stations),
		Summary:    newSummaryResponse(n.Summary),
	}
}
