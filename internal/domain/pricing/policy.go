// Package pricing provides the banded session pricing policy.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/osa030/loungeclock/internal/domain/tier"
)

const (
	// GraceMinutes is the free window immediately past the 120-minute band.
	GraceMinutes = 30
	// BlockMinutes is the size of each chargeable overage block.
	BlockMinutes = 30
)

// Cost returns the amount owed for a session of elapsedMinutes with the
// given controller count. Inputs must already be clamped by the caller.
func Cost(t *tier.Tier, elapsedMinutes, controllerCount int) decimal.Decimal {
	return Base(t, elapsedMinutes).Add(Surcharge(t, controllerCount))
}

// Base returns the banded cost without the controller surcharge.
func Base(t *tier.Tier, elapsedMinutes int) decimal.Decimal {
	m := elapsedMinutes
	switch {
	case m <= int(tier.Band30):
		return t.Prices.Min30
	case m <= int(tier.Band60):
		return t.Prices.Min60
	case m <= int(tier.Band90):
		return t.Prices.Min90
	case m <= int(tier.Band120):
		return t.Prices.Min120
	}

	overage := m - int(tier.Band120)
	if overage <= GraceMinutes {
		return t.Prices.Min120
	}
	chargeable := overage - GraceMinutes
	blocks := (chargeable + BlockMinutes - 1) / BlockMinutes
	return t.Prices.Min120.Add(t.Prices.Min30.Mul(decimal.NewFromInt(int64(blocks))))
}

// Surcharge returns the charge for controllers beyond the included one.
func Surcharge(t *tier.Tier, controllerCount int) decimal.Decimal {
	extra := controllerCount - 1
	if extra <= 0 {
		return decimal.Zero
	}
	return t.ExtraControllerCharge.Mul(decimal.NewFromInt(int64(extra)))
}

// ElapsedMinutes rounds an active duration up to whole minutes.
// Negative durations clamp to zero.
func ElapsedMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}

// ClampControllers returns controllerCount clamped to at least one.
func ClampControllers(controllerCount int) int {
	if controllerCount < 1 {
		return 1
	}
	return controllerCount
}

// CostFor prices an active duration, clamping both inputs.
func CostFor(t *tier.Tier, active time.Duration, controllerCount int) decimal.Decimal {
	return Cost(t, ElapsedMinutes(active), ClampControllers(controllerCount))
}
