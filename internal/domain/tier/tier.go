// Package tier provides the StationTier domain entity and the tier catalog.
package tier

import (
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCatalog  = errors.New("tier catalog is empty")
	ErrDuplicateTier = errors.New("duplicate tier id")
	ErrInvalidTier   = errors.New("invalid tier")
)

// Band is one of the canonical duration bands, in minutes.
type Band int

const (
	Band30  Band = 30
	Band60  Band = 60
	Band90  Band = 90
	Band120 Band = 120
)

// Bands lists the canonical bands in ascending order.
var Bands = []Band{Band30, Band60, Band90, Band120}

// Prices is the banded price table of a tier.
type Prices struct {
	Min30  decimal.Decimal `json:"min30"`
	Min60  decimal.Decimal `json:"min60"`
	Min90  decimal.Decimal `json:"min90"`
	Min120 decimal.Decimal `json:"min120"`
}

// For returns the price of the given band.
func (p Prices) For(b Band) decimal.Decimal {
	switch b {
	case Band30:
		return p.Min30
	case Band60:
		return p.Min60
	case Band90:
		return p.Min90
	default:
		return p.Min120
	}
}

// Tier represents a physical station class with its own price table.
// Tiers are configuration data: built once, shared by pointer, never mutated.
type Tier struct {
	ID                    string          `json:"id"`
	DisplayName           string          `json:"displayName"`
	Prices                Prices          `json:"prices"`
	ExtraControllerCharge decimal.Decimal `json:"extraControllerCharge"`
	MaxControllers        int             `json:"maxControllers"`
	Units                 int             `json:"units"`
}

// Validate checks the tier for internal consistency.
func (t Tier) Validate() error {
	if t.ID == "" {
		return errors.Wrap(ErrInvalidTier, "tier id is empty")
	}
	prev := decimal.Zero
	for _, b := range Bands {
		p := t.Prices.For(b)
		if p.IsNegative() {
			return errors.Wrapf(ErrInvalidTier, "tier %s: %d-minute price is negative", t.ID, b)
		}
		if p.LessThan(prev) {
			return errors.Wrapf(ErrInvalidTier, "tier %s: %d-minute price is below the previous band", t.ID, b)
		}
		prev = p
	}
	if t.ExtraControllerCharge.IsNegative() {
		return errors.Wrapf(ErrInvalidTier, "tier %s: extra controller charge is negative", t.ID)
	}
	if t.MaxControllers < 1 {
		return errors.Wrapf(ErrInvalidTier, "tier %s: max controllers must be at least 1", t.ID)
	}
	if t.Units < 1 {
		return errors.Wrapf(ErrInvalidTier, "tier %s: units must be at least 1", t.ID)
	}
	return nil
}
