package tier

import (
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// Catalog is the fixed, ordered set of tiers known to the lounge.
type Catalog struct {
	tiers []*Tier
	byID  map[string]*Tier
}

// NewCatalog builds a catalog, preserving the given order.
func NewCatalog(tiers ...Tier) (*Catalog, error) {
	if len(tiers) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		tiers: make([]*Tier, 0, len(tiers)),
		byID:  make(map[string]*Tier, len(tiers)),
	}
	for i := range tiers {
		t := tiers[i]
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.byID[t.ID]; exists {
			return nil, errors.Wrapf(ErrDuplicateTier, "tier id %s", t.ID)
		}
		c.tiers = append(c.tiers, &t)
		c.byID[t.ID] = &t
	}
	return c, nil
}

// Get returns the tier with the given id.
func (c *Catalog) Get(id string) (*Tier, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// All returns the tiers in catalog order.
func (c *Catalog) All() []*Tier {
	out := make([]*Tier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

// Len returns the number of tiers.
func (c *Catalog) Len() int {
	return len(c.tiers)
}

// DefaultTiers returns the lounge price chart. One controller is included
// with every setup.
func DefaultTiers() []Tier {
	return []Tier{
		{
			ID:          "27in",
			DisplayName: `27" Gaming Setup`,
			Prices: Prices{
				Min30:  decimal.NewFromInt(60),
				Min60:  decimal.NewFromInt(80),
				Min90:  decimal.NewFromInt(130),
				Min120: decimal.NewFromInt(160),
			},
			ExtraControllerCharge: decimal.NewFromInt(40),
			MaxControllers:        4,
			Units:                 1,
		},
		{
			ID:          "32in",
			DisplayName: `32" Premium Setup`,
			Prices: Prices{
				Min30:  decimal.NewFromInt(70),
				Min60:  decimal.NewFromInt(100),
				Min90:  decimal.NewFromInt(150),
				Min120: decimal.NewFromInt(200),
			},
			ExtraControllerCharge: decimal.NewFromInt(50),
			MaxControllers:        4,
			Units:                 1,
		},
		{
			ID:          "55in",
			DisplayName: `55" Ultimate Setup`,
			Prices: Prices{
				Min30:  decimal.NewFromInt(80),
				Min60:  decimal.NewFromInt(120),
				Min90:  decimal.NewFromInt(180),
				Min120: decimal.NewFromInt(240),
			},
			ExtraControllerCharge: decimal.NewFromInt(60),
			MaxControllers:        4,
			Units:                 1,
		},
	}
}

// DefaultCatalog returns a catalog built from DefaultTiers.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultTiers()...)
	if err != nil {
		panic(err)
	}
	return c
}
