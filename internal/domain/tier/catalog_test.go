package tier

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTier(id string) Tier {
	return Tier{
		ID:          id,
		DisplayName: id,
		Prices: Prices{
			Min30:  decimal.NewFromInt(40),
			Min60:  decimal.NewFromInt(60),
			Min90:  decimal.NewFromInt(100),
			Min120: decimal.NewFromInt(120),
		},
		ExtraControllerCharge: decimal.NewFromInt(40),
		MaxControllers:        4,
		Units:                 1,
	}
}

func TestTier_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(tr *Tier)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Tier) {}},
		{name: "free tier", mutate: func(tr *Tier) { tr.Prices = Prices{} }},
		{name: "empty id", mutate: func(tr *Tier) { tr.ID = "" }, wantErr: true},
		{name: "negative price", mutate: func(tr *Tier) { tr.Prices.Min30 = decimal.NewFromInt(-1) }, wantErr: true},
		{name: "descending bands", mutate: func(tr *Tier) { tr.Prices.Min90 = decimal.NewFromInt(50) }, wantErr: true},
		{name: "negative surcharge", mutate: func(tr *Tier) { tr.ExtraControllerCharge = decimal.NewFromInt(-5) }, wantErr: true},
		{name: "no controllers", mutate: func(tr *Tier) { tr.MaxControllers = 0 }, wantErr: true},
		{name: "no units", mutate: func(tr *Tier) { tr.Units = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := sampleTier("27in")
			tt.mutate(&tr)
			err := tr.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTier)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPrices_For(t *testing.T) {
	p := sampleTier("27in").Prices
	assert.True(t, decimal.NewFromInt(40).Equal(p.For(Band30)))
	assert.True(t, decimal.NewFromInt(60).Equal(p.For(Band60)))
	assert.True(t, decimal.NewFromInt(100).Equal(p.For(Band90)))
	assert.True(t, decimal.NewFromInt(120).Equal(p.For(Band120)))
}

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog(sampleTier("b"), sampleTier("a"))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	all := c.All()
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, "a", all[1].ID)

	tr, ok := c.Get("a")
	require.True(t, ok)
	assert.Same(t, all[1], tr)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestNewCatalog_Errors(t *testing.T) {
	_, err := NewCatalog()
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = NewCatalog(sampleTier("a"), sampleTier("a"))
	assert.ErrorIs(t, err, ErrDuplicateTier)

	bad := sampleTier("b")
	bad.Units = 0
	_, err = NewCatalog(sampleTier("a"), bad)
	assert.ErrorIs(t, err, ErrInvalidTier)
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.Equal(t, 3, c.Len())

	ids := make([]string, 0, 3)
	for _, tr := range c.All() {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []string{"27in", "32in", "55in"}, ids)

	tr, _ := c.Get("32in")
	assert.True(t, decimal.NewFromInt(50).Equal(tr.ExtraControllerCharge))
	assert.True(t, decimal.NewFromInt(150).Equal(tr.Prices.Min90))
}
