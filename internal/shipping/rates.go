// Package shipping holds the flat-rate shipping cost table. Rates are keyed
// by shipping option only; cost never depends on distance or weight.
package shipping

import (
	"github.com/shopspring/decimal"

	"lumistore/internal/model"
)

// Shipping option identifiers accepted by checkout.
const (
	OptionStandard = "standard"
	OptionExpress  = "express"
	OptionPickup   = "pickup"
)

// RateTable maps a shipping option to its flat cost. The table is immutable
// after load.
type RateTable struct {
	rates map[string]decimal.Decimal
}

// DefaultRates returns the built-in rate table used when no rates file is
// configured or loading fails.
func DefaultRates() *RateTable {
	return &RateTable{rates: map[string]decimal.Decimal{
		OptionStandard: decimal.NewFromInt(100),
		OptionExpress:  decimal.NewFromInt(250),
		OptionPickup:   decimal.Zero,
	}}
}

// Cost returns the flat cost for the given shipping option.
func (t *RateTable) Cost(option string) (decimal.Decimal, error) {
	cost, ok := t.rates[option]
	if !ok {
		return decimal.Decimal{}, model.ErrInvalidShippingOption
	}
	return cost, nil
}

// Options returns the known shipping options.
func (t *RateTable) Options() []string {
	options := make([]string, 0, len(t.rates))
	for option := range t.rates {
		options = append(options, option)
	}
	return options
}
