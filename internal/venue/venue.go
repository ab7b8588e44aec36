// Package venue bundles the per-venue pieces the generic exchange client is
// parameterized by: symbol notation, payload converter, status vocabulary
// and order limits.
package venue

import (
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/perpgate/internal/convert"
	"github.com/alanyoungcy/perpgate/internal/domain"
	"github.com/alanyoungcy/perpgate/internal/status"
	"github.com/alanyoungcy/perpgate/internal/symbol"
)

// Adapter describes one venue.
type Adapter struct {
	Venue     domain.Venue
	Symbols   symbol.Translator
	Converter convert.Converter
	Statuses  status.Mapper

	// MaxPriceDeviation is the widest accepted |price-mark|/mark for limit
	// orders.
	MaxPriceDeviation decimal.Decimal
	// APISizeCeiling caps order sizes below the contract maximum. Zero
	// means none.
	APISizeCeiling decimal.Decimal

	// SynthesizeSettlements is set when the venue has no account ledger
	// endpoint usable for settlement history, so the client rebuilds it from
	// orders, trades and funding.
	SynthesizeSettlements bool
}

// New returns the default adapter for v.
func New(v domain.Venue) (Adapter, error) {
	conv, err := convert.ForVenue(v)
	if err != nil {
		return Adapter{}, err
	}
	statuses, err := status.ForVenue(v)
	if err != nil {
		return Adapter{}, err
	}

	a := Adapter{
		Venue:     v,
		Converter: conv,
		Statuses:  statuses,
	}
	switch v {
	case domain.VenueGateIO:
		a.Symbols = symbol.Underscore{}
		a.MaxPriceDeviation = decimal.RequireFromString("0.05")
		a.APISizeCeiling = decimal.NewFromInt(1_000_000)
	case domain.VenueOKX:
		a.Symbols = symbol.Unified{}
		a.MaxPriceDeviation = decimal.RequireFromString("0.015")
		a.SynthesizeSettlements = true
	}
	return a, nil
}

// MustNew is New for venues known at compile time.
func MustNew(v domain.Venue) Adapter {
	a, err := New(v)
	if err != nil {
		panic(err)
	}
	return a
}
