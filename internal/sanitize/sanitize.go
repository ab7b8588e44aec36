// Package sanitize clamps and rounds an order request against live contract
// metadata and the current mark price before it is submitted.
//
// Every step is best effort: when the data it needs is missing or
// unparseable the step is skipped with a warning and the request continues
// unchanged through the remaining steps.
package sanitize

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/perpgate/internal/domain"
)

// Config holds the venue limits applied on top of contract metadata.
type Config struct {
	// MaxDeviation is the largest allowed |price-mark|/mark, as a fraction.
	// Zero disables the price band.
	MaxDeviation decimal.Decimal
	// APISizeCeiling caps the order size below the contract maximum. Zero
	// means no ceiling.
	APISizeCeiling decimal.Decimal
}

// Sanitizer applies Config to order requests. It holds no mutable state and
// is safe for concurrent use.
type Sanitizer struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Sanitizer.
func New(cfg Config, logger *slog.Logger) *Sanitizer {
	return &Sanitizer{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "sanitizer")),
	}
}

// Sanitize returns a fresh SanitizedOrderRequest derived from req. contract
// may be nil and mark may be empty; the steps that need them are skipped.
func (s *Sanitizer) Sanitize(req domain.OrderRequest, contract *domain.Contract, mark string) domain.SanitizedOrderRequest {
	out := domain.SanitizedOrderRequest{
		OrderRequest: req,
		Side:         req.Side(),
	}
	log := s.logger.With(slog.String("contract", req.Contract))

	size, err := decimal.NewFromString(strings.TrimSpace(req.Size))
	hasSize := err == nil && !size.IsZero()
	if err != nil {
		log.Warn("unparseable order size, skipping size steps", slog.String("size", req.Size))
	}

	if contract == nil {
		log.Warn("contract metadata unavailable, skipping size clamp and rounding")
	} else if hasSize {
		if clamped := s.clampSize(size, contract); !clamped.Equal(size) {
			out.Adjustments = append(out.Adjustments,
				fmt.Sprintf("size clamped %s -> %s", size, clamped))
			size = clamped
		}
	}

	var price decimal.Decimal
	hasPrice := !req.IsMarket()
	if hasPrice {
		price, err = decimal.NewFromString(strings.TrimSpace(req.Price))
		if err != nil {
			log.Warn("unparseable limit price, skipping price steps", slog.String("price", req.Price))
			hasPrice = false
		}
	}

	if hasPrice {
		m, ok := positive(mark)
		switch {
		case !ok:
			log.Warn("mark price unavailable, skipping deviation clamp", slog.String("mark", mark))
		case s.cfg.MaxDeviation.IsPositive():
			if clamped := s.clampPrice(price, m, out.Side); !clamped.Equal(price) {
				out.Adjustments = append(out.Adjustments,
					fmt.Sprintf("price clamped %s -> %s (mark %s)", price, clamped, m))
				price = clamped
			}
		}
	}

	if contract != nil {
		if hasPrice {
			if tick, ok := positive(contract.TickSize); ok {
				price = roundTo(price, tick)
			}
		}
		if step, ok := positive(contract.StepSize); ok && hasSize {
			size = roundTo(size, step)
		}
	}

	if hasSize {
		out.Size = size.String()
	}
	if hasPrice {
		out.Price = price.String()
	}
	return out
}

// clampSize bounds |size| to [MinSize, min(MaxSize, APISizeCeiling)]. Bounds
// that are missing or zero do not apply.
func (s *Sanitizer) clampSize(size decimal.Decimal, c *domain.Contract) decimal.Decimal {
	mag := size.Abs()
	upper, hasUpper := positive(c.MaxSize)
	if s.cfg.APISizeCeiling.IsPositive() && (!hasUpper || s.cfg.APISizeCeiling.LessThan(upper)) {
		upper, hasUpper = s.cfg.APISizeCeiling, true
	}
	if hasUpper && mag.GreaterThan(upper) {
		mag = upper
	}
	if lower, ok := positive(c.MinSize); ok && mag.LessThan(lower) {
		mag = lower
	}
	if size.IsNegative() {
		return mag.Neg()
	}
	return mag
}

// clampPrice caps a buy at mark*(1+d) and floors a sell at mark*(1-d).
// Prices beyond the band on the passive side are left alone.
func (s *Sanitizer) clampPrice(price, mark decimal.Decimal, side domain.OrderSide) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if side == domain.OrderSideSell {
		if floor := mark.Mul(one.Sub(s.cfg.MaxDeviation)); price.LessThan(floor) {
			return floor
		}
		return price
	}
	if ceiling := mark.Mul(one.Add(s.cfg.MaxDeviation)); price.GreaterThan(ceiling) {
		return ceiling
	}
	return price
}

// roundTo rounds v to the nearest multiple of step, halves away from zero.
func roundTo(v, step decimal.Decimal) decimal.Decimal {
	return v.Div(step).Round(0).Mul(step)
}

// positive parses s and reports whether it is a number greater than zero.
func positive(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}
