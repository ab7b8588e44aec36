package domain

import "strings"

// Position is an open futures position. Size is signed: positive is long,
// negative is short, and no other field carries direction.
type Position struct {
	Contract         string `json:"contract"`
	Size             string `json:"size"`
	Leverage         string `json:"leverage"`
	EntryPrice       string `json:"entry_price"`
	MarkPrice        string `json:"mark_price"`
	LiquidationPrice string `json:"liquidation_price"`
	UnrealisedPnL    string `json:"unrealised_pnl"`
	RealisedPnL      string `json:"realised_pnl"`
	Margin           string `json:"margin"`
}

// IsLong reports whether the position is long.
func (p Position) IsLong() bool {
	return !p.IsFlat() && !strings.HasPrefix(p.Size, "-")
}

// IsFlat reports whether the position has zero size.
func (p Position) IsFlat() bool {
	return IsZero(p.Size)
}

// IsZero reports whether a canonical numeric string is zero ("", "0",
// "-0", "0.000" and so on).
func IsZero(s string) bool {
	s = strings.TrimLeft(strings.TrimSpace(s), "+-")
	if s == "" {
		return true
	}
	for _, r := range s {
		if r != '0' && r != '.' {
			return false
		}
	}
	return true
}
