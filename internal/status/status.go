// Package status maps venue order status vocabularies onto the canonical
// five-state lifecycle.
package status

import (
	"sort"
	"strings"

	"github.com/alanyoungcy/perpgate/internal/domain"
)

// Mapper is a table from raw venue status strings to canonical statuses.
// Lookups are case-insensitive; unknown strings map to OPEN.
type Mapper struct {
	table map[string]domain.OrderStatus
}

// NewMapper builds a Mapper from a raw-to-canonical table.
func NewMapper(table map[string]domain.OrderStatus) Mapper {
	t := make(map[string]domain.OrderStatus, len(table))
	for raw, s := range table {
		t[strings.ToLower(raw)] = s
	}
	return Mapper{table: t}
}

// Map returns the canonical status for raw.
func (m Mapper) Map(raw string) domain.OrderStatus {
	if s, ok := m.table[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return domain.OrderStatusOpen
}

// Known reports whether raw has an explicit entry.
func (m Mapper) Known(raw string) bool {
	_, ok := m.table[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

// Raw returns every raw status string in the table, sorted.
func (m Mapper) Raw() []string {
	out := make([]string, 0, len(m.table))
	for raw := range m.table {
		out = append(out, raw)
	}
	sort.Strings(out)
	return out
}

// GateIO covers both the order status field and the finish_as reason that
// Gate reports once an order is finished.
var GateIO = NewMapper(map[string]domain.OrderStatus{
	"open":             domain.OrderStatusOpen,
	"_new":             domain.OrderStatusOpen,
	"_update":          domain.OrderStatusOpen,
	"finished":         domain.OrderStatusFilled,
	"filled":           domain.OrderStatusFilled,
	"liquidated":       domain.OrderStatusFilled,
	"auto_deleveraged": domain.OrderStatusFilled,
	"cancelled":        domain.OrderStatusCancelled,
	"ioc":              domain.OrderStatusCancelled,
	"reduce_only":      domain.OrderStatusCancelled,
	"position_closed":  domain.OrderStatusCancelled,
	"reduce_out":       domain.OrderStatusCancelled,
	"stp":              domain.OrderStatusCancelled,
	"expired":          domain.OrderStatusExpired,
	"failed":           domain.OrderStatusRejected,
	"rejected":         domain.OrderStatusRejected,
})

// OKX covers raw v5 order states and the unified SDK vocabulary.
var OKX = NewMapper(map[string]domain.OrderStatus{
	"live":             domain.OrderStatusOpen,
	"partially_filled": domain.OrderStatusOpen,
	"open":             domain.OrderStatusOpen,
	"filled":           domain.OrderStatusFilled,
	"closed":           domain.OrderStatusFilled,
	"canceled":         domain.OrderStatusCancelled,
	"cancelled":        domain.OrderStatusCancelled,
	"mmp_canceled":     domain.OrderStatusCancelled,
	"expired":          domain.OrderStatusExpired,
	"rejected":         domain.OrderStatusRejected,
	"failed":           domain.OrderStatusRejected,
})

// ForVenue returns the mapper for v.
func ForVenue(v domain.Venue) (Mapper, error) {
	switch v {
	case domain.VenueGateIO:
		return GateIO, nil
	case domain.VenueOKX:
		return OKX, nil
	default:
		return Mapper{}, &domain.UnsupportedExchangeError{Venue: v}
	}
}
