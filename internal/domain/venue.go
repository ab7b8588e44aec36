// Package domain holds the venue-neutral entities, error taxonomy and
// infrastructure interfaces shared by every perpgate package.
package domain

// Venue tags a supported exchange.
type Venue string

const (
	VenueGateIO Venue = "gateio"
	VenueOKX    Venue = "okx"
)

// Venues lists every venue the adapters know about.
func Venues() []Venue {
	return []Venue{VenueGateIO, VenueOKX}
}

// Valid reports whether v is a known venue tag.
func (v Venue) Valid() bool {
	switch v {
	case VenueGateIO, VenueOKX:
		return true
	default:
		return false
	}
}

// ExchangeConfig carries the credentials and environment selection for one
// exchange client. The values are opaque to the conversion layer and must
// not be changed after the client is built.
type ExchangeConfig struct {
	Venue      Venue
	APIKey     string
	APISecret  string
	Passphrase string // required by OKX
	Sandbox    bool
}
