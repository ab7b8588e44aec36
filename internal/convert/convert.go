package convert

import (
	"github.com/alanyoungcy/perpgate/internal/domain"
)

// Converter maps one venue's payloads to canonical entities and back.
type Converter interface {
	Venue() domain.Venue

	Account(Payload) domain.Account
	Position(Payload) domain.Position
	Ticker(Payload) domain.Ticker
	Order(Payload) domain.Order
	Candle(Payload) domain.Candle
	Contract(Payload) domain.Contract
	FundingRate(Payload) domain.FundingRate
	OrderBook(Payload) domain.OrderBook
	Trade(Payload) domain.Trade
	Bill(Payload) domain.SettlementRecord

	FromAccount(domain.Account) Payload
	FromPosition(domain.Position) Payload
	FromTicker(domain.Ticker) Payload
	FromOrder(domain.Order) Payload
	FromCandle(domain.Candle) Payload
	FromContract(domain.Contract) Payload
	OrderRequest(domain.SanitizedOrderRequest) (Payload, error)
}

// Compile-time interface checks.
var (
	_ Converter = gateConverter{}
	_ Converter = okxConverter{}
)

// ForVenue returns the converter for v. An unknown tag is the only failure.
func ForVenue(v domain.Venue) (Converter, error) {
	switch v {
	case domain.VenueGateIO:
		return newGateConverter(), nil
	case domain.VenueOKX:
		return newOKXConverter(), nil
	default:
		return nil, &domain.UnsupportedExchangeError{Venue: v}
	}
}

// Kind names a canonical entity type.
type Kind string

const (
	KindUnknown  Kind = ""
	KindOrder    Kind = "order"
	KindPosition Kind = "position"
	KindTicker   Kind = "ticker"
	KindAccount  Kind = "account"
	KindCandle   Kind = "candle"
	KindContract Kind = "contract"
)

// discriminator is one entry of the ordered shape test used by Detect.
type discriminator struct {
	kind Kind
	all  [][]string // each group must have at least one key present
}

// discriminators is checked top to bottom and the first match wins. The
// order is part of the contract: an OKX order row carries "lever" as well
// as "sz"/"px" and must still resolve to an order.
var discriminators = []discriminator{
	{KindOrder, [][]string{{"size", "sz", "amount"}, {"price", "px"}}},
	{KindPosition, [][]string{{"leverage", "lever"}}},
	{KindTicker, [][]string{{"last"}}},
	{KindAccount, [][]string{{"total", "totalEq"}}},
	{KindCandle, [][]string{{"t", "ts", "timestamp"}, {"v", "vol", "volume"}}},
	{KindContract, [][]string{{"id", "instId", "name"}, {"name", "instFamily", "symbol"}}},
}

// Detect infers the entity kind of a payload whose type the caller does not
// know. It is deterministic for every input and returns KindUnknown when
// no discriminator matches.
func Detect(p Payload) Kind {
	for _, d := range discriminators {
		matched := true
		for _, group := range d.all {
			if !p.Has(group...) {
				matched = false
				break
			}
		}
		if matched {
			return d.kind
		}
	}
	return KindUnknown
}

// Entity is a converted payload together with the kind it was read as.
// Value holds the domain struct, or the untouched payload for KindUnknown.
type Entity struct {
	Kind  Kind
	Value any
}

// Normalize converts p for venue v. An empty kind is resolved with Detect.
// The only error is UnsupportedExchangeError.
func Normalize(v domain.Venue, kind Kind, p Payload) (Entity, error) {
	c, err := ForVenue(v)
	if err != nil {
		return Entity{}, err
	}
	if kind == KindUnknown {
		kind = Detect(p)
	}
	switch kind {
	case KindOrder:
		return Entity{Kind: kind, Value: c.Order(p)}, nil
	case KindPosition:
		return Entity{Kind: kind, Value: c.Position(p)}, nil
	case KindTicker:
		return Entity{Kind: kind, Value: c.Ticker(p)}, nil
	case KindAccount:
		return Entity{Kind: kind, Value: c.Account(p)}, nil
	case KindCandle:
		return Entity{Kind: kind, Value: c.Candle(p)}, nil
	case KindContract:
		return Entity{Kind: kind, Value: c.Contract(p)}, nil
	default:
		return Entity{Kind: KindUnknown, Value: p}, nil
	}
}
