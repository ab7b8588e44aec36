package domain

// SettlementKind classifies a ledger event.
type SettlementKind string

const (
	SettlementTrade    SettlementKind = "trade"
	SettlementFunding  SettlementKind = "funding"
	SettlementOrder    SettlementKind = "order"
	SettlementFee      SettlementKind = "fee"
	SettlementTransfer SettlementKind = "transfer"
	SettlementOther    SettlementKind = "other"
)

// SettlementRecord is one balance-affecting event. PnL is signed from the
// account's point of view: fees paid are negative, funding received is
// positive.
type SettlementRecord struct {
	ID        string         `json:"id"`
	Venue     Venue          `json:"venue"`
	SourceID  string         `json:"source_id"`
	Kind      SettlementKind `json:"kind"`
	Contract  string         `json:"contract"`
	PnL       string         `json:"pnl"`
	Fee       string         `json:"fee"`
	Currency  string         `json:"currency"`
	Timestamp int64          `json:"timestamp"`
}
