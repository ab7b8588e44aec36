package domain

// Account is a futures account snapshot in a single settle currency.
type Account struct {
	Currency       string `json:"currency"`
	Total          string `json:"total"`
	Available      string `json:"available"`
	PositionMargin string `json:"position_margin"`
	OrderMargin    string `json:"order_margin"`
	UnrealisedPnL  string `json:"unrealised_pnl"`
}
