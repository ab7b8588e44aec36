package domain

import "strings"

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// TimeInForce is the order time-in-force policy.
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "gtc" // Good-Till-Cancelled
	TimeInForceIOC TimeInForce = "ioc" // Immediate-Or-Cancel
	TimeInForceFOK TimeInForce = "fok" // Fill-Or-Kill
	TimeInForcePOC TimeInForce = "poc" // Post-Only
)

// OrderStatus is the canonical five-state order lifecycle.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusExpired   OrderStatus = "EXPIRED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

// OrderStatuses lists every canonical status.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusOpen,
		OrderStatusFilled,
		OrderStatusCancelled,
		OrderStatusExpired,
		OrderStatusRejected,
	}
}

// Terminal reports whether no further transition is possible from s.
func (s OrderStatus) Terminal() bool {
	return s != OrderStatusOpen && s != ""
}

// PositionSide selects a leg in hedge mode. Empty means one-way mode.
type PositionSide string

const (
	PositionSideNone  PositionSide = ""
	PositionSideLong  PositionSide = "long"
	PositionSideShort PositionSide = "short"
)

// Order is a futures order as reported by a venue.
type Order struct {
	ID          string      `json:"id"`
	Contract    string      `json:"contract"`
	Size        string      `json:"size"`  // signed, positive buys
	Price       string      `json:"price"` // "0" for market orders
	TimeInForce TimeInForce `json:"tif"`
	ReduceOnly  bool        `json:"reduce_only"`
	StopLoss    string      `json:"stop_loss"`
	TakeProfit  string      `json:"take_profit"`
	Status      OrderStatus `json:"status"`
	CreateTime  int64       `json:"create_time"`
	UpdateTime  int64       `json:"update_time"`
	FinishTime  int64       `json:"finish_time"`
	FillPrice   string      `json:"fill_price"`
	FilledTotal string      `json:"filled_total"`
	Fee         string      `json:"fee"`
	FeeCurrency string      `json:"fee_currency"`
	Left        string      `json:"left"`
	RealisedPnL string      `json:"realised_pnl"`
	Text        string      `json:"text"`
}

// IsMarket reports whether the order carries no limit price.
func (o Order) IsMarket() bool {
	return IsZero(o.Price)
}

// OrderRequest is a canonical order submission. Size is signed: positive
// buys, negative sells. An empty or zero Price places a market order.
type OrderRequest struct {
	Contract     string       `json:"contract"`
	Size         string       `json:"size"`
	Price        string       `json:"price"`
	TimeInForce  TimeInForce  `json:"tif"`
	ReduceOnly   bool         `json:"reduce_only"`
	PositionSide PositionSide `json:"position_side"`
	StopLoss     string       `json:"stop_loss"`
	TakeProfit   string       `json:"take_profit"`
	Text         string       `json:"text"`
}

// Side derives the order side from the sign of Size.
func (r OrderRequest) Side() OrderSide {
	if strings.HasPrefix(strings.TrimSpace(r.Size), "-") {
		return OrderSideSell
	}
	return OrderSideBuy
}

// IsMarket reports whether the request carries no limit price.
func (r OrderRequest) IsMarket() bool {
	return IsZero(r.Price)
}

// SanitizedOrderRequest is an OrderRequest that has been clamped and rounded
// against live contract limits. It is built per submission and never reused.
type SanitizedOrderRequest struct {
	OrderRequest
	Side        OrderSide
	Adjustments []string
}

// Trade is a single fill of one of the account's orders.
type Trade struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	Contract    string `json:"contract"`
	Size        string `json:"size"`
	Price       string `json:"price"`
	Fee         string `json:"fee"`
	FeeCurrency string `json:"fee_currency"`
	Role        string `json:"role"`
	Timestamp   int64  `json:"timestamp"`
}
