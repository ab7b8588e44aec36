package convert

import (
	"strings"

	"github.com/alanyoungcy/perpgate/internal/domain"
	"github.com/alanyoungcy/perpgate/internal/status"
	"github.com/alanyoungcy/perpgate/internal/symbol"
)

// okxSchema reads both the unified multi-venue SDK vocabulary (listed first,
// numeric-native) and raw OKX v5 rows (numeric strings). Symbols leave in the
// unified BASE/QUOTE:QUOTE notation.
var okxSchema = schema{
	venue:    domain.VenueOKX,
	symbols:  symbol.Unified{},
	statuses: status.OKX,

	account: accountFields{
		Currency:       []string{"currency", "ccy"},
		Total:          []string{"total", "eq", "totalEq"},
		Available:      []string{"free", "availEq", "availBal"},
		PositionMargin: []string{"used", "imr"},
		OrderMargin:    []string{"ordFrozen", "frozenBal"},
		UnrealisedPnL:  []string{"unrealizedPnl", "upl"},
	},
	position: positionFields{
		Contract:         []string{"symbol", "instId"},
		Size:             []string{"contracts", "pos"},
		Leverage:         []string{"leverage", "lever"},
		EntryPrice:       []string{"entryPrice", "avgPx"},
		MarkPrice:        []string{"markPrice", "markPx"},
		LiquidationPrice: []string{"liquidationPrice", "liqPx"},
		UnrealisedPnL:    []string{"unrealizedPnl", "upl"},
		RealisedPnL:      []string{"realizedPnl"},
		Margin:           []string{"initialMargin", "margin", "imr"},
	},
	ticker: tickerFields{
		Contract:         []string{"symbol", "instId"},
		Last:             []string{"last"},
		MarkPrice:        []string{"markPrice", "markPx"},
		IndexPrice:       []string{"indexPrice", "idxPx"},
		High24h:          []string{"high", "high24h"},
		Low24h:           []string{"low", "low24h"},
		Volume24h:        []string{"baseVolume", "vol24h"},
		ChangePercentage: []string{"percentage"},
	},
	order: orderFields{
		ID:          []string{"id", "ordId"},
		Contract:    []string{"symbol", "instId"},
		Size:        []string{"amount", "sz"},
		Price:       []string{"price", "px"},
		TimeInForce: []string{"timeInForce", "ordType"},
		ReduceOnly:  []string{"reduceOnly"},
		StopLoss:    []string{"stopLossPrice", "slTriggerPx"},
		TakeProfit:  []string{"takeProfitPrice", "tpTriggerPx"},
		Status:      []string{"status", "state"},
		CreateTime:  []string{"timestamp", "cTime"},
		UpdateTime:  []string{"lastUpdateTimestamp", "uTime"},
		FinishTime:  []string{"lastTradeTimestamp", "fillTime"},
		FillPrice:   []string{"average", "avgPx"},
		FilledTotal: []string{"filled", "accFillSz"},
		Fee:         []string{"fee"},
		FeeCurrency: []string{"feeCcy"},
		Left:        []string{"remaining"},
		RealisedPnL: []string{"pnl"},
		Text:        []string{"clientOrderId", "clOrdId"},
	},
	candle: candleFields{
		Timestamp: []string{"timestamp", "ts"},
		Open:      []string{"open", "o"},
		High:      []string{"high", "h"},
		Low:       []string{"low", "l"},
		Close:     []string{"close", "c"},
		Volume:    []string{"volume", "vol"},
	},
	contract: contractFields{
		Symbol:         []string{"symbol", "instId"},
		SettleCurrency: []string{"settle", "settleCcy"},
		BaseCurrency:   []string{"base"},
		QuoteCurrency:  []string{"quote"},
		MinLeverage:    []string{"minLeverage"},
		MaxLeverage:    []string{"maxLeverage", "lever"},
		MinSize:        []string{"minSize", "minSz"},
		MaxSize:        []string{"maxSize", "maxLmtSz"},
		MinPrice:       []string{"minPrice"},
		MaxPrice:       []string{"maxPrice"},
		TickSize:       []string{"tickSize", "tickSz"},
		StepSize:       []string{"stepSize", "lotSz"},
		Multiplier:     []string{"contractSize", "ctVal"},
	},
	funding: fundingFields{
		Contract:        []string{"symbol", "instId"},
		Rate:            []string{"fundingRate", "realizedRate"},
		NextRate:        []string{"nextFundingRate"},
		Timestamp:       []string{"fundingTimestamp", "fundingTime", "timestamp"},
		NextFundingTime: []string{"nextFundingTimestamp", "nextFundingTime"},
	},
	trade: tradeFields{
		ID:          []string{"id", "tradeId"},
		OrderID:     []string{"order", "ordId"},
		Contract:    []string{"symbol", "instId"},
		Size:        []string{"amount", "fillSz"},
		Price:       []string{"price", "fillPx"},
		Fee:         []string{"fee"},
		FeeCurrency: []string{"feeCcy"},
		Role:        []string{"takerOrMaker", "execType"},
		Timestamp:   []string{"timestamp", "ts"},
	},
	bill: billFields{
		ID:        []string{"billId", "id"},
		Kind:      []string{"type"},
		Contract:  []string{"instId", "symbol"},
		PnL:       []string{"balChg", "pnl"},
		Fee:       []string{"fee"},
		Currency:  []string{"ccy"},
		Timestamp: []string{"ts"},
	},
	billKinds: map[string]domain.SettlementKind{
		"1": domain.SettlementTransfer,
		"2": domain.SettlementTrade,
		"5": domain.SettlementTrade,
		"8": domain.SettlementFunding,
	},
}

// okxSettleCurrency is the margin currency of linear swaps.
const okxSettleCurrency = "USDT"

var okxTimeInForce = map[string]domain.TimeInForce{
	"gtc":               domain.TimeInForceGTC,
	"limit":             domain.TimeInForceGTC,
	"ioc":               domain.TimeInForceIOC,
	"market":            domain.TimeInForceIOC,
	"optimal_limit_ioc": domain.TimeInForceIOC,
	"fok":               domain.TimeInForceFOK,
	"po":                domain.TimeInForcePOC,
	"poc":               domain.TimeInForcePOC,
	"post_only":         domain.TimeInForcePOC,
}

var okxUnifiedStatus = map[domain.OrderStatus]string{
	domain.OrderStatusOpen:      "open",
	domain.OrderStatusFilled:    "closed",
	domain.OrderStatusCancelled: "canceled",
	domain.OrderStatusExpired:   "expired",
	domain.OrderStatusRejected:  "rejected",
}

// okxConverter folds the separate side fields into signed sizes and
// normalises fees, which OKX reports as negative amounts when charged.
type okxConverter struct {
	table
}

func newOKXConverter() okxConverter {
	return okxConverter{table{s: okxSchema}}
}

// Account reads the settle currency's row of a raw balance envelope. A
// single details row is taken as is. With several rows and none in the
// settle currency only the USD-valued totals of the envelope are used.
func (c okxConverter) Account(p Payload) domain.Account {
	details := p.List("details")
	if len(details) == 0 {
		return c.table.Account(p)
	}
	row, ok := settleRow(details, okxSettleCurrency)
	if !ok {
		a := c.table.Account(p)
		a.Currency = "USD"
		return a
	}
	merged := Payload{}
	for k, v := range p {
		if k != "totalEq" && k != "details" {
			merged[k] = v
		}
	}
	for k, v := range row {
		merged[k] = v
	}
	return c.table.Account(merged)
}

func settleRow(details []any, ccy string) (Payload, bool) {
	rows := make([]Payload, 0, len(details))
	for _, d := range details {
		if row, ok := AsPayload(d); ok {
			rows = append(rows, row)
		}
	}
	for _, row := range rows {
		if strings.EqualFold(row.Str("ccy", "currency"), ccy) {
			return row, true
		}
	}
	if len(rows) == 1 {
		return rows[0], true
	}
	return nil, false
}

func (c okxConverter) Position(p Payload) domain.Position {
	pos := c.table.Position(p)
	pos.Size = signed(pos.Size, p.Str("side", "posSide"))
	return pos
}

func (c okxConverter) FromPosition(pos domain.Position) Payload {
	p := c.table.FromPosition(pos)
	p["contracts"] = abs(pos.Size)
	if pos.IsLong() || pos.IsFlat() {
		p["side"] = "long"
	} else {
		p["side"] = "short"
	}
	return p
}

// Ticker derives the 24h change from open24h when the payload has no
// percentage.
func (c okxConverter) Ticker(p Payload) domain.Ticker {
	t := c.table.Ticker(p)
	if !p.Has(c.s.ticker.ChangePercentage...) && p.Has("open24h") {
		open := decimalOf(p.Num("open24h"))
		if !open.IsZero() {
			last := decimalOf(t.Last)
			t.ChangePercentage = last.Sub(open).Div(open).Shift(2).Round(4).String()
		}
	}
	return t
}

func (c okxConverter) Order(p Payload) domain.Order {
	o := c.table.Order(p)
	o.Size = signed(abs(o.Size), p.Str("side"))
	o.TimeInForce = okxTimeInForce[strings.ToLower(p.Str(c.s.order.TimeInForce...))]
	if o.TimeInForce == "" {
		o.TimeInForce = domain.TimeInForceGTC
	}
	o.Fee, o.FeeCurrency = okxFee(p, o.FeeCurrency)
	if !p.Has(c.s.order.Left...) {
		left := decimalOf(abs(o.Size)).Sub(decimalOf(o.FilledTotal))
		if left.IsNegative() {
			left = decimalOf("0")
		}
		o.Left = left.String()
	}
	if o.FinishTime == 0 && o.Status.Terminal() {
		o.FinishTime = o.UpdateTime
	}
	return o
}

func (c okxConverter) FromOrder(o domain.Order) Payload {
	p := c.table.FromOrder(o)
	p["amount"] = abs(o.Size)
	p["side"] = "buy"
	if strings.HasPrefix(o.Size, "-") {
		p["side"] = "sell"
	}
	p["status"] = okxUnifiedStatus[o.Status]
	p["timeInForce"] = strings.ToUpper(string(o.TimeInForce))
	p["fee"] = Payload{"cost": o.Fee, "currency": o.FeeCurrency}
	delete(p, "feeCcy")
	return p
}

// Contract reads the nested limits/precision blocks of a unified market,
// then fills currencies implied by the symbol.
func (c okxConverter) Contract(p Payload) domain.Contract {
	ct := c.table.Contract(p)
	if limits := p.Sub("limits"); limits != nil {
		if a := limits.Sub("amount"); a != nil {
			ct.MinSize, ct.MaxSize = a.Num("min"), a.Num("max")
		}
		if pr := limits.Sub("price"); pr != nil {
			ct.MinPrice, ct.MaxPrice = pr.Num("min"), pr.Num("max")
		}
		if l := limits.Sub("leverage"); l != nil {
			ct.MinLeverage, ct.MaxLeverage = l.Num("min"), l.Num("max")
		}
	}
	if prec := p.Sub("precision"); prec != nil {
		ct.TickSize, ct.StepSize = prec.Num("price"), prec.Num("amount")
	}
	base, quote := symbol.Split(ct.Symbol)
	if ct.BaseCurrency == "" {
		ct.BaseCurrency = base
	}
	if ct.QuoteCurrency == "" {
		ct.QuoteCurrency = quote
	}
	if ct.SettleCurrency == "" {
		ct.SettleCurrency = quote
	}
	if domain.IsZero(ct.MinLeverage) {
		ct.MinLeverage = "1"
	}
	return ct
}

func (c okxConverter) Trade(p Payload) domain.Trade {
	t := c.table.Trade(p)
	t.Size = signed(abs(t.Size), p.Str("side"))
	t.Fee, t.FeeCurrency = okxFee(p, t.FeeCurrency)
	switch t.Role {
	case "T":
		t.Role = "taker"
	case "M":
		t.Role = "maker"
	}
	return t
}

func (c okxConverter) Bill(p Payload) domain.SettlementRecord {
	rec := c.table.Bill(p)
	rec.Fee = negate(rec.Fee)
	return rec
}

// OrderRequest builds unified createOrder arguments: symbol, type, side,
// unsigned amount, optional price and params.
func (c okxConverter) OrderRequest(r domain.SanitizedOrderRequest) (Payload, error) {
	p := Payload{
		"symbol":     c.native(r.Contract),
		"side":       string(r.Side),
		"amount":     abs(r.Size),
		"reduceOnly": r.ReduceOnly,
	}
	if r.IsMarket() {
		p["type"] = "market"
	} else {
		p["type"] = "limit"
		p["price"] = r.Price
		tif := r.TimeInForce
		if tif == "" {
			tif = domain.TimeInForceGTC
		}
		if tif == domain.TimeInForcePOC {
			p["timeInForce"] = "PO"
		} else {
			p["timeInForce"] = strings.ToUpper(string(tif))
		}
	}
	if r.PositionSide != domain.PositionSideNone {
		p["posSide"] = string(r.PositionSide)
	}
	if !domain.IsZero(r.StopLoss) {
		p["stopLossPrice"] = r.StopLoss
	}
	if !domain.IsZero(r.TakeProfit) {
		p["takeProfitPrice"] = r.TakeProfit
	}
	if r.Text != "" {
		p["clientOrderId"] = r.Text
	}
	return p, nil
}

// okxFee returns the fee as a positive amount paid. Unified payloads carry
// {cost, currency}; raw rows carry a negative "fee" string.
func okxFee(p Payload, currency string) (string, string) {
	if fee := p.Sub("fee"); fee != nil {
		if cur := fee.Str("currency"); cur != "" {
			currency = cur
		}
		return fee.Num("cost"), currency
	}
	if !p.Has("fee") {
		return "0", currency
	}
	return negate(p.Num("fee")), currency
}
