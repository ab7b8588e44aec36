package convert

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/perpgate/internal/domain"
)

func converters(t *testing.T) map[domain.Venue]Converter {
	t.Helper()
	out := map[domain.Venue]Converter{}
	for _, v := range domain.Venues() {
		c, err := ForVenue(v)
		require.NoError(t, err)
		out[v] = c
	}
	return out
}

func TestDefaultingOnEmptyPayload(t *testing.T) {
	for v, c := range converters(t) {
		t.Run(string(v), func(t *testing.T) {
			empty := Payload{}

			assert.Equal(t, domain.Account{
				Total: "0", Available: "0", PositionMargin: "0",
				OrderMargin: "0", UnrealisedPnL: "0",
			}, c.Account(empty))

			assert.Equal(t, domain.Position{
				Size: "0", Leverage: "0", EntryPrice: "0", MarkPrice: "0",
				LiquidationPrice: "0", UnrealisedPnL: "0", RealisedPnL: "0", Margin: "0",
			}, c.Position(empty))

			assert.Equal(t, domain.Ticker{
				Last: "0", MarkPrice: "0", IndexPrice: "0", High24h: "0",
				Low24h: "0", Volume24h: "0", ChangePercentage: "0",
			}, c.Ticker(empty))

			assert.Equal(t, domain.Candle{
				Open: "0", High: "0", Low: "0", Close: "0", Volume: "0",
			}, c.Candle(empty))

			o := c.Order(empty)
			assert.Equal(t, "", o.ID)
			assert.Equal(t, "0", o.Size)
			assert.Equal(t, "0", o.Price)
			assert.Equal(t, "0", o.Fee)
			assert.Equal(t, "0", o.Left)
			assert.False(t, o.ReduceOnly)
			assert.Equal(t, domain.OrderStatusOpen, o.Status)
			assert.Zero(t, o.CreateTime)
		})
	}
}

func TestGateOrderFinishAs(t *testing.T) {
	c := newGateConverter()
	o := c.Order(Payload{
		"id":          json.Number("12345"),
		"contract":    "BTC_USDT",
		"size":        json.Number("-10"),
		"left":        json.Number("-4"),
		"price":       "30000.5",
		"tif":         "ioc",
		"status":      "finished",
		"finish_as":   "ioc",
		"create_time": json.Number("1700000000.123"),
		"finish_time": json.Number("1700000001.5"),
		"fill_price":  "30000.1",
		"text":        "t-abc",
	})

	assert.Equal(t, "12345", o.ID)
	assert.Equal(t, "BTC_USDT", o.Contract)
	assert.Equal(t, "-10", o.Size)
	assert.Equal(t, "6", o.FilledTotal)
	assert.Equal(t, domain.TimeInForceIOC, o.TimeInForce)
	assert.Equal(t, domain.OrderStatusCancelled, o.Status)
	assert.Equal(t, int64(1700000000123), o.CreateTime)
	assert.Equal(t, int64(1700000001500), o.FinishTime)

	open := c.Order(Payload{"status": "open"})
	assert.Equal(t, domain.OrderStatusOpen, open.Status)
	filled := c.Order(Payload{"status": "finished"})
	assert.Equal(t, domain.OrderStatusFilled, filled.Status)
}

func TestOKXPositionFoldsSideIntoSign(t *testing.T) {
	c := newOKXConverter()
	tests := []struct {
		name string
		in   Payload
		size string
	}{
		{"raw hedge short", Payload{"instId": "BTC-USDT-SWAP", "pos": "3", "posSide": "short", "lever": "10"}, "-3"},
		{"raw hedge long", Payload{"instId": "BTC-USDT-SWAP", "pos": "3", "posSide": "long"}, "3"},
		{"raw net", Payload{"instId": "BTC-USDT-SWAP", "pos": "-2", "posSide": "net"}, "-2"},
		{"unified short", Payload{"symbol": "ETH/USDT:USDT", "contracts": 2.5, "side": "short", "leverage": 10.0}, "-2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := c.Position(tt.in)
			assert.Equal(t, tt.size, pos.Size)
			assert.Contains(t, []string{"BTC_USDT", "ETH_USDT"}, pos.Contract)
		})
	}

	unified := c.Position(Payload{"symbol": "ETH/USDT:USDT", "contracts": 2.5, "side": "short", "leverage": 10.0})
	assert.Equal(t, "10", unified.Leverage)
}

func TestOKXRawOrder(t *testing.T) {
	c := newOKXConverter()
	o := c.Order(Payload{
		"ordId":      "987",
		"instId":     "BTC-USDT-SWAP",
		"sz":         "5",
		"px":         "",
		"side":       "sell",
		"ordType":    "market",
		"reduceOnly": "true",
		"state":      "filled",
		"cTime":      "1700000000000",
		"uTime":      "1700000000500",
		"avgPx":      "30010",
		"accFillSz":  "5",
		"fee":        "-0.75",
		"feeCcy":     "USDT",
		"pnl":        "12.5",
		"lever":      "10",
	})

	assert.Equal(t, "987", o.ID)
	assert.Equal(t, "BTC_USDT", o.Contract)
	assert.Equal(t, "-5", o.Size)
	assert.Equal(t, "0", o.Price)
	assert.Equal(t, domain.TimeInForceIOC, o.TimeInForce)
	assert.True(t, o.ReduceOnly)
	assert.Equal(t, domain.OrderStatusFilled, o.Status)
	assert.Equal(t, "0.75", o.Fee)
	assert.Equal(t, "USDT", o.FeeCurrency)
	assert.Equal(t, "0", o.Left)
	assert.Equal(t, "12.5", o.RealisedPnL)
	assert.Equal(t, int64(1700000000500), o.FinishTime)
}

func TestOKXAccountDetails(t *testing.T) {
	c := newOKXConverter()
	a := c.Account(Payload{
		"totalEq": "1000",
		"details": []any{map[string]any{
			"ccy": "USDT", "eq": "900", "availEq": "700", "imr": "150",
			"ordFrozen": "50", "upl": "-3",
		}},
	})
	assert.Equal(t, domain.Account{
		Currency: "USDT", Total: "900", Available: "700",
		PositionMargin: "150", OrderMargin: "50", UnrealisedPnL: "-3",
	}, a)
}

func TestOKXAccountPicksSettleCurrency(t *testing.T) {
	c := newOKXConverter()
	details := []any{
		map[string]any{"ccy": "BTC", "eq": "0.1", "availBal": "0.1"},
		map[string]any{"ccy": "USDT", "eq": "4000", "availBal": "3500", "upl": "12"},
		map[string]any{"ccy": "ETH", "eq": "2", "availBal": "2"},
	}

	a := c.Account(Payload{"totalEq": "10500", "details": details})
	assert.Equal(t, "USDT", a.Currency)
	assert.Equal(t, "4000", a.Total)
	assert.Equal(t, "3500", a.Available)
	assert.Equal(t, "12", a.UnrealisedPnL)

	// No settle row among several: fall back to the USD-valued envelope.
	a = c.Account(Payload{"totalEq": "10500", "details": []any{details[0], details[2]}})
	assert.Equal(t, "USD", a.Currency)
	assert.Equal(t, "10500", a.Total)
}

func TestOKXTickerChangeFromOpen(t *testing.T) {
	c := newOKXConverter()
	tk := c.Ticker(Payload{"instId": "BTC-USDT-SWAP", "last": "110", "open24h": "100", "markPx": "109.5"})
	assert.Equal(t, "BTC_USDT", tk.Contract)
	assert.Equal(t, "10", tk.ChangePercentage)
	assert.Equal(t, "109.5", tk.MarkPrice)
}

func TestOKXUnifiedContract(t *testing.T) {
	c := newOKXConverter()
	ct := c.Contract(Payload{
		"symbol":       "BTC/USDT:USDT",
		"settle":       "USDT",
		"contractSize": 0.01,
		"limits": map[string]any{
			"amount":   map[string]any{"min": 0.01, "max": 10000.0},
			"leverage": map[string]any{"min": 1.0, "max": 125.0},
		},
		"precision": map[string]any{"price": 0.1, "amount": 0.01},
	})
	assert.Equal(t, "BTC_USDT", ct.Symbol)
	assert.Equal(t, "BTC/USDT:USDT", ct.NativeSymbol)
	assert.Equal(t, "BTC", ct.BaseCurrency)
	assert.Equal(t, "0.01", ct.MinSize)
	assert.Equal(t, "10000", ct.MaxSize)
	assert.Equal(t, "125", ct.MaxLeverage)
	assert.Equal(t, "0.1", ct.TickSize)
	assert.Equal(t, "0.01", ct.StepSize)
	assert.Equal(t, "0.01", ct.Multiplier)
}

func TestRoundTrip(t *testing.T) {
	account := domain.Account{
		Currency: "USDT", Total: "1000.5", Available: "800", PositionMargin: "150",
		OrderMargin: "50.5", UnrealisedPnL: "-2.25",
	}
	position := domain.Position{
		Contract: "BTC_USDT", Size: "-12", Leverage: "5", EntryPrice: "30000",
		MarkPrice: "30100", LiquidationPrice: "36000", UnrealisedPnL: "-12.3",
		RealisedPnL: "1.1", Margin: "72",
	}
	ticker := domain.Ticker{
		Contract: "ETH_USDT", Last: "2000", MarkPrice: "2001", IndexPrice: "1999",
		High24h: "2100", Low24h: "1900", Volume24h: "12345", ChangePercentage: "1.5",
	}
	order := domain.Order{
		ID: "42", Contract: "BTC_USDT", Size: "-3", Price: "30000",
		TimeInForce: domain.TimeInForceGTC, ReduceOnly: true, StopLoss: "0", TakeProfit: "0",
		Status: domain.OrderStatusCancelled, CreateTime: 1700000000123,
		UpdateTime: 1700000000456, FinishTime: 1700000000789, FillPrice: "29999",
		FilledTotal: "1", Fee: "0.15", FeeCurrency: "USDT", Left: "2",
		RealisedPnL: "0", Text: "t-x",
	}
	candle := domain.Candle{
		Timestamp: 1700000000000, Open: "1", High: "2", Low: "0.5", Close: "1.5", Volume: "100",
	}
	contract := domain.Contract{
		Symbol: "BTC_USDT", SettleCurrency: "USDT", BaseCurrency: "BTC", QuoteCurrency: "USDT",
		MinLeverage: "1", MaxLeverage: "100", MinSize: "1", MaxSize: "1000000",
		MinPrice: "0.1", MaxPrice: "1000000", TickSize: "0.1", StepSize: "1", Multiplier: "0.0001",
	}

	for v, c := range converters(t) {
		t.Run(string(v), func(t *testing.T) {
			assert.Equal(t, account, c.Account(c.FromAccount(account)))
			assert.Equal(t, position, c.Position(c.FromPosition(position)))
			assert.Equal(t, ticker, c.Ticker(c.FromTicker(ticker)))
			assert.Equal(t, order, c.Order(c.FromOrder(order)))
			assert.Equal(t, candle, c.Candle(c.FromCandle(candle)))

			got := c.Contract(c.FromContract(contract))
			assert.Equal(t, contract.Symbol, got.Symbol)
			got.NativeSymbol = ""
			assert.Equal(t, contract, got)
		})
	}
}

func TestOrderRequest(t *testing.T) {
	gate := newGateConverter()
	market := domain.SanitizedOrderRequest{
		OrderRequest: domain.OrderRequest{Contract: "BTC_USDT", Size: "-3", ReduceOnly: true, Text: "close"},
		Side:         domain.OrderSideSell,
	}
	p, err := gate.OrderRequest(market)
	require.NoError(t, err)
	assert.Equal(t, Payload{
		"contract": "BTC_USDT", "size": int64(-3), "price": "0", "tif": "ioc",
		"reduce_only": true, "text": "t-close",
	}, p)

	okx := newOKXConverter()
	limit := domain.SanitizedOrderRequest{
		OrderRequest: domain.OrderRequest{
			Contract: "BTC_USDT", Size: "0.5", Price: "30000", TimeInForce: domain.TimeInForcePOC,
			PositionSide: domain.PositionSideLong, StopLoss: "29000",
		},
		Side: domain.OrderSideBuy,
	}
	p, err = okx.OrderRequest(limit)
	require.NoError(t, err)
	assert.Equal(t, Payload{
		"symbol": "BTC/USDT:USDT", "side": "buy", "amount": "0.5", "reduceOnly": false,
		"type": "limit", "price": "30000", "timeInForce": "PO", "posSide": "long",
		"stopLossPrice": "29000",
	}, p)
}

func TestGateOrderRequestSize(t *testing.T) {
	gate := newGateConverter()
	req := func(size string) domain.SanitizedOrderRequest {
		return domain.SanitizedOrderRequest{OrderRequest: domain.OrderRequest{Contract: "BTC_USDT", Size: size, Price: "100"}}
	}

	tests := []struct {
		size string
		want int64
	}{
		{"0.5", 1},
		{"-0.5", -1},
		{"2.4", 2},
		{"-7.6", -8},
	}
	for _, tt := range tests {
		t.Run(tt.size, func(t *testing.T) {
			p, err := gate.OrderRequest(req(tt.size))
			require.NoError(t, err)
			assert.Equal(t, tt.want, p["size"])
		})
	}

	_, err := gate.OrderRequest(req("0.4"))
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)
	_, err = gate.OrderRequest(req("abc"))
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)
}

func TestGateOrderRequestRejectsAttachedStops(t *testing.T) {
	gate := newGateConverter()
	for _, r := range []domain.OrderRequest{
		{Contract: "BTC_USDT", Size: "1", Price: "100", StopLoss: "90"},
		{Contract: "BTC_USDT", Size: "1", Price: "100", TakeProfit: "110"},
	} {
		_, err := gate.OrderRequest(domain.SanitizedOrderRequest{OrderRequest: r})
		assert.ErrorIs(t, err, domain.ErrNotSupported)
	}
}

func TestBills(t *testing.T) {
	gate := newGateConverter()
	rec := gate.Bill(Payload{
		"id": "b1", "time": json.Number("1700000000"), "change": "-0.3",
		"type": "fee", "contract": "BTC_USDT", "currency": "USDT",
	})
	assert.Equal(t, domain.SettlementFee, rec.Kind)
	assert.Equal(t, "-0.3", rec.PnL)
	assert.Equal(t, int64(1700000000000), rec.Timestamp)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, rec.ID, gate.Bill(Payload{
		"id": "b1", "time": json.Number("1700000000"), "change": "-0.3",
		"type": "fee", "contract": "BTC_USDT", "currency": "USDT",
	}).ID)

	okx := newOKXConverter()
	fund := okx.Bill(Payload{
		"billId": "777", "type": "8", "instId": "BTC-USDT-SWAP",
		"balChg": "0.12", "fee": "0", "ccy": "USDT", "ts": "1700000000000",
	})
	assert.Equal(t, domain.SettlementFunding, fund.Kind)
	assert.Equal(t, "BTC_USDT", fund.Contract)
	assert.Equal(t, "0.12", fund.PnL)

	trade := okx.Bill(Payload{"billId": "778", "type": "2", "fee": "-0.4", "balChg": "-0.4"})
	assert.Equal(t, domain.SettlementTrade, trade.Kind)
	assert.Equal(t, "0.4", trade.Fee)

	other := okx.Bill(Payload{"billId": "779", "type": "99"})
	assert.Equal(t, domain.SettlementOther, other.Kind)
}

func TestOrderBookLevels(t *testing.T) {
	gate := newGateConverter()
	book := gate.OrderBook(Payload{
		"contract": "BTC_USDT",
		"current":  json.Number("1700000000.5"),
		"asks":     []any{map[string]any{"p": "100.5", "s": json.Number("10")}},
		"bids":     []any{map[string]any{"p": "100", "s": json.Number("3")}},
	})
	assert.Equal(t, []domain.BookLevel{{Price: "100.5", Size: "10"}}, book.Asks)
	assert.Equal(t, []domain.BookLevel{{Price: "100", Size: "3"}}, book.Bids)
	assert.Equal(t, int64(1700000000500), book.Timestamp)

	okx := newOKXConverter()
	book = okx.OrderBook(Payload{
		"instId": "BTC-USDT-SWAP",
		"ts":     "1700000000000",
		"asks":   []any{[]any{"101", "2", "0", "1"}},
		"bids":   []any{[]any{"99", "4", "0", "2"}, []any{"bad"}},
	})
	assert.Equal(t, "BTC_USDT", book.Contract)
	assert.Equal(t, []domain.BookLevel{{Price: "101", Size: "2"}}, book.Asks)
	assert.Equal(t, []domain.BookLevel{{Price: "99", Size: "4"}}, book.Bids)
}

func TestDetectOrder(t *testing.T) {
	tests := []struct {
		name string
		in   Payload
		want Kind
	}{
		{"gate order", Payload{"id": 1, "contract": "BTC_USDT", "size": 1, "price": "1"}, KindOrder},
		{"okx order with lever", Payload{"ordId": "1", "sz": "1", "px": "1", "lever": "10"}, KindOrder},
		{"position", Payload{"contract": "BTC_USDT", "size": 1, "leverage": "5"}, KindPosition},
		{"ticker", Payload{"contract": "BTC_USDT", "last": "1", "total_size": "2"}, KindTicker},
		{"ticker beats account", Payload{"last": "1", "total": "2"}, KindTicker},
		{"account", Payload{"total": "1", "available": "1"}, KindAccount},
		{"okx account", Payload{"totalEq": "1"}, KindAccount},
		{"gate candle", Payload{"t": 1, "v": 2, "o": "1"}, KindCandle},
		{"okx candle", Payload{"ts": "1", "vol": "2"}, KindCandle},
		{"gate contract", Payload{"name": "BTC_USDT", "order_price_round": "0.1"}, KindContract},
		{"okx instrument", Payload{"instId": "BTC-USDT-SWAP", "instFamily": "BTC-USDT"}, KindContract},
		{"unknown", Payload{"foo": "bar"}, KindUnknown},
		{"size without price", Payload{"size": 1}, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.in))
		})
	}
}

func TestNormalize(t *testing.T) {
	e, err := Normalize(domain.VenueGateIO, KindUnknown, Payload{"contract": "BTC_USDT", "last": "5"})
	require.NoError(t, err)
	assert.Equal(t, KindTicker, e.Kind)
	assert.Equal(t, "5", e.Value.(domain.Ticker).Last)

	e, err = Normalize(domain.VenueOKX, KindAccount, Payload{"last": "5"})
	require.NoError(t, err)
	assert.Equal(t, KindAccount, e.Kind)

	e, err = Normalize(domain.VenueOKX, KindUnknown, Payload{"foo": 1})
	require.NoError(t, err)
	assert.Equal(t, KindUnknown, e.Kind)

	_, err = Normalize("kraken", KindOrder, Payload{})
	var ue *domain.UnsupportedExchangeError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, domain.Venue("kraken"), ue.Venue)
}

func TestPayloadCoercion(t *testing.T) {
	p := Payload{
		"f":   1.5e-7,
		"n":   json.Number("42"),
		"i":   int64(7),
		"s":   " 3.10 ",
		"e":   "",
		"b":   "true",
		"nil": nil,
		"sec": 1700000000.25,
		"ms":  "1700000000250",
	}
	assert.Equal(t, "0.00000015", p.Num("f"))
	assert.Equal(t, "42", p.Num("n"))
	assert.Equal(t, "7", p.Num("i"))
	assert.Equal(t, "3.10", p.Num("s"))
	assert.Equal(t, "0", p.Num("e"))
	assert.Equal(t, "0", p.Num("nil"))
	assert.Equal(t, "42", p.Num("nil", "n"))
	assert.True(t, p.Bool("b"))
	assert.False(t, p.Bool("missing"))
	assert.Equal(t, int64(1700000000250), p.Millis("sec"))
	assert.Equal(t, int64(1700000000250), p.Millis("ms"))
}

func TestDecode(t *testing.T) {
	p, err := DecodeObject([]byte(`{"size": 12345678901234567890, "px": "1.5", "nested": {"a": 1}}`))
	require.NoError(t, err)
	assert.Equal(t, "12345678901234567890", p.Num("size"))
	assert.Equal(t, "1", p.Sub("nested").Num("a"))

	list, err := DecodeList([]byte(`[{"id": 1}, 2, {"id": 3}]`))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "3", list[1].Str("id"))

	_, err = DecodeList([]byte(`{"id": 1}`))
	assert.Error(t, err)
}
