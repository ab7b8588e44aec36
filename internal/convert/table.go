package convert

import (
	"github.com/alanyoungcy/perpgate/internal/domain"
)

// table implements every conversion directly from a schema. Venue
// converters embed it and override the entities that need more than alias
// lookups.
type table struct {
	s schema
}

func (t table) Venue() domain.Venue { return t.s.venue }

func (t table) canonical(p Payload, aliases []string) string {
	return t.s.symbols.ToCanonical(p.Str(aliases...))
}

func (t table) native(canonical string) string {
	if canonical == "" {
		return ""
	}
	return t.s.symbols.ToNative(canonical)
}

func (t table) ts(ms int64) any {
	if t.s.seconds {
		return secondsOf(ms)
	}
	return ms
}

// --------------------------------------------------------------------------
// Venue -> canonical
// --------------------------------------------------------------------------

func (t table) Account(p Payload) domain.Account {
	f := t.s.account
	return domain.Account{
		Currency:       p.Str(f.Currency...),
		Total:          p.Num(f.Total...),
		Available:      p.Num(f.Available...),
		PositionMargin: p.Num(f.PositionMargin...),
		OrderMargin:    p.Num(f.OrderMargin...),
		UnrealisedPnL:  p.Num(f.UnrealisedPnL...),
	}
}

func (t table) Position(p Payload) domain.Position {
	f := t.s.position
	return domain.Position{
		Contract:         t.canonical(p, f.Contract),
		Size:             p.Num(f.Size...),
		Leverage:         p.Num(f.Leverage...),
		EntryPrice:       p.Num(f.EntryPrice...),
		MarkPrice:        p.Num(f.MarkPrice...),
		LiquidationPrice: p.Num(f.LiquidationPrice...),
		UnrealisedPnL:    p.Num(f.UnrealisedPnL...),
		RealisedPnL:      p.Num(f.RealisedPnL...),
		Margin:           p.Num(f.Margin...),
	}
}

func (t table) Ticker(p Payload) domain.Ticker {
	f := t.s.ticker
	return domain.Ticker{
		Contract:         t.canonical(p, f.Contract),
		Last:             p.Num(f.Last...),
		MarkPrice:        p.Num(f.MarkPrice...),
		IndexPrice:       p.Num(f.IndexPrice...),
		High24h:          p.Num(f.High24h...),
		Low24h:           p.Num(f.Low24h...),
		Volume24h:        p.Num(f.Volume24h...),
		ChangePercentage: p.Num(f.ChangePercentage...),
	}
}

func (t table) Order(p Payload) domain.Order {
	f := t.s.order
	return domain.Order{
		ID:          p.Str(f.ID...),
		Contract:    t.canonical(p, f.Contract),
		Size:        p.Num(f.Size...),
		Price:       p.Num(f.Price...),
		TimeInForce: domain.TimeInForce(p.Str(f.TimeInForce...)),
		ReduceOnly:  p.Bool(f.ReduceOnly...),
		StopLoss:    p.Num(f.StopLoss...),
		TakeProfit:  p.Num(f.TakeProfit...),
		Status:      t.s.statuses.Map(p.Str(f.Status...)),
		CreateTime:  p.Millis(f.CreateTime...),
		UpdateTime:  p.Millis(f.UpdateTime...),
		FinishTime:  p.Millis(f.FinishTime...),
		FillPrice:   p.Num(f.FillPrice...),
		FilledTotal: p.Num(f.FilledTotal...),
		Fee:         p.Num(f.Fee...),
		FeeCurrency: p.Str(f.FeeCurrency...),
		Left:        p.Num(f.Left...),
		RealisedPnL: p.Num(f.RealisedPnL...),
		Text:        p.Str(f.Text...),
	}
}

func (t table) Candle(p Payload) domain.Candle {
	f := t.s.candle
	return domain.Candle{
		Timestamp: p.Millis(f.Timestamp...),
		Open:      p.Num(f.Open...),
		High:      p.Num(f.High...),
		Low:       p.Num(f.Low...),
		Close:     p.Num(f.Close...),
		Volume:    p.Num(f.Volume...),
	}
}

func (t table) Contract(p Payload) domain.Contract {
	f := t.s.contract
	native := p.Str(f.Symbol...)
	return domain.Contract{
		Symbol:         t.s.symbols.ToCanonical(native),
		NativeSymbol:   native,
		SettleCurrency: p.Str(f.SettleCurrency...),
		BaseCurrency:   p.Str(f.BaseCurrency...),
		QuoteCurrency:  p.Str(f.QuoteCurrency...),
		MinLeverage:    p.Num(f.MinLeverage...),
		MaxLeverage:    p.Num(f.MaxLeverage...),
		MinSize:        p.Num(f.MinSize...),
		MaxSize:        p.Num(f.MaxSize...),
		MinPrice:       p.Num(f.MinPrice...),
		MaxPrice:       p.Num(f.MaxPrice...),
		TickSize:       p.Num(f.TickSize...),
		StepSize:       p.Num(f.StepSize...),
		Multiplier:     p.Num(f.Multiplier...),
	}
}

func (t table) FundingRate(p Payload) domain.FundingRate {
	f := t.s.funding
	return domain.FundingRate{
		Contract:        t.canonical(p, f.Contract),
		Rate:            p.Num(f.Rate...),
		NextRate:        p.Num(f.NextRate...),
		Timestamp:       p.Millis(f.Timestamp...),
		NextFundingTime: p.Millis(f.NextFundingTime...),
	}
}

func (t table) Trade(p Payload) domain.Trade {
	f := t.s.trade
	return domain.Trade{
		ID:          p.Str(f.ID...),
		OrderID:     p.Str(f.OrderID...),
		Contract:    t.canonical(p, f.Contract),
		Size:        p.Num(f.Size...),
		Price:       p.Num(f.Price...),
		Fee:         p.Num(f.Fee...),
		FeeCurrency: p.Str(f.FeeCurrency...),
		Role:        p.Str(f.Role...),
		Timestamp:   p.Millis(f.Timestamp...),
	}
}

func (t table) Bill(p Payload) domain.SettlementRecord {
	f := t.s.bill
	kind, ok := t.s.billKinds[p.Str(f.Kind...)]
	if !ok {
		kind = domain.SettlementOther
	}
	rec := domain.SettlementRecord{
		Venue:     t.s.venue,
		SourceID:  p.Str(f.ID...),
		Kind:      kind,
		Contract:  t.canonical(p, f.Contract),
		PnL:       p.Num(f.PnL...),
		Fee:       p.Num(f.Fee...),
		Currency:  p.Str(f.Currency...),
		Timestamp: p.Millis(f.Timestamp...),
	}
	rec.ID = SettlementID(rec)
	return rec
}

// OrderBook reads {price,size} objects or [price,size,...] arrays under
// "asks" and "bids".
func (t table) OrderBook(p Payload) domain.OrderBook {
	return domain.OrderBook{
		Contract:  t.canonical(p, []string{"contract", "instId", "symbol"}),
		Asks:      levels(p.List("asks")),
		Bids:      levels(p.List("bids")),
		Timestamp: p.Millis("current", "ts", "timestamp"),
	}
}

func levels(raw []any) []domain.BookLevel {
	out := make([]domain.BookLevel, 0, len(raw))
	for _, r := range raw {
		switch lv := r.(type) {
		case []any:
			if len(lv) < 2 {
				continue
			}
			row := Payload{"p": lv[0], "s": lv[1]}
			out = append(out, domain.BookLevel{Price: row.Num("p"), Size: row.Num("s")})
		default:
			row, ok := AsPayload(lv)
			if !ok {
				continue
			}
			out = append(out, domain.BookLevel{
				Price: row.Num("p", "price"),
				Size:  row.Num("s", "size", "amount"),
			})
		}
	}
	return out
}

// --------------------------------------------------------------------------
// Canonical -> venue
// --------------------------------------------------------------------------

func put(p Payload, aliases []string, v any) {
	if k := first(aliases); k != "" {
		p[k] = v
	}
}

func (t table) FromAccount(a domain.Account) Payload {
	f := t.s.account
	p := Payload{}
	put(p, f.Currency, a.Currency)
	put(p, f.Total, a.Total)
	put(p, f.Available, a.Available)
	put(p, f.PositionMargin, a.PositionMargin)
	put(p, f.OrderMargin, a.OrderMargin)
	put(p, f.UnrealisedPnL, a.UnrealisedPnL)
	return p
}

func (t table) FromPosition(pos domain.Position) Payload {
	f := t.s.position
	p := Payload{}
	put(p, f.Contract, t.native(pos.Contract))
	put(p, f.Size, pos.Size)
	put(p, f.Leverage, pos.Leverage)
	put(p, f.EntryPrice, pos.EntryPrice)
	put(p, f.MarkPrice, pos.MarkPrice)
	put(p, f.LiquidationPrice, pos.LiquidationPrice)
	put(p, f.UnrealisedPnL, pos.UnrealisedPnL)
	put(p, f.RealisedPnL, pos.RealisedPnL)
	put(p, f.Margin, pos.Margin)
	return p
}

func (t table) FromTicker(tk domain.Ticker) Payload {
	f := t.s.ticker
	p := Payload{}
	put(p, f.Contract, t.native(tk.Contract))
	put(p, f.Last, tk.Last)
	put(p, f.MarkPrice, tk.MarkPrice)
	put(p, f.IndexPrice, tk.IndexPrice)
	put(p, f.High24h, tk.High24h)
	put(p, f.Low24h, tk.Low24h)
	put(p, f.Volume24h, tk.Volume24h)
	put(p, f.ChangePercentage, tk.ChangePercentage)
	return p
}

func (t table) FromOrder(o domain.Order) Payload {
	f := t.s.order
	p := Payload{}
	put(p, f.ID, o.ID)
	put(p, f.Contract, t.native(o.Contract))
	put(p, f.Size, o.Size)
	put(p, f.Price, o.Price)
	put(p, f.TimeInForce, string(o.TimeInForce))
	put(p, f.ReduceOnly, o.ReduceOnly)
	put(p, f.StopLoss, o.StopLoss)
	put(p, f.TakeProfit, o.TakeProfit)
	put(p, f.Status, string(o.Status))
	put(p, f.CreateTime, t.ts(o.CreateTime))
	put(p, f.UpdateTime, t.ts(o.UpdateTime))
	put(p, f.FinishTime, t.ts(o.FinishTime))
	put(p, f.FillPrice, o.FillPrice)
	put(p, f.FilledTotal, o.FilledTotal)
	put(p, f.Fee, o.Fee)
	put(p, f.FeeCurrency, o.FeeCurrency)
	put(p, f.Left, o.Left)
	put(p, f.RealisedPnL, o.RealisedPnL)
	put(p, f.Text, o.Text)
	return p
}

func (t table) FromCandle(c domain.Candle) Payload {
	f := t.s.candle
	p := Payload{}
	put(p, f.Timestamp, t.ts(c.Timestamp))
	put(p, f.Open, c.Open)
	put(p, f.High, c.High)
	put(p, f.Low, c.Low)
	put(p, f.Close, c.Close)
	put(p, f.Volume, c.Volume)
	return p
}

func (t table) FromContract(c domain.Contract) Payload {
	f := t.s.contract
	p := Payload{}
	native := c.NativeSymbol
	if native == "" {
		native = t.native(c.Symbol)
	}
	put(p, f.Symbol, native)
	put(p, f.SettleCurrency, c.SettleCurrency)
	put(p, f.BaseCurrency, c.BaseCurrency)
	put(p, f.QuoteCurrency, c.QuoteCurrency)
	put(p, f.MinLeverage, c.MinLeverage)
	put(p, f.MaxLeverage, c.MaxLeverage)
	put(p, f.MinSize, c.MinSize)
	put(p, f.MaxSize, c.MaxSize)
	put(p, f.MinPrice, c.MinPrice)
	put(p, f.MaxPrice, c.MaxPrice)
	put(p, f.TickSize, c.TickSize)
	put(p, f.StepSize, c.StepSize)
	put(p, f.Multiplier, c.Multiplier)
	return p
}
