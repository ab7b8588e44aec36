package convert

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/perpgate/internal/domain"
	"github.com/alanyoungcy/perpgate/internal/status"
	"github.com/alanyoungcy/perpgate/internal/symbol"
)

// gateSchema maps the Gate.io v4 futures REST shapes. Gate sends every
// number as a string except order sizes, which are integer contract counts,
// and reports timestamps as fractional seconds.
var gateSchema = schema{
	venue:    domain.VenueGateIO,
	symbols:  symbol.Underscore{},
	statuses: status.GateIO,
	seconds:  true,

	account: accountFields{
		Currency:       []string{"currency"},
		Total:          []string{"total"},
		Available:      []string{"available"},
		PositionMargin: []string{"position_margin"},
		OrderMargin:    []string{"order_margin"},
		UnrealisedPnL:  []string{"unrealised_pnl"},
	},
	position: positionFields{
		Contract:         []string{"contract"},
		Size:             []string{"size"},
		Leverage:         []string{"leverage", "cross_leverage_limit"},
		EntryPrice:       []string{"entry_price"},
		MarkPrice:        []string{"mark_price"},
		LiquidationPrice: []string{"liq_price"},
		UnrealisedPnL:    []string{"unrealised_pnl"},
		RealisedPnL:      []string{"realised_pnl"},
		Margin:           []string{"margin"},
	},
	ticker: tickerFields{
		Contract:         []string{"contract"},
		Last:             []string{"last"},
		MarkPrice:        []string{"mark_price"},
		IndexPrice:       []string{"index_price"},
		High24h:          []string{"high_24h"},
		Low24h:           []string{"low_24h"},
		Volume24h:        []string{"volume_24h", "volume_24h_base"},
		ChangePercentage: []string{"change_percentage"},
	},
	order: orderFields{
		ID:          []string{"id"},
		Contract:    []string{"contract"},
		Size:        []string{"size"},
		Price:       []string{"price"},
		TimeInForce: []string{"tif"},
		ReduceOnly:  []string{"is_reduce_only", "reduce_only"},
		StopLoss:    []string{"stop_loss"},
		TakeProfit:  []string{"take_profit"},
		Status:      []string{"status"},
		CreateTime:  []string{"create_time"},
		UpdateTime:  []string{"update_time"},
		FinishTime:  []string{"finish_time"},
		FillPrice:   []string{"fill_price"},
		FilledTotal: []string{"filled_total"},
		Fee:         []string{"fee"},
		FeeCurrency: []string{"fee_currency"},
		Left:        []string{"left"},
		RealisedPnL: []string{"pnl"},
		Text:        []string{"text"},
	},
	candle: candleFields{
		Timestamp: []string{"t"},
		Open:      []string{"o"},
		High:      []string{"h"},
		Low:       []string{"l"},
		Close:     []string{"c"},
		Volume:    []string{"v"},
	},
	contract: contractFields{
		Symbol:         []string{"name"},
		SettleCurrency: []string{"settle"},
		BaseCurrency:   []string{"base"},
		QuoteCurrency:  []string{"quote"},
		MinLeverage:    []string{"leverage_min"},
		MaxLeverage:    []string{"leverage_max"},
		MinSize:        []string{"order_size_min"},
		MaxSize:        []string{"order_size_max"},
		MinPrice:       []string{"order_price_min"},
		MaxPrice:       []string{"order_price_max"},
		TickSize:       []string{"order_price_round"},
		StepSize:       []string{"order_size_round"},
		Multiplier:     []string{"quanto_multiplier"},
	},
	funding: fundingFields{
		Contract:        []string{"contract", "name"},
		Rate:            []string{"r", "funding_rate"},
		NextRate:        []string{"funding_rate_indicative"},
		Timestamp:       []string{"t"},
		NextFundingTime: []string{"funding_next_apply"},
	},
	trade: tradeFields{
		ID:          []string{"id", "trade_id"},
		OrderID:     []string{"order_id"},
		Contract:    []string{"contract"},
		Size:        []string{"size"},
		Price:       []string{"price"},
		Fee:         []string{"fee"},
		FeeCurrency: []string{"fee_currency"},
		Role:        []string{"role"},
		Timestamp:   []string{"create_time"},
	},
	bill: billFields{
		ID:        []string{"id"},
		Kind:      []string{"type"},
		Contract:  []string{"contract"},
		PnL:       []string{"change"},
		Fee:       []string{"fee"},
		Currency:  []string{"currency"},
		Timestamp: []string{"time"},
	},
	billKinds: map[string]domain.SettlementKind{
		"pnl":          domain.SettlementTrade,
		"fee":          domain.SettlementFee,
		"refr":         domain.SettlementFee,
		"fund":         domain.SettlementFunding,
		"dnw":          domain.SettlementTransfer,
		"point_dnw":    domain.SettlementTransfer,
		"point_fee":    domain.SettlementFee,
		"point_refr":   domain.SettlementFee,
		"bonus_offset": domain.SettlementOther,
	},
}

// gateConverter adds the Gate-specific order lifecycle and contract rules
// to the plain alias table.
type gateConverter struct {
	table
}

func newGateConverter() gateConverter {
	return gateConverter{table{s: gateSchema}}
}

// Order resolves the finished state through finish_as and derives the
// filled size from size and left.
func (c gateConverter) Order(p Payload) domain.Order {
	o := c.table.Order(p)
	if strings.EqualFold(p.Str("status"), "finished") && p.Has("finish_as") {
		o.Status = c.s.statuses.Map(p.Str("finish_as"))
	}
	if !p.Has(c.s.order.FilledTotal...) {
		filled := decimalOf(abs(o.Size)).Sub(decimalOf(abs(o.Left)))
		if filled.IsNegative() {
			filled = filled.Neg()
		}
		o.FilledTotal = filled.String()
	}
	if o.TimeInForce == "" {
		o.TimeInForce = domain.TimeInForceGTC
	}
	return o
}

// Contract fills in the currencies implied by the contract name. Gate sizes
// are whole contracts, so the step defaults to 1.
func (c gateConverter) Contract(p Payload) domain.Contract {
	ct := c.table.Contract(p)
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
	if domain.IsZero(ct.StepSize) {
		ct.StepSize = "1"
	}
	if domain.IsZero(ct.MinLeverage) {
		ct.MinLeverage = "1"
	}
	return ct
}

// FromOrder writes the status back as Gate's status/finish_as pair.
func (c gateConverter) FromOrder(o domain.Order) Payload {
	p := c.table.FromOrder(o)
	switch o.Status {
	case domain.OrderStatusOpen, "":
		p["status"] = "open"
	default:
		p["status"] = "finished"
		p["finish_as"] = strings.ToLower(string(o.Status))
	}
	return p
}

// OrderRequest builds a futures order body. Gate encodes direction in the
// sign of an integer size and market orders as price "0" with IOC. A size
// that rounds to zero contracts is ErrInvalidOrder. Attached stop-loss and
// take-profit legs are ErrNotSupported; Gate takes them as separate price
// orders.
func (c gateConverter) OrderRequest(r domain.SanitizedOrderRequest) (Payload, error) {
	if !domain.IsZero(r.StopLoss) || !domain.IsZero(r.TakeProfit) {
		return nil, fmt.Errorf("convert: gateio attached stop-loss/take-profit: %w", domain.ErrNotSupported)
	}
	size := decimalOf(r.Size).Round(0)
	if size.IsZero() {
		return nil, fmt.Errorf("convert: gateio size %q rounds to zero contracts: %w", r.Size, domain.ErrInvalidOrder)
	}
	p := Payload{
		"contract":    c.native(r.Contract),
		"size":        size.IntPart(),
		"reduce_only": r.ReduceOnly,
	}
	if r.IsMarket() {
		p["price"] = "0"
		p["tif"] = string(domain.TimeInForceIOC)
	} else {
		p["price"] = r.Price
		tif := r.TimeInForce
		if tif == "" {
			tif = domain.TimeInForceGTC
		}
		p["tif"] = string(tif)
	}
	if r.Text != "" {
		text := r.Text
		if !strings.HasPrefix(text, "t-") {
			text = "t-" + text
		}
		p["text"] = text
	}
	return p, nil
}
