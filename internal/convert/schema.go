package convert

import (
	"github.com/alanyoungcy/perpgate/internal/domain"
	"github.com/alanyoungcy/perpgate/internal/status"
	"github.com/alanyoungcy/perpgate/internal/symbol"
)

// Field alias lists, one struct per entity. The first alias of each list is
// the name emitted when converting back to the venue shape.

type accountFields struct {
	Currency, Total, Available, PositionMargin, OrderMargin, UnrealisedPnL []string
}

type positionFields struct {
	Contract, Size, Leverage, EntryPrice, MarkPrice, LiquidationPrice,
	UnrealisedPnL, RealisedPnL, Margin []string
}

type tickerFields struct {
	Contract, Last, MarkPrice, IndexPrice, High24h, Low24h, Volume24h,
	ChangePercentage []string
}

type orderFields struct {
	ID, Contract, Size, Price, TimeInForce, ReduceOnly, StopLoss, TakeProfit,
	Status, CreateTime, UpdateTime, FinishTime, FillPrice, FilledTotal, Fee,
	FeeCurrency, Left, RealisedPnL, Text []string
}

type candleFields struct {
	Timestamp, Open, High, Low, Close, Volume []string
}

type contractFields struct {
	Symbol, SettleCurrency, BaseCurrency, QuoteCurrency, MinLeverage,
	MaxLeverage, MinSize, MaxSize, MinPrice, MaxPrice, TickSize, StepSize,
	Multiplier []string
}

type fundingFields struct {
	Contract, Rate, NextRate, Timestamp, NextFundingTime []string
}

type tradeFields struct {
	ID, OrderID, Contract, Size, Price, Fee, FeeCurrency, Role, Timestamp []string
}

type billFields struct {
	ID, Kind, Contract, PnL, Fee, Currency, Timestamp []string
}

// schema is the complete field mapping of one venue.
type schema struct {
	venue    domain.Venue
	symbols  symbol.Translator
	statuses status.Mapper

	account  accountFields
	position positionFields
	ticker   tickerFields
	order    orderFields
	candle   candleFields
	contract contractFields
	funding  fundingFields
	trade    tradeFields
	bill     billFields

	billKinds map[string]domain.SettlementKind

	// seconds is set when the venue reports timestamps in (fractional)
	// seconds rather than milliseconds.
	seconds bool
}

func first(aliases []string) string {
	if len(aliases) == 0 {
		return ""
	}
	return aliases[0]
}
