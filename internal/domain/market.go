package domain

// Ticker is the 24h market summary of one contract.
type Ticker struct {
	Contract         string `json:"contract"`
	Last             string `json:"last"`
	MarkPrice        string `json:"mark_price"`
	IndexPrice       string `json:"index_price"`
	High24h          string `json:"high_24h"`
	Low24h           string `json:"low_24h"`
	Volume24h        string `json:"volume_24h"`
	ChangePercentage string `json:"change_percentage"`
}

// Candle is one OHLCV bar. Timestamp is the bar open in Unix milliseconds.
type Candle struct {
	Timestamp int64  `json:"timestamp"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}

// Contract is the trading metadata of a perpetual swap.
type Contract struct {
	Symbol         string `json:"symbol"`
	NativeSymbol   string `json:"native_symbol"`
	SettleCurrency string `json:"settle_currency"`
	BaseCurrency   string `json:"base_currency"`
	QuoteCurrency  string `json:"quote_currency"`
	MinLeverage    string `json:"min_leverage"`
	MaxLeverage    string `json:"max_leverage"`
	MinSize        string `json:"min_size"`
	MaxSize        string `json:"max_size"`
	MinPrice       string `json:"min_price"`
	MaxPrice       string `json:"max_price"`
	TickSize       string `json:"tick_size"`
	StepSize       string `json:"step_size"`
	Multiplier     string `json:"multiplier"`
}

// FundingRate is a funding rate observation for one contract.
type FundingRate struct {
	Contract        string `json:"contract"`
	Rate            string `json:"rate"`
	NextRate        string `json:"next_rate"`
	Timestamp       int64  `json:"timestamp"`
	NextFundingTime int64  `json:"next_funding_time"`
}

// BookLevel is one price level of an order book.
type BookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// OrderBook is a depth snapshot. Asks ascend and bids descend as delivered
// by the venue.
type OrderBook struct {
	Contract  string      `json:"contract"`
	Asks      []BookLevel `json:"asks"`
	Bids      []BookLevel `json:"bids"`
	Timestamp int64       `json:"timestamp"`
}
