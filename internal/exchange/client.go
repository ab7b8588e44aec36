// Package exchange implements the venue-neutral trading client. One Client
// type serves every venue; the venue specifics come from a venue.Adapter and
// a Gateway.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/perpgate/internal/convert"
	"github.com/alanyoungcy/perpgate/internal/domain"
	"github.com/alanyoungcy/perpgate/internal/retry"
	"github.com/alanyoungcy/perpgate/internal/sanitize"
	"github.com/alanyoungcy/perpgate/internal/symbol"
	"github.com/alanyoungcy/perpgate/internal/venue"
)

// SettlementSource selects how SettlementHistory is produced.
type SettlementSource string

const (
	// SettlementAuto follows the adapter's default.
	SettlementAuto SettlementSource = "auto"
	// SettlementBills reads the venue account ledger.
	SettlementBills SettlementSource = "bills"
	// SettlementSynthesized rebuilds history from orders, trades and funding.
	SettlementSynthesized SettlementSource = "synthesized"
)

// Config tunes a Client. Zero values fall back to the adapter defaults.
type Config struct {
	// AllowedBases restricts Positions to these base currencies. Empty
	// means every position is returned.
	AllowedBases []string

	// MaxPriceDeviation and APISizeCeiling override the adapter limits when
	// non-zero.
	MaxPriceDeviation decimal.Decimal
	APISizeCeiling    decimal.Decimal

	// ReadMaxRetries applies to queries, WriteMaxRetries to order
	// placement, cancellation and leverage changes. Only
	// TransientNetworkError is retried.
	ReadMaxRetries  int
	WriteMaxRetries int
	Backoff         retry.Backoff

	SettlementSource SettlementSource

	// Cache is an optional read-through cache for contract metadata.
	Cache domain.ContractCache
}

// Client exposes the fixed operation set over one venue. It holds no
// mutable state and is safe for concurrent use.
type Client struct {
	adapter   venue.Adapter
	gw        Gateway
	sanitizer *sanitize.Sanitizer
	cache     domain.ContractCache
	allowed   map[string]struct{}
	cfg       Config
	logger    *slog.Logger
}

// New creates a Client over gw for the venue described by adapter.
func New(adapter venue.Adapter, gw Gateway, cfg Config, logger *slog.Logger) *Client {
	limits := sanitize.Config{
		MaxDeviation:   adapter.MaxPriceDeviation,
		APISizeCeiling: adapter.APISizeCeiling,
	}
	if !cfg.MaxPriceDeviation.IsZero() {
		limits.MaxDeviation = cfg.MaxPriceDeviation
	}
	if !cfg.APISizeCeiling.IsZero() {
		limits.APISizeCeiling = cfg.APISizeCeiling
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedBases))
	for _, b := range cfg.AllowedBases {
		if b = strings.ToUpper(strings.TrimSpace(b)); b != "" {
			allowed[b] = struct{}{}
		}
	}

	venueLogger := logger.With(slog.String("venue", string(adapter.Venue)))
	return &Client{
		adapter:   adapter,
		gw:        gw,
		sanitizer: sanitize.New(limits, venueLogger),
		cache:     cfg.Cache,
		allowed:   allowed,
		cfg:       cfg,
		logger:    venueLogger.With(slog.String("component", "exchange_client")),
	}
}

// Venue returns the venue tag of the client.
func (c *Client) Venue() domain.Venue { return c.adapter.Venue }

func (c *Client) native(contract string) string {
	return c.adapter.Symbols.ToNative(contract)
}

// --------------------------------------------------------------------------
// Retry plumbing
// --------------------------------------------------------------------------

func (c *Client) policy(op string, maxRetries int) retry.Policy {
	return retry.Policy{
		MaxRetries: maxRetries,
		Backoff:    c.cfg.Backoff,
		Retryable:  domain.IsTransient,
		OnRetry: func(i int, err error, delay time.Duration) {
			c.logger.Warn("retrying venue call",
				slog.String("op", op),
				slog.Int("retry", i+1),
				slog.Duration("delay", delay),
				slog.String("error", err.Error()),
			)
		},
	}
}

func read[T any](ctx context.Context, c *Client, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	return retry.Do(ctx, c.policy(op, c.cfg.ReadMaxRetries), fn)
}

func write[T any](ctx context.Context, c *Client, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	return retry.Do(ctx, c.policy(op, c.cfg.WriteMaxRetries), fn)
}

func convertAll[T any](ps []convert.Payload, fn func(convert.Payload) T) []T {
	out := make([]T, 0, len(ps))
	for _, p := range ps {
		out = append(out, fn(p))
	}
	return out
}

// --------------------------------------------------------------------------
// Account
// --------------------------------------------------------------------------

// Account returns the futures account snapshot.
func (c *Client) Account(ctx context.Context) (domain.Account, error) {
	p, err := read(ctx, c, "account", c.gw.FetchBalance)
	if err != nil {
		return domain.Account{}, fmt.Errorf("exchange: account: %w", err)
	}
	return c.adapter.Converter.Account(p), nil
}

// Positions returns the open positions whose base currency is allowed.
// Flat positions are dropped.
func (c *Client) Positions(ctx context.Context) ([]domain.Position, error) {
	all, err := c.positions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Position, 0, len(all))
	for _, pos := range all {
		if pos.IsFlat() || !c.baseAllowed(pos.Contract) {
			continue
		}
		out = append(out, pos)
	}
	return out, nil
}

func (c *Client) positions(ctx context.Context) ([]domain.Position, error) {
	ps, err := read(ctx, c, "positions", c.gw.FetchPositions)
	if err != nil {
		return nil, fmt.Errorf("exchange: positions: %w", err)
	}
	return convertAll(ps, c.adapter.Converter.Position), nil
}

func (c *Client) baseAllowed(contract string) bool {
	if len(c.allowed) == 0 {
		return true
	}
	base, _ := symbol.Split(contract)
	_, ok := c.allowed[strings.ToUpper(base)]
	return ok
}

// SetLeverage changes the leverage of contract.
func (c *Client) SetLeverage(ctx context.Context, contract, leverage string) error {
	native := c.native(contract)
	_, err := write(ctx, c, "set_leverage", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.gw.SetLeverage(ctx, native, leverage)
	})
	if err != nil {
		return fmt.Errorf("exchange: set leverage %s: %w", contract, err)
	}
	c.logger.Info("leverage set", slog.String("contract", contract), slog.String("leverage", leverage))
	return nil
}

// --------------------------------------------------------------------------
// Market data
// --------------------------------------------------------------------------

// Ticker returns the latest ticker of contract.
func (c *Client) Ticker(ctx context.Context, contract string) (domain.Ticker, error) {
	native := c.native(contract)
	p, err := read(ctx, c, "ticker", func(ctx context.Context) (convert.Payload, error) {
		return c.gw.FetchTicker(ctx, native)
	})
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("exchange: ticker %s: %w", contract, err)
	}
	t := c.adapter.Converter.Ticker(p)
	if t.Contract == "" {
		t.Contract = contract
	}
	return t, nil
}

// Candles returns up to limit candles of the given interval, oldest first
// as the venue reports them.
func (c *Client) Candles(ctx context.Context, contract, interval string, limit int) ([]domain.Candle, error) {
	native := c.native(contract)
	ps, err := read(ctx, c, "candles", func(ctx context.Context) ([]convert.Payload, error) {
		return c.gw.FetchOHLCV(ctx, native, interval, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("exchange: candles %s: %w", contract, err)
	}
	return convertAll(ps, c.adapter.Converter.Candle), nil
}

// FundingRate returns the current funding rate of contract.
func (c *Client) FundingRate(ctx context.Context, contract string) (domain.FundingRate, error) {
	native := c.native(contract)
	p, err := read(ctx, c, "funding_rate", func(ctx context.Context) (convert.Payload, error) {
		return c.gw.FetchFundingRate(ctx, native)
	})
	if err != nil {
		return domain.FundingRate{}, fmt.Errorf("exchange: funding rate %s: %w", contract, err)
	}
	fr := c.adapter.Converter.FundingRate(p)
	if fr.Contract == "" {
		fr.Contract = contract
	}
	return fr, nil
}

// FundingRateHistory returns up to limit past funding rates of contract.
func (c *Client) FundingRateHistory(ctx context.Context, contract string, limit int) ([]domain.FundingRate, error) {
	native := c.native(contract)
	ps, err := read(ctx, c, "funding_history", func(ctx context.Context) ([]convert.Payload, error) {
		return c.gw.FetchFundingRateHistory(ctx, native, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("exchange: funding history %s: %w", contract, err)
	}
	out := convertAll(ps, c.adapter.Converter.FundingRate)
	for i := range out {
		if out[i].Contract == "" {
			out[i].Contract = contract
		}
	}
	return out, nil
}

// OrderBook returns the book of contract to the given depth.
func (c *Client) OrderBook(ctx context.Context, contract string, depth int) (domain.OrderBook, error) {
	native := c.native(contract)
	p, err := read(ctx, c, "order_book", func(ctx context.Context) (convert.Payload, error) {
		return c.gw.FetchOrderBook(ctx, native, depth)
	})
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("exchange: order book %s: %w", contract, err)
	}
	book := c.adapter.Converter.OrderBook(p)
	if book.Contract == "" {
		book.Contract = contract
	}
	return book, nil
}

// --------------------------------------------------------------------------
// Contracts
// --------------------------------------------------------------------------

// Contract returns the metadata of one contract, from the cache when
// possible. A contract the venue does not list is a MissingContractError.
func (c *Client) Contract(ctx context.Context, contract string) (domain.Contract, error) {
	if c.cache != nil {
		ct, err := c.cache.Get(ctx, c.adapter.Venue, contract)
		if err == nil {
			return ct, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.Warn("contract cache read failed",
				slog.String("contract", contract), slog.String("error", err.Error()))
		}
	}

	native := c.native(contract)
	p, err := read(ctx, c, "contract", func(ctx context.Context) (convert.Payload, error) {
		return c.gw.FetchMarket(ctx, native)
	})
	if errors.Is(err, domain.ErrNotFound) || (err == nil && len(p) == 0) {
		return domain.Contract{}, &domain.MissingContractError{Venue: c.adapter.Venue, Contract: contract}
	}
	if err != nil {
		return domain.Contract{}, fmt.Errorf("exchange: contract %s: %w", contract, err)
	}

	ct := c.adapter.Converter.Contract(p)
	if ct.Symbol == "" {
		ct.Symbol = contract
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, c.adapter.Venue, ct); err != nil {
			c.logger.Warn("contract cache write failed",
				slog.String("contract", contract), slog.String("error", err.Error()))
		}
	}
	return ct, nil
}

// Contracts returns every contract the venue lists and refreshes the cache.
func (c *Client) Contracts(ctx context.Context) ([]domain.Contract, error) {
	ps, err := read(ctx, c, "contracts", c.gw.FetchMarkets)
	if err != nil {
		return nil, fmt.Errorf("exchange: contracts: %w", err)
	}
	out := convertAll(ps, c.adapter.Converter.Contract)
	if c.cache != nil && len(out) > 0 {
		if err := c.cache.SetMany(ctx, c.adapter.Venue, out); err != nil {
			c.logger.Warn("contract cache bulk write failed", slog.String("error", err.Error()))
		}
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Orders
// --------------------------------------------------------------------------

// PlaceOrder sanitizes req against live contract metadata and the mark
// price, then submits it. A reduce-only limit order rejected for margin is
// retried once as a market IOC order; if that fails too its error is
// returned.
func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	if domain.IsZero(req.Size) {
		return domain.Order{}, fmt.Errorf("exchange: place order %s: zero size: %w", req.Contract, domain.ErrInvalidOrder)
	}
	log := c.logger.With(slog.String("contract", req.Contract))

	var contract *domain.Contract
	ct, err := c.Contract(ctx, req.Contract)
	var missing *domain.MissingContractError
	switch {
	case errors.As(err, &missing):
		return domain.Order{}, err
	case err != nil:
		log.Warn("contract metadata unavailable", slog.String("error", err.Error()))
	default:
		contract = &ct
	}

	var mark string
	if !req.IsMarket() {
		t, err := c.Ticker(ctx, req.Contract)
		if err != nil {
			log.Warn("mark price unavailable", slog.String("error", err.Error()))
		} else {
			mark = t.MarkPrice
			if domain.IsZero(mark) {
				mark = t.Last
			}
		}
	}

	sreq := c.sanitizer.Sanitize(req, contract, mark)
	for _, adj := range sreq.Adjustments {
		log.Info("order adjusted", slog.String("adjustment", adj))
	}

	o, err := c.submit(ctx, sreq)
	var margin *domain.MarginError
	if err == nil || !errors.As(err, &margin) || !sreq.ReduceOnly || sreq.IsMarket() {
		if err != nil {
			return domain.Order{}, fmt.Errorf("exchange: place order %s: %w", req.Contract, err)
		}
		return o, nil
	}

	log.Warn("reduce-only limit rejected for margin, falling back to market",
		slog.String("code", margin.Code), slog.String("price", sreq.Price))
	fallback := sreq
	fallback.Price = "0"
	fallback.TimeInForce = domain.TimeInForceIOC
	fallback.Adjustments = append(append([]string(nil), sreq.Adjustments...), "margin fallback to market ioc")

	body, err := c.adapter.Converter.OrderRequest(fallback)
	if err != nil {
		return domain.Order{}, fmt.Errorf("exchange: place order %s: market fallback: %w", req.Contract, err)
	}
	p, err := c.gw.CreateOrder(ctx, body)
	if err != nil {
		return domain.Order{}, fmt.Errorf("exchange: place order %s: market fallback: %w", req.Contract, err)
	}
	return c.order(p, req.Contract), nil
}

func (c *Client) submit(ctx context.Context, sreq domain.SanitizedOrderRequest) (domain.Order, error) {
	body, err := c.adapter.Converter.OrderRequest(sreq)
	if err != nil {
		return domain.Order{}, err
	}
	p, err := write(ctx, c, "create_order", func(ctx context.Context) (convert.Payload, error) {
		return c.gw.CreateOrder(ctx, body)
	})
	if err != nil {
		return domain.Order{}, err
	}
	return c.order(p, sreq.Contract), nil
}

func (c *Client) order(p convert.Payload, contract string) domain.Order {
	o := c.adapter.Converter.Order(p)
	if o.Contract == "" {
		o.Contract = contract
	}
	return o
}

// Order fetches one order by id.
func (c *Client) Order(ctx context.Context, contract, id string) (domain.Order, error) {
	native := c.native(contract)
	p, err := read(ctx, c, "order", func(ctx context.Context) (convert.Payload, error) {
		return c.gw.FetchOrder(ctx, native, id)
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("exchange: order %s: %w", id, err)
	}
	return c.order(p, contract), nil
}

// CancelOrder cancels an open order. An order that is already terminal is
// returned as is without a cancel request.
func (c *Client) CancelOrder(ctx context.Context, contract, id string) (domain.Order, error) {
	current, err := c.Order(ctx, contract, id)
	if err != nil {
		return domain.Order{}, err
	}
	if current.Status.Terminal() {
		c.logger.Info("cancel skipped, order already terminal",
			slog.String("order_id", id), slog.String("status", string(current.Status)))
		return current, nil
	}

	native := c.native(contract)
	p, err := write(ctx, c, "cancel_order", func(ctx context.Context) (convert.Payload, error) {
		return c.gw.CancelOrder(ctx, native, id)
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("exchange: cancel order %s: %w", id, err)
	}
	return c.order(p, contract), nil
}

// OpenOrders lists the open orders of contract.
func (c *Client) OpenOrders(ctx context.Context, contract string) ([]domain.Order, error) {
	native := c.native(contract)
	ps, err := read(ctx, c, "open_orders", func(ctx context.Context) ([]convert.Payload, error) {
		return c.gw.FetchOpenOrders(ctx, native)
	})
	if err != nil {
		return nil, fmt.Errorf("exchange: open orders %s: %w", contract, err)
	}
	return c.orders(ps, contract), nil
}

// OrderHistory lists up to limit finished orders of contract.
func (c *Client) OrderHistory(ctx context.Context, contract string, limit int) ([]domain.Order, error) {
	native := c.native(contract)
	ps, err := read(ctx, c, "order_history", func(ctx context.Context) ([]convert.Payload, error) {
		return c.gw.FetchClosedOrders(ctx, native, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("exchange: order history %s: %w", contract, err)
	}
	return c.orders(ps, contract), nil
}

func (c *Client) orders(ps []convert.Payload, contract string) []domain.Order {
	out := make([]domain.Order, 0, len(ps))
	for _, p := range ps {
		out = append(out, c.order(p, contract))
	}
	return out
}

// TradeHistory lists up to limit of the account's own fills on contract.
func (c *Client) TradeHistory(ctx context.Context, contract string, limit int) ([]domain.Trade, error) {
	native := c.native(contract)
	ps, err := read(ctx, c, "trade_history", func(ctx context.Context) ([]convert.Payload, error) {
		return c.gw.FetchMyTrades(ctx, native, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("exchange: trade history %s: %w", contract, err)
	}
	out := convertAll(ps, c.adapter.Converter.Trade)
	for i := range out {
		if out[i].Contract == "" {
			out[i].Contract = contract
		}
	}
	return out, nil
}
