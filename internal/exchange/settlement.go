package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/perpgate/internal/convert"
	"github.com/alanyoungcy/perpgate/internal/domain"
)

// SettlementHistory returns up to limit balance-affecting events on
// contract, newest first. Venues with a usable account ledger are read
// directly; the others are rebuilt from order, trade and funding history.
// A limit of zero or less returns everything fetched.
func (c *Client) SettlementHistory(ctx context.Context, contract string, limit int) ([]domain.SettlementRecord, error) {
	var (
		records []domain.SettlementRecord
		err     error
	)
	if c.synthesize() {
		records, err = c.synthesizeSettlements(ctx, contract, limit)
	} else {
		records, err = c.bills(ctx, contract, limit)
	}
	if err != nil {
		return nil, err
	}
	sortSettlements(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (c *Client) synthesize() bool {
	switch c.cfg.SettlementSource {
	case SettlementBills:
		return false
	case SettlementSynthesized:
		return true
	default:
		return c.adapter.SynthesizeSettlements
	}
}

func (c *Client) bills(ctx context.Context, contract string, limit int) ([]domain.SettlementRecord, error) {
	native := c.native(contract)
	ps, err := read(ctx, c, "bills", func(ctx context.Context) ([]convert.Payload, error) {
		return c.gw.FetchBills(ctx, native, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("exchange: settlement history %s: %w", contract, err)
	}
	out := make([]domain.SettlementRecord, 0, len(ps))
	for _, p := range ps {
		rec := c.adapter.Converter.Bill(p)
		if rec.Contract == "" {
			rec.Contract = contract
			rec.ID = convert.SettlementID(rec)
		}
		out = append(out, rec)
	}
	return out, nil
}

// synthesizeSettlements merges order, trade and funding history into one
// settlement stream. The three reads run concurrently and any failure
// fails the call; the notional used for funding P&L is best effort.
func (c *Client) synthesizeSettlements(ctx context.Context, contract string, limit int) ([]domain.SettlementRecord, error) {
	var (
		orders  []domain.Order
		trades  []domain.Trade
		funding []domain.FundingRate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = c.OrderHistory(gctx, contract, limit)
		return err
	})
	g.Go(func() error {
		var err error
		trades, err = c.TradeHistory(gctx, contract, limit)
		return err
	})
	g.Go(func() error {
		var err error
		funding, err = c.FundingRateHistory(gctx, contract, limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("exchange: settlement history %s: %w", contract, err)
	}

	notional := c.fundingNotional(ctx, contract)

	out := make([]domain.SettlementRecord, 0, len(orders)+len(trades)+len(funding))
	seen := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t.ID != "" {
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
		}
		out = append(out, c.record(domain.SettlementRecord{
			SourceID:  t.ID,
			Kind:      domain.SettlementTrade,
			Contract:  contract,
			PnL:       decimalOf(t.Fee).Neg().String(),
			Fee:       decimalOf(t.Fee).String(),
			Currency:  t.FeeCurrency,
			Timestamp: t.Timestamp,
		}))
	}
	for _, f := range funding {
		out = append(out, c.record(domain.SettlementRecord{
			SourceID:  strconv.FormatInt(f.Timestamp, 10),
			Kind:      domain.SettlementFunding,
			Contract:  contract,
			PnL:       decimalOf(f.Rate).Mul(notional).String(),
			Fee:       "0",
			Timestamp: f.Timestamp,
		}))
	}
	for _, o := range orders {
		pnl := "0"
		if !domain.IsZero(o.RealisedPnL) {
			pnl = decimalOf(o.RealisedPnL).String()
		}
		out = append(out, c.record(domain.SettlementRecord{
			SourceID:  o.ID,
			Kind:      domain.SettlementOrder,
			Contract:  contract,
			PnL:       pnl,
			Fee:       decimalOf(o.Fee).String(),
			Currency:  o.FeeCurrency,
			Timestamp: orderTime(o),
		}))
	}
	return out, nil
}

// fundingNotional returns the account's signed funding exposure on
// contract, -(size × multiplier × mark), so that rate × notional is the
// funding received. A long position pays a positive rate. Missing data
// yields zero.
func (c *Client) fundingNotional(ctx context.Context, contract string) decimal.Decimal {
	positions, err := c.positions(ctx)
	if err != nil {
		c.logger.Warn("position unavailable for funding notional",
			slog.String("contract", contract), slog.String("error", err.Error()))
		return decimal.Zero
	}
	var pos *domain.Position
	for i := range positions {
		if positions[i].Contract == contract && !positions[i].IsFlat() {
			pos = &positions[i]
			break
		}
	}
	if pos == nil {
		return decimal.Zero
	}

	multiplier := decimal.NewFromInt(1)
	if ct, err := c.Contract(ctx, contract); err != nil {
		c.logger.Warn("contract multiplier unavailable, assuming 1",
			slog.String("contract", contract), slog.String("error", err.Error()))
	} else if m := decimalOf(ct.Multiplier); m.IsPositive() {
		multiplier = m
	}

	mark := decimalOf(pos.MarkPrice)
	if mark.IsZero() {
		if t, err := c.Ticker(ctx, contract); err == nil {
			mark = decimalOf(t.MarkPrice)
		}
	}
	return decimalOf(pos.Size).Mul(multiplier).Mul(mark).Neg()
}

func (c *Client) record(r domain.SettlementRecord) domain.SettlementRecord {
	r.Venue = c.adapter.Venue
	r.ID = convert.SettlementID(r)
	return r
}

func orderTime(o domain.Order) int64 {
	switch {
	case o.FinishTime != 0:
		return o.FinishTime
	case o.UpdateTime != 0:
		return o.UpdateTime
	default:
		return o.CreateTime
	}
}

// sortSettlements orders records newest first, breaking ties by ID.
func sortSettlements(rs []domain.SettlementRecord) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Timestamp != rs[j].Timestamp {
			return rs[i].Timestamp > rs[j].Timestamp
		}
		return rs[i].ID < rs[j].ID
	})
}

func decimalOf(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
