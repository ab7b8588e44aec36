package main

import (
	"github.com/spf13/cobra"
)

func newAccountCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "account",
		Short: "Show the futures account balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			acct, err := deps.Client.Account(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, acct)
		},
	}
}

func newPositionsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "List open positions on the allowed base currencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			ps, err := deps.Client.Positions(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, ps)
		},
	}
}

func newTickerCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "ticker CONTRACT",
		Short: "Show the 24h ticker of a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			t, err := deps.Client.Ticker(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, t)
		},
	}
}

func newCandlesCmd(rt *runtime) *cobra.Command {
	var (
		interval string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "candles CONTRACT",
		Short: "Show OHLCV candles of a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			cs, err := deps.Client.Candles(cmd.Context(), args[0], interval, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, cs)
		},
	}
	cmd.Flags().StringVar(&interval, "interval", "1h", "bar interval (1m, 5m, 1h, 1d, ...)")
	cmd.Flags().IntVar(&limit, "limit", 100, "number of candles")
	return cmd
}

func newContractsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "contracts [CONTRACT]",
		Short: "Show metadata of one contract, or list all contracts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				ct, err := deps.Client.Contract(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, ct)
			}
			cs, err := deps.Client.Contracts(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, cs)
		},
	}
}

func newOrderBookCmd(rt *runtime) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "orderbook CONTRACT",
		Short: "Show an order book snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			book, err := deps.Client.OrderBook(cmd.Context(), args[0], depth)
			if err != nil {
				return err
			}
			return printJSON(cmd, book)
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 20, "levels per side")
	return cmd
}

func newFundingCmd(rt *runtime) *cobra.Command {
	var history int
	cmd := &cobra.Command{
		Use:   "funding CONTRACT",
		Short: "Show the current funding rate, or past rates with --history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			if history > 0 {
				rates, err := deps.Client.FundingRateHistory(cmd.Context(), args[0], history)
				if err != nil {
					return err
				}
				return printJSON(cmd, rates)
			}
			rate, err := deps.Client.FundingRate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, rate)
		},
	}
	cmd.Flags().IntVar(&history, "history", 0, "number of past funding rates to list")
	return cmd
}

func newLeverageCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "leverage CONTRACT LEVERAGE",
		Short: "Set position leverage on a contract",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			if err := deps.Client.SetLeverage(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"contract": args[0], "leverage": args[1]})
		},
	}
}
