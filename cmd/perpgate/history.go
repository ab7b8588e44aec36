package main

import (
	"github.com/spf13/cobra"

	"github.com/alanyoungcy/perpgate/internal/app"
	"github.com/alanyoungcy/perpgate/internal/domain"
)

func newHistoryCmd(rt *runtime) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show trade, order and settlement history",
	}
	cmd.PersistentFlags().IntVar(&limit, "limit", 100, "maximum records")

	trades := &cobra.Command{
		Use:   "trades CONTRACT",
		Short: "List the account's fills",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			ts, err := deps.Client.TradeHistory(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, ts)
		},
	}

	orders := &cobra.Command{
		Use:   "orders CONTRACT",
		Short: "List finished orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			list, err := deps.Client.OrderHistory(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, list)
		},
	}

	var stored bool
	settlements := &cobra.Command{
		Use:   "settlements CONTRACT",
		Short: "List settlement records from the venue, or from the store with --stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			if stored {
				if deps.Settlements == nil {
					return app.ErrNoSettlementStore
				}
				rs, err := deps.Settlements.Stored(cmd.Context(), args[0], domain.ListOpts{Limit: limit})
				if err != nil {
					return err
				}
				return printJSON(cmd, rs)
			}
			rs, err := deps.Client.SettlementHistory(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, rs)
		},
	}
	settlements.Flags().BoolVar(&stored, "stored", false, "read from the settlement store")

	cmd.AddCommand(trades, orders, settlements)
	return cmd
}
