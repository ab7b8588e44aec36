package main

import (
	"github.com/spf13/cobra"

	"github.com/alanyoungcy/perpgate/internal/domain"
)

func newOrderCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Place, inspect and cancel orders",
	}
	cmd.AddCommand(
		newOrderPlaceCmd(rt),
		newOrderGetCmd(rt),
		newOrderCancelCmd(rt),
		newOrderOpenCmd(rt),
	)
	return cmd
}

func newOrderPlaceCmd(rt *runtime) *cobra.Command {
	var (
		req  domain.OrderRequest
		tif  string
		side string
	)
	cmd := &cobra.Command{
		Use:   "place CONTRACT SIZE",
		Short: "Place an order; a negative SIZE sells, no --price sends a market order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			req.Contract, req.Size = args[0], args[1]
			req.TimeInForce = domain.TimeInForce(tif)
			req.PositionSide = domain.PositionSide(side)
			o, err := deps.Client.PlaceOrder(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Price, "price", "", "limit price; empty for market")
	f.StringVar(&tif, "tif", "", "time in force: gtc, ioc, fok or poc")
	f.BoolVar(&req.ReduceOnly, "reduce-only", false, "only reduce an existing position")
	f.StringVar(&side, "position-side", "", "hedge-mode leg: long or short")
	f.StringVar(&req.StopLoss, "stop-loss", "", "attached stop-loss trigger price (okx only)")
	f.StringVar(&req.TakeProfit, "take-profit", "", "attached take-profit trigger price (okx only)")
	f.StringVar(&req.Text, "text", "", "client order label")
	return cmd
}

func newOrderGetCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "get CONTRACT ORDER_ID",
		Short: "Show one order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			o, err := deps.Client.Order(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, o)
		},
	}
}

func newOrderCancelCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel CONTRACT ORDER_ID",
		Short: "Cancel an order; a finished order is returned unchanged",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			o, err := deps.Client.CancelOrder(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, o)
		},
	}
}

func newOrderOpenCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "open CONTRACT",
		Short: "List open orders on a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			list, err := deps.Client.OpenOrders(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, list)
		},
	}
}
