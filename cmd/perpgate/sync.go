package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/perpgate/internal/app"
)

func newSyncSettlementsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-settlements [CONTRACT...]",
		Short: "Copy settlement history into the store, archiving new records",
		Long: `Copy settlement history of each contract into the settlement store.
Without arguments the contracts listed in sync.contracts are synced. New
records are also archived to S3 when s3.enabled is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			if deps.Settlements == nil {
				return app.ErrNoSettlementStore
			}
			contracts := args
			if len(contracts) == 0 {
				contracts = rt.cfg.Sync.Contracts
			}
			if len(contracts) == 0 {
				return errors.New("no contracts given (pass them as arguments or set sync.contracts)")
			}
			report, err := deps.Settlements.Sync(cmd.Context(), contracts)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
}

func newWarmContractsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "warm-contracts [BASE...]",
		Short: "Fetch every contract into the cache and list those on the given bases",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.deps(cmd)
			if err != nil {
				return err
			}
			bases := args
			if len(bases) == 0 {
				bases = rt.cfg.Trading.AllowedBases
			}
			report, err := deps.Contracts.Warm(cmd.Context(), bases)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
}
