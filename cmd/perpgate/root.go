package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/perpgate/internal/app"
	"github.com/alanyoungcy/perpgate/internal/config"
)

// runtime carries what sub-commands share. The application is built on
// first use so commands that need no venue access skip config loading.
type runtime struct {
	configPath string
	stderr     io.Writer

	cfg    *config.Config
	logger *slog.Logger
	app    *app.App
}

func newRootCmd() *cobra.Command {
	rt := &runtime{stderr: os.Stderr}

	root := &cobra.Command{
		Use:           "perpgate",
		Short:         "Venue-neutral perpetual futures client for Gate.io and OKX",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.app != nil {
				rt.app.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&rt.configPath, "config", "", "path to TOML configuration file")

	root.AddCommand(
		newAccountCmd(rt),
		newPositionsCmd(rt),
		newTickerCmd(rt),
		newCandlesCmd(rt),
		newContractsCmd(rt),
		newOrderBookCmd(rt),
		newFundingCmd(rt),
		newLeverageCmd(rt),
		newOrderCmd(rt),
		newHistoryCmd(rt),
		newSyncSettlementsCmd(rt),
		newWarmContractsCmd(rt),
		newEncryptSecretCmd(),
	)
	return root
}

// deps loads and validates configuration, sets up logging and wires the
// application.
func (rt *runtime) deps(cmd *cobra.Command) (*app.Dependencies, error) {
	if rt.app == nil {
		cfg, err := config.Load(rt.configPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		rt.cfg = cfg
		rt.logger = newLogger(rt.stderr, cfg.LogLevel)
		slog.SetDefault(rt.logger)

		redacted := config.RedactedConfig(cfg)
		rt.logger.Debug("configuration loaded",
			slog.String("config", rt.configPath),
			slog.Any("exchange", redacted.Exchange),
		)
		rt.app = app.New(cfg, rt.logger)
	}
	return rt.app.Dependencies(cmd.Context())
}

// newLogger returns a JSON logger on w. Output goes to stderr so stdout
// stays machine-readable.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
