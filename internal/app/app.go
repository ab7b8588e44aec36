// Package app wires configuration into a ready exchange client plus the
// optional storage-backed services, and owns their shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alanyoungcy/perpgate/internal/config"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	once    sync.Once
	deps    *Dependencies
	err     error
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Dependencies wires everything on first use and returns the same set on
// later calls.
func (a *App) Dependencies(ctx context.Context) (*Dependencies, error) {
	a.once.Do(func() {
		a.logger.DebugContext(ctx, "wiring dependencies",
			slog.String("venue", string(a.cfg.Venue())),
			slog.Bool("sandbox", a.cfg.Exchange.Sandbox),
		)
		deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
		if err != nil {
			a.err = fmt.Errorf("app: wire dependencies: %w", err)
			return
		}
		a.deps = deps
		a.closers = append(a.closers, cleanup)
	})
	return a.deps, a.err
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
