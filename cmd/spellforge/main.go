// Package main is the entry point for Spellforge.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/samdwyer/spellforge/internal/config"
	"github.com/samdwyer/spellforge/internal/sim"
	"github.com/samdwyer/spellforge/internal/telemetry"
	"github.com/samdwyer/spellforge/internal/ui"
)

// logFile receives logs while the dashboard owns the terminal.
const logFile = "spellforge.log"

func main() {
	// Load .env file for local development. Not fatal: env vars might be set
	// directly.
	envErr := godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, envErr); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, envErr error) error {
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	if envErr != nil {
		slog.Debug(".env file not loaded", "err", envErr)
	}
	slog.Info("config loaded", "path", cfgPath, "class", cfg.Caster.Class, "seed", cfg.Seed, "headless", cfg.Headless)

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		// The game still works without traces.
		slog.Warn("telemetry setup failed, running without traces", "err", err)
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Warn("telemetry shutdown failed", "err", err)
			}
		}()
	}

	game, err := sim.New(ctx, cfg, nil)
	if err != nil {
		return fmt.Errorf("creating game: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stop := context.WithCancel(gctx)
	defer stop()

	g.Go(func() error {
		defer stop()
		if err := game.Run(runCtx); err != nil {
			return fmt.Errorf("simulation: %w", err)
		}
		return nil
	})

	if !cfg.Headless {
		screen, err := ui.NewScreen()
		if err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("opening terminal: %w", err)
		}
		g.Go(func() error {
			defer stop()
			err := ui.NewDashboard(screen, game, nil).Run(runCtx)
			if err != nil && !errors.Is(err, ui.ErrQuit) {
				return fmt.Errorf("dashboard: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	stats := game.Stats()
	slog.Info("run complete", "wave", game.Wave(), "casts", stats.Casts, "damage", stats.Damage, "kills", stats.Kills)
	return nil
}

// setupLogging installs the default slog handler. With the dashboard up,
// logs go to logFile instead of the terminal.
func setupLogging(cfg config.Spellforge) (func(), error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	if !cfg.Headless {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
	return closeFn, nil
}
