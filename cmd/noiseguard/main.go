// Command noiseguard runs the real-time noise suppression pipeline as a
// standalone process: raw PCM in on stdin, denoised PCM out on stdout, with
// health and metrics endpoints on a side channel.
//
// Typical use as a sox-style filter:
//
//	arecord -f S16_LE -r 48000 -c 1 | noiseguard -config config.yaml | aplay -f S16_LE -r 48000 -c 1
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/noiseguard/noiseguard/internal/app"
	"github.com/noiseguard/noiseguard/internal/config"
	"github.com/noiseguard/noiseguard/internal/observe"
	"github.com/noiseguard/noiseguard/pkg/denoise"
	"github.com/noiseguard/noiseguard/pkg/denoise/passthrough"
	"github.com/noiseguard/noiseguard/pkg/denoise/rnnoise"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	stream := flag.Bool("stream", true, "read S16LE mono 48 kHz PCM on stdin and write processed PCM to stdout")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "noiseguard: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "noiseguard: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("noiseguard starting",
		"config", *configPath,
		"engine", cfg.Engine.Name,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Metrics provider ──────────────────────────────────────────────────────
	shutdownMetrics, err := observe.InitProvider(context.Background(), observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise metrics provider", "err", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(ctx); err != nil {
			slog.Warn("metrics provider shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create instruments", "err", err)
		return 1
	}

	// ── Engine registry ───────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinEngines(reg)

	engine, err := reg.CreateEngine(cfg.Engine)
	if err != nil {
		slog.Error("failed to create engine", "name", cfg.Engine.Name, "err", err)
		return 1
	}
	slog.Info("engine created", "name", cfg.Engine.Name)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Application ───────────────────────────────────────────────────────────
	application, err := app.New(cfg, engine, app.WithMetrics(metrics))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	// Feed stdin into the input queue and drain the output queue to stdout.
	if *stream {
		go feedInput(ctx, application.InputQueue())
		go drainOutput(ctx, application.OutputQueue())
	}

	slog.Info("pipeline running — press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Engine wiring ─────────────────────────────────────────────────────────────

// registerBuiltinEngines wires the engine factories that ship with noiseguard
// into reg.
func registerBuiltinEngines(reg *config.Registry) {
	reg.RegisterEngine("passthrough", func(config.EngineEntry) (denoise.Engine, error) {
		return passthrough.New(), nil
	})
	reg.RegisterEngine("rnnoise", func(config.EngineEntry) (denoise.Engine, error) {
		return rnnoise.New(), nil
	})

	for _, name := range reg.EngineNames() {
		slog.Debug("registered engine", "name", name)
	}
}

// ── Logger ────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
