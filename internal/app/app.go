// Package app wires all noiseguard subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects the sample
// queues, the frame processor, the pipeline pump, and the ops server; Run
// executes them; Shutdown tears everything down in order.
//
// For testing, inject doubles via functional options (WithMetrics,
// WithInterval, ...). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/noiseguard/noiseguard/internal/config"
	"github.com/noiseguard/noiseguard/internal/health"
	"github.com/noiseguard/noiseguard/internal/observe"
	"github.com/noiseguard/noiseguard/internal/pipeline"
	"github.com/noiseguard/noiseguard/internal/server"
	"github.com/noiseguard/noiseguard/pkg/audio"
	"github.com/noiseguard/noiseguard/pkg/denoise"
)

// pipelineStaleAfter is how long the pump may go without a tick before the
// readiness probe reports it stalled.
const pipelineStaleAfter = 2 * time.Second

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithMetrics injects OTel instruments instead of creating them on the
// global meter provider.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithPumpInterval overrides the pipeline tick interval (tests).
func WithPumpInterval(d time.Duration) Option {
	return func(a *App) { a.pumpInterval = d }
}

// WithOpusEmit sets the callback receiving Opus packets when the sink is
// enabled in config. Without it, packets are encoded and discarded.
func WithOpusEmit(emit func(packet []byte)) Option {
	return func(a *App) { a.opusEmit = emit }
}

// App owns all subsystem lifetimes.
type App struct {
	cfg  *config.Config
	proc *denoise.Processor
	in   *audio.SampleQueue
	out  *audio.SampleQueue
	pump *pipeline.Pump
	ops  *server.Server

	metrics      *observe.Metrics
	pumpInterval time.Duration
	opusEmit     func(packet []byte)

	// closers are called in order during Shutdown.
	closers []func() error

	stopOnce sync.Once
	stopErr  error
}

// New creates an App by wiring all subsystems together. engine is the
// denoising backend selected by main via the config registry.
func New(cfg *config.Config, engine denoise.Engine, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	tuning := denoise.DefaultTuning()

	// Queues. The capture side writes the input queue; the playback side
	// reads the output queue. Both ends outside the pump are the embedder's.
	a.in = audio.NewSampleQueue(cfg.Audio.QueueCapacity)
	a.out = audio.NewSampleQueue(cfg.Audio.QueueCapacity)

	// Processor with starting settings from config.
	a.proc = denoise.New(engine, tuning)
	if err := a.proc.Init(); err != nil {
		return nil, fmt.Errorf("app: init processor: %w", err)
	}
	a.closers = append(a.closers, a.proc.Close)
	a.proc.SetSuppressionLevel(float32(*cfg.DSP.SuppressionLevel))
	a.proc.SetVADThreshold(float32(*cfg.DSP.VADThreshold))
	a.proc.SetComfortNoise(*cfg.DSP.ComfortNoise)

	// Pipeline pump, with the Opus sink when configured.
	pumpOpts := []pipeline.Option{}
	if a.metrics != nil {
		pumpOpts = append(pumpOpts, pipeline.WithMetrics(a.metrics))
	}
	if a.pumpInterval > 0 {
		pumpOpts = append(pumpOpts, pipeline.WithInterval(a.pumpInterval))
	}
	if cfg.Audio.OpusSink {
		emit := a.opusEmit
		if emit == nil {
			emit = func([]byte) {}
		}
		sink, err := audio.NewOpusSink(tuning.SampleRate, tuning.FrameSize, emit)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("app: create opus sink: %w", err)
		}
		pumpOpts = append(pumpOpts, pipeline.WithSink(sink))
	}
	a.pump = pipeline.New(a.in, a.out, a.proc, pumpOpts...)

	// Ops server.
	if cfg.Server.ListenAddr != "" {
		checkers := health.New(
			health.EngineChecker(a.proc.IsInitialized),
			health.PipelineChecker(a.pump.LastTick, pipelineStaleAfter),
		)
		a.ops = server.New(cfg.Server.ListenAddr, checkers, a.proc.Metrics().Snapshot)
	}

	return a, nil
}

// Processor returns the frame processor so the embedder's control surface
// can adjust settings and poll metrics.
func (a *App) Processor() *denoise.Processor {
	return a.proc
}

// InputQueue returns the capture-side queue. Exactly one goroutine may write
// it.
func (a *App) InputQueue() *audio.SampleQueue {
	return a.in
}

// OutputQueue returns the playback-side queue. Exactly one goroutine may
// read it.
func (a *App) OutputQueue() *audio.SampleQueue {
	return a.out
}

// Run executes the pipeline pump and the ops server until ctx is cancelled
// or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.pump.Run(ctx)
	})
	if a.ops != nil {
		g.Go(func() error {
			return a.ops.Run(ctx)
		})
	}

	return g.Wait()
}

// Shutdown releases all subsystem resources. Idempotent; must only run after
// Run has returned (the processor teardown is not safe under a live pump).
func (a *App) Shutdown(ctx context.Context) error {
	a.stopOnce.Do(func() {
		slog.Info("shutting down",
			"frames_processed", a.proc.Metrics().Snapshot().FramesProcessed,
		)
		a.stopErr = a.close()
	})
	return a.stopErr
}

func (a *App) close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
