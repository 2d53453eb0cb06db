// Package pipeline runs the processing-thread side of the noiseguard data
// flow: it pulls complete frames from the input sample queue, passes them
// through the denoise processor, and pushes the result to the output queue
// and optional downstream sinks.
//
// The pump goroutine owns the consumer role of the input queue and the
// producer role of the output queue; nothing else may touch those ends while
// it runs. The steady-state loop is allocation-free: the frame scratch buffer
// is created once at construction.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noiseguard/noiseguard/internal/observe"
	"github.com/noiseguard/noiseguard/pkg/audio"
	"github.com/noiseguard/noiseguard/pkg/denoise"
)

// Sink receives each processed frame, e.g. the Opus encoder. WriteFrame is
// called from the pump goroutine and must not block for extended periods.
type Sink interface {
	WriteFrame(frame []float32) error
}

// maxFramesPerTick bounds catch-up work in a single tick so a burst of
// buffered input cannot starve the loop's cancellation check.
const maxFramesPerTick = 8

// Option configures a [Pump] during construction.
type Option func(*Pump)

// WithSink attaches a downstream sink for processed frames.
func WithSink(s Sink) Option {
	return func(p *Pump) { p.sink = s }
}

// WithMetrics attaches OTel instruments. Without it the pump still runs;
// only the processor's own lock-free metrics block is updated.
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pump) { p.metrics = m }
}

// WithInterval overrides the tick interval. The default is the frame period
// implied by the processor tuning (10 ms for 480 samples at 48 kHz). Tests
// use a short interval to run fast.
func WithInterval(d time.Duration) Option {
	return func(p *Pump) {
		if d > 0 {
			p.interval = d
		}
	}
}

// Pump is the frame-cadence loop between the sample queues and the processor.
type Pump struct {
	in   *audio.SampleQueue
	out  *audio.SampleQueue
	proc *denoise.Processor

	sink     Sink
	metrics  *observe.Metrics
	interval time.Duration
	frame    []float32

	// lastTick is the wall time of the most recent loop iteration in unix
	// nanoseconds, for the readiness probe.
	lastTick atomic.Int64

	warnedSink sync.Once
}

// New creates a Pump moving samples from in through proc to out.
func New(in, out *audio.SampleQueue, proc *denoise.Processor, opts ...Option) *Pump {
	tuning := proc.Tuning()
	p := &Pump{
		in:       in,
		out:      out,
		proc:     proc,
		interval: time.Duration(tuning.FrameSize) * time.Second / time.Duration(tuning.SampleRate),
		frame:    make([]float32, tuning.FrameSize),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// LastTick returns the wall time of the pump's most recent iteration, or the
// zero time if it has not started. Safe from any goroutine.
func (p *Pump) LastTick() time.Time {
	ns := p.lastTick.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Run drives the pump until ctx is cancelled. It returns ctx.Err() on
// cancellation so callers in an errgroup can distinguish shutdown from
// failure.
func (p *Pump) Run(ctx context.Context) error {
	slog.Info("pipeline pump starting",
		"frame_size", len(p.frame),
		"interval", p.interval,
		"queue_capacity", p.in.Capacity(),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("pipeline pump stopping")
			return ctx.Err()
		case <-ticker.C:
		}

		p.lastTick.Store(time.Now().UnixNano())
		p.tick(ctx)
	}
}

// tick drains and processes as many complete frames as are buffered, up to
// the per-tick bound.
func (p *Pump) tick(ctx context.Context) {
	frameSize := len(p.frame)
	processed := 0

	for processed < maxFramesPerTick && p.in.AvailableToRead() >= frameSize {
		if n := p.in.Read(p.frame); n != frameSize {
			// Single-consumer contract: a short read after the availability
			// check means the producer contract is broken upstream.
			break
		}

		start := time.Now()
		if _, err := p.proc.Process(p.frame); err != nil {
			// Only possible for a frame-size mismatch, which construction
			// rules out; bail rather than loop on a poisoned config.
			slog.Error("frame processing failed", "err", err)
			return
		}
		elapsed := time.Since(start)

		wrote := p.out.Write(p.frame)
		dropped := frameSize - wrote

		if p.sink != nil {
			if err := p.sink.WriteFrame(p.frame); err != nil {
				p.warnedSink.Do(func() {
					slog.Warn("sink rejected frame; further sink errors suppressed", "err", err)
				})
			}
		}

		if p.metrics != nil {
			p.metrics.FramesProcessed.Add(ctx, 1)
			p.metrics.FrameDuration.Record(ctx, float64(elapsed)/float64(time.Millisecond))
			if dropped > 0 {
				p.metrics.SamplesDropped.Add(ctx, int64(dropped))
			}
		}
		processed++
	}

	if p.metrics == nil {
		return
	}
	if processed == 0 {
		p.metrics.Underruns.Add(ctx, 1)
		return
	}

	snap := p.proc.Metrics().Snapshot()
	p.metrics.InputRMS.Record(ctx, float64(snap.InputRMS))
	p.metrics.OutputRMS.Record(ctx, float64(snap.OutputRMS))
	p.metrics.VADProbability.Record(ctx, float64(snap.VADProbability))
	p.metrics.GateGain.Record(ctx, float64(snap.CurrentGain))
}
