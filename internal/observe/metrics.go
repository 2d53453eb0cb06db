// Package observe provides the observability primitives for noiseguard:
// OpenTelemetry metric instruments for the processing pipeline and a
// Prometheus exporter bridge so metrics can be scraped via the standard
// /metrics endpoint.
//
// Instruments are recorded from the pipeline goroutine once per frame batch,
// never from inside the real-time sample path. Tests should use [NewMetrics]
// with a custom [metric.MeterProvider] to avoid cross-test pollution.
package observe

import "go.opentelemetry.io/otel/metric"

// meterName is the instrumentation scope name used for all noiseguard metrics.
const meterName = "github.com/noiseguard/noiseguard"

// Metrics holds all OpenTelemetry metric instruments for the pipeline. All
// fields are safe for concurrent use; the underlying OTel types handle their
// own synchronisation.
type Metrics struct {
	// FramesProcessed counts frames that went through the processor.
	FramesProcessed metric.Int64Counter

	// SamplesDropped counts samples lost to output-queue overflow.
	SamplesDropped metric.Int64Counter

	// Underruns counts pump ticks that found no complete frame to read.
	Underruns metric.Int64Counter

	// FrameDuration tracks per-frame processing latency in milliseconds.
	FrameDuration metric.Float64Histogram

	// InputRMS, OutputRMS, VADProbability, and GateGain mirror the
	// processor's lock-free metrics block for scraping.
	InputRMS       metric.Float64Gauge
	OutputRMS      metric.Float64Gauge
	VADProbability metric.Float64Gauge
	GateGain       metric.Float64Gauge
}

// NewMetrics creates all instruments on the given provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.FramesProcessed, err = meter.Int64Counter("noiseguard.frames.processed",
		metric.WithDescription("Frames processed by the denoise pipeline"),
		metric.WithUnit("{frame}"),
	); err != nil {
		return nil, err
	}

	if m.SamplesDropped, err = meter.Int64Counter("noiseguard.samples.dropped",
		metric.WithDescription("Samples dropped on output queue overflow"),
		metric.WithUnit("{sample}"),
	); err != nil {
		return nil, err
	}

	if m.Underruns, err = meter.Int64Counter("noiseguard.queue.underruns",
		metric.WithDescription("Pump ticks with no complete input frame available"),
	); err != nil {
		return nil, err
	}

	if m.FrameDuration, err = meter.Float64Histogram("noiseguard.frame.duration",
		metric.WithDescription("Per-frame processing latency"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.InputRMS, err = meter.Float64Gauge("noiseguard.rms.input",
		metric.WithDescription("Pre-processing RMS of the last frame"),
	); err != nil {
		return nil, err
	}

	if m.OutputRMS, err = meter.Float64Gauge("noiseguard.rms.output",
		metric.WithDescription("Post-processing RMS of the last frame"),
	); err != nil {
		return nil, err
	}

	if m.VADProbability, err = meter.Float64Gauge("noiseguard.vad.probability",
		metric.WithDescription("Voice-activity probability of the last frame"),
	); err != nil {
		return nil, err
	}

	if m.GateGain, err = meter.Float64Gauge("noiseguard.gate.gain",
		metric.WithDescription("Smoothed gate gain applied to the last frame"),
	); err != nil {
		return nil, err
	}

	return m, nil
}
