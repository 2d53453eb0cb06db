package denoise

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// ErrFrameSize is returned by [Processor.Process] when the supplied frame
// does not match the configured frame size.
var ErrFrameSize = errors.New("denoise: frame size mismatch")

// Processor is the stateful per-session frame pipeline. Per frame it:
//
//  1. Measures input RMS.
//  2. Runs the engine (which returns a VAD probability), scaling samples to
//     the engine's integer-normalized domain and back.
//  3. Blends the enhanced signal with the original according to the
//     suppression level (wet/dry blend).
//  4. Applies a VAD-gated attenuation with hysteresis and exponential gain
//     smoothing so non-speech sound is silenced without clicks.
//  5. Optionally injects comfort noise while heavily gated.
//  6. Measures output RMS and publishes metrics.
//
// Process must only be called from the single processing goroutine. Setters,
// getters, and Metrics are lock-free and callable from any goroutine; a
// changed setting takes effect starting with the next processed frame.
type Processor struct {
	engine Engine
	tuning Tuning

	// state is the engine handle, exclusively owned. Nil while uninitialized;
	// Process is then a safe no-op.
	state State

	// Settings, atomic for lock-free control-plane updates. Float values are
	// stored as IEEE-754 bits.
	suppressionLevel atomic.Uint32
	vadThreshold     atomic.Uint32
	comfortNoise     atomic.Bool

	// smoothGain transitions slowly toward the VAD-derived target to avoid
	// clicks. Only touched from the processing goroutine, hence not atomic.
	smoothGain float32

	// noiseState is the xorshift32 comfort-noise generator state. Processing
	// goroutine only.
	noiseState uint32

	// dry is the preallocated copy of the unprocessed frame used for the
	// wet/dry blend.
	dry []float32

	metrics Metrics
}

// New creates a Processor bound to engine with the given tuning. Call
// [Processor.Init] before processing; until then Process is a no-op.
func New(engine Engine, tuning Tuning) *Processor {
	p := &Processor{
		engine:     engine,
		tuning:     tuning,
		smoothGain: 1.0,
		noiseState: tuning.NoiseSeed,
		dry:        make([]float32, tuning.FrameSize),
	}
	p.suppressionLevel.Store(math.Float32bits(1.0))
	p.vadThreshold.Store(math.Float32bits(0.5))
	p.comfortNoise.Store(true)
	p.metrics.reset()
	return p
}

// Init creates the engine state and resets all per-session processing state
// (smoothed gain, noise generator, metrics). Any previously held state is
// released first. Not real-time safe: must only run while the processing
// goroutine is quiescent.
func (p *Processor) Init() error {
	if p.state != nil {
		_ = p.state.Close()
		p.state = nil
	}
	state, err := p.engine.NewState(Config{
		SampleRate: p.tuning.SampleRate,
		FrameSize:  p.tuning.FrameSize,
	})
	if err != nil {
		return fmt.Errorf("denoise: create engine state: %w", err)
	}
	p.state = state
	p.smoothGain = 1.0
	p.noiseState = p.tuning.NoiseSeed
	p.metrics.reset()
	return nil
}

// IsInitialized reports whether an engine state is currently held.
func (p *Processor) IsInitialized() bool {
	return p.state != nil
}

// Close releases the engine state. Idempotent; safe to call any number of
// times. Not real-time safe.
func (p *Processor) Close() error {
	if p.state == nil {
		return nil
	}
	err := p.state.Close()
	p.state = nil
	if err != nil {
		return fmt.Errorf("denoise: close engine state: %w", err)
	}
	return nil
}

// Process runs the pipeline over one frame in place and returns the raw VAD
// probability reported by the engine.
//
// The frame must contain exactly the tuned frame size of normalized [-1, 1]
// samples; anything else fails fast with [ErrFrameSize]. With no engine state
// the frame is left untouched and the result is 0. Real-time safe: no
// allocation, no locks, bounded time.
func (p *Processor) Process(frame []float32) (float32, error) {
	if len(frame) != p.tuning.FrameSize {
		return 0, fmt.Errorf("%w: got %d samples, want %d", ErrFrameSize, len(frame), p.tuning.FrameSize)
	}
	if p.state == nil {
		return 0, nil
	}

	level := p.SuppressionLevel()

	// Fast path: suppression fully off, pure passthrough. Metrics still tick.
	if level <= 0 {
		rms := computeRMS(frame)
		p.metrics.setInputRMS(rms)
		p.metrics.setOutputRMS(rms)
		p.metrics.setVAD(0)
		p.metrics.setGain(1)
		p.metrics.incrFrames()
		return 0, nil
	}

	inputRMS := computeRMS(frame)
	p.metrics.setInputRMS(inputRMS)

	// Keep the dry signal for blending and scale the frame into the engine's
	// int16-normalized amplitude domain.
	for i, s := range frame {
		p.dry[i] = s
		frame[i] = s * 32767.0
	}

	vad := p.state.Process(frame)
	p.metrics.setVAD(vad)

	const invScale = 1.0 / 32767.0
	for i := range frame {
		frame[i] *= invScale
	}

	// Wet/dry blend: level 1 is fully processed, below that the original
	// signal is mixed back in.
	if level < 1 {
		dryMix := 1 - level
		for i := range frame {
			frame[i] = frame[i]*level + p.dry[i]*dryMix
		}
	}

	// Target gate gain from the VAD probability with hysteresis:
	//   vad >= threshold        -> gate fully open
	//   vad <  threshold - hyst -> residual gain proportional to how far
	//                              below threshold we are, floored
	//   in between              -> linear ramp across the band
	threshold := p.VADThreshold()
	minGain := p.tuning.MinGateGain
	hyst := p.tuning.GateHysteresis

	var target float32
	switch {
	case vad >= threshold:
		target = 1.0
	case vad < threshold-hyst:
		ratio := vad / max(threshold-hyst, 0.01)
		target = minGain + ratio*(1-minGain)
		target = max(target, minGain)
	default:
		ratio := (vad - (threshold - hyst)) / hyst
		target = minGain + ratio*(1-minGain)
	}

	// Exponential smoothing toward the target, clamped to the legal range.
	p.smoothGain += p.tuning.GainSmoothing * (target - p.smoothGain)
	p.smoothGain = clamp32(p.smoothGain, minGain, 1.0)
	p.metrics.setGain(p.smoothGain)

	for i := range frame {
		frame[i] *= p.smoothGain
	}

	// Comfort noise while heavily gated, ramping in as the gain approaches
	// the floor so the channel never sounds completely dead.
	if p.comfortNoise.Load() && p.smoothGain < p.tuning.ComfortNoiseKnee {
		scale := (p.tuning.ComfortNoiseKnee - p.smoothGain) / p.tuning.ComfortNoiseKnee
		for i := range frame {
			frame[i] += p.comfortNoiseSample() * scale
		}
	}

	p.metrics.setOutputRMS(computeRMS(frame))
	p.metrics.incrFrames()

	return vad, nil
}

// SetSuppressionLevel sets the wet/dry suppression level, clamped to [0, 1].
// 0 is full bypass, 1 is fully processed. Lock-free; takes effect on the next
// frame.
func (p *Processor) SetSuppressionLevel(level float32) {
	p.suppressionLevel.Store(math.Float32bits(clamp32(level, 0, 1)))
}

// SuppressionLevel returns the current suppression level.
func (p *Processor) SuppressionLevel() float32 {
	return math.Float32frombits(p.suppressionLevel.Load())
}

// SetVADThreshold sets the gate threshold, clamped to [0, 1]. Frames whose
// VAD probability falls below it are attenuated toward silence. Default 0.5;
// higher gates more aggressively. Lock-free.
func (p *Processor) SetVADThreshold(threshold float32) {
	p.vadThreshold.Store(math.Float32bits(clamp32(threshold, 0, 1)))
}

// VADThreshold returns the current gate threshold.
func (p *Processor) VADThreshold() float32 {
	return math.Float32frombits(p.vadThreshold.Load())
}

// SetComfortNoise enables or disables comfort-noise injection during gated
// silence. Lock-free.
func (p *Processor) SetComfortNoise(enabled bool) {
	p.comfortNoise.Store(enabled)
}

// Metrics returns the lock-free metrics block for control-plane polling.
func (p *Processor) Metrics() *Metrics {
	return &p.metrics
}

// Tuning returns the immutable constants the processor was built with.
func (p *Processor) Tuning() Tuning {
	return p.tuning
}

// comfortNoiseSample draws one sample from the deterministic xorshift32
// generator, mapped to [-1, 1) and scaled to the comfort-noise level.
func (p *Processor) comfortNoiseSample() float32 {
	p.noiseState ^= p.noiseState << 13
	p.noiseState ^= p.noiseState >> 17
	p.noiseState ^= p.noiseState << 5
	sample := float32(int32(p.noiseState)) / 2147483648.0
	return sample * p.tuning.ComfortNoiseLevel
}

// computeRMS returns sqrt(mean(x²)) over the frame.
func computeRMS(buf []float32) float32 {
	var sum float32
	for _, s := range buf {
		sum += s * s
	}
	return float32(math.Sqrt(float64(sum / float32(len(buf)))))
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
