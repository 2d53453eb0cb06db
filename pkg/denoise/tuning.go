package denoise

// Frame geometry of the default engine contract: 480 samples per frame at
// 48 kHz, i.e. 10 ms frames.
const (
	DefaultFrameSize  = 480
	DefaultSampleRate = 48000
)

// Tuning holds the fixed signal-shaping constants of the processor. It is
// immutable once a [Processor] is constructed; tests vary it to exercise the
// gate without waiting through production time constants.
type Tuning struct {
	// FrameSize is the exact number of samples per frame. RNNoise operates on
	// 480 samples (10 ms at 48 kHz).
	FrameSize int

	// SampleRate in Hz, fixed by the engine's contract.
	SampleRate int

	// GainSmoothing is the exponential smoothing coefficient applied to the
	// gate gain each frame. 0.08 yields roughly a 50 ms time constant at a
	// 10 ms frame period. Higher is faster but more prone to clicks.
	GainSmoothing float32

	// MinGateGain is the gain floor when fully gated. A tiny amount is always
	// let through so comfort noise blends naturally.
	MinGateGain float32

	// GateHysteresis is the VAD band below the threshold across which the
	// target gain ramps linearly instead of snapping, preventing rapid
	// open/close toggling when VAD hovers near the threshold.
	GateHysteresis float32

	// ComfortNoiseLevel is the target RMS of injected comfort noise
	// (~0.001 ≈ −60 dBFS).
	ComfortNoiseLevel float32

	// ComfortNoiseKnee is the gain below which comfort noise ramps in; at
	// gain g the injected noise is scaled by (knee−g)/knee.
	ComfortNoiseKnee float32

	// NoiseSeed seeds the deterministic xorshift32 comfort-noise generator.
	NoiseSeed uint32
}

// DefaultTuning returns the production constants.
func DefaultTuning() Tuning {
	return Tuning{
		FrameSize:         DefaultFrameSize,
		SampleRate:        DefaultSampleRate,
		GainSmoothing:     0.08,
		MinGateGain:       0.001,
		GateHysteresis:    0.1,
		ComfortNoiseLevel: 0.001,
		ComfortNoiseKnee:  0.1,
		NoiseSeed:         0x12345678,
	}
}
