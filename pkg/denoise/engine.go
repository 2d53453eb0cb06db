// Package denoise implements the per-frame post-processing pipeline around a
// black-box neural denoising engine: voice-activity-gated attenuation with
// hysteresis, click-free exponential gain smoothing, comfort-noise injection,
// and lock-free metrics export.
//
// The engine itself is a collaborator behind the [Engine]/[State] interfaces;
// concrete backends live in subpackages (rnnoise for the native library,
// passthrough for a dependency-free fallback, mock for tests).
//
// Real-time rules for [Processor.Process]:
//
//   - No allocations: pure arithmetic over preallocated buffers.
//   - No locks, no syscalls, no blocking. Settings and metrics are independent
//     atomics.
//   - Bounded execution time: fixed loops over the 480-sample frame.
//
// Init and Close are NOT real-time safe and must only run while the
// processing goroutine is quiescent.
package denoise

// Config holds the parameters for an engine state. The frame size and sample
// rate are fixed by the engine's contract; see [DefaultTuning] for the values
// the processor uses.
type Config struct {
	// SampleRate is the audio sample rate in Hz. Denoising models are trained
	// for a specific rate; RNNoise only accepts 48000.
	SampleRate int

	// FrameSize is the exact number of samples per Process call.
	FrameSize int
}

// State is an active denoising state for a single audio stream. It is an
// interface so that test code can supply mock implementations without a live
// engine. A State must not be shared between goroutines.
type State interface {
	// Process denoises a single frame in place and returns the voice-activity
	// probability in [0, 1]. The frame must contain exactly the configured
	// FrameSize samples, scaled to the engine's integer-normalized amplitude
	// domain ([−32768, 32767] stored in float32) per the RNNoise convention.
	//
	// Called synchronously from the processing goroutine; it must not block
	// and must not allocate.
	Process(frame []float32) float32

	// Close releases the engine resources behind this state. Calling Close
	// more than once is safe and returns nil.
	Close() error
}

// Engine is the factory for denoising states, the top-level interface
// implemented by each backend.
//
// Implementations must be safe for concurrent use: multiple goroutines may
// call NewState simultaneously to create independent per-stream states.
type Engine interface {
	// NewState creates a denoising state for one audio stream. Returns an
	// error if the configuration is unsupported or the engine cannot allocate
	// its resources. Not real-time safe.
	NewState(cfg Config) (State, error)
}
