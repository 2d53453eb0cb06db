// Package passthrough provides a dependency-free denoise.Engine that leaves
// audio unchanged and estimates voice activity from frame energy. It lets the
// full pipeline run on systems without the native RNNoise library, at the
// cost of no actual denoising: the VAD gate still works, driven by the RMS
// heuristic.
package passthrough

import (
	"fmt"
	"math"

	"github.com/noiseguard/noiseguard/pkg/denoise"
)

// Energy levels bounding the pseudo-VAD ramp, as RMS fractions of full scale.
// Below noiseFloor the probability is 0; above speechLevel it saturates at 1.
const (
	noiseFloor  = 0.002
	speechLevel = 0.03
)

// Engine creates passthrough states. The zero value is ready to use.
type Engine struct{}

// New returns a passthrough Engine.
func New() *Engine {
	return &Engine{}
}

// NewState returns a state for one stream. Only the RNNoise frame contract
// (48 kHz, 480 samples) is accepted so the engine stays a drop-in substitute.
func (e *Engine) NewState(cfg denoise.Config) (denoise.State, error) {
	if cfg.SampleRate != 48000 || cfg.FrameSize != 480 {
		return nil, fmt.Errorf("passthrough: unsupported config %d Hz / %d samples (want 48000/480)", cfg.SampleRate, cfg.FrameSize)
	}
	return &state{frameSize: cfg.FrameSize}, nil
}

var _ denoise.Engine = (*Engine)(nil)

type state struct {
	frameSize int
}

// Process leaves the frame unchanged and maps its RMS energy onto a pseudo
// voice-activity probability. The frame arrives in the int16-normalized
// domain, so the RMS is rescaled to [0, 1] before the ramp.
func (s *state) Process(frame []float32) float32 {
	var sum float32
	for _, v := range frame {
		sum += v * v
	}
	rms := float32(math.Sqrt(float64(sum/float32(len(frame))))) / 32767.0

	switch {
	case rms <= noiseFloor:
		return 0
	case rms >= speechLevel:
		return 1
	default:
		return (rms - noiseFloor) / (speechLevel - noiseFloor)
	}
}

func (s *state) Close() error { return nil }
