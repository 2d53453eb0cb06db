//go:build rnnoise

// Package rnnoise binds the native librnnoise denoiser behind the
// denoise.Engine interface. Build with -tags rnnoise and librnnoise
// installed; without the tag the stub in this package reports the engine as
// unavailable so callers can fall back to the passthrough engine.
package rnnoise

/*
#cgo pkg-config: rnnoise
#include <rnnoise.h>
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/noiseguard/noiseguard/pkg/denoise"
)

// Engine creates RNNoise states using the library's built-in model.
type Engine struct{}

// New returns an RNNoise Engine.
func New() *Engine {
	return &Engine{}
}

// NewState allocates a DenoiseState. RNNoise only accepts 48 kHz audio in
// 480-sample frames.
func (e *Engine) NewState(cfg denoise.Config) (denoise.State, error) {
	if cfg.SampleRate != 48000 || cfg.FrameSize != 480 {
		return nil, fmt.Errorf("rnnoise: unsupported config %d Hz / %d samples (want 48000/480)", cfg.SampleRate, cfg.FrameSize)
	}
	st := C.rnnoise_create(nil)
	if st == nil {
		return nil, fmt.Errorf("rnnoise: failed to allocate DenoiseState")
	}
	return &state{st: st}, nil
}

var _ denoise.Engine = (*Engine)(nil)

type state struct {
	st *C.DenoiseState
}

// Process denoises the frame in place and returns the VAD probability. The
// frame must already be in RNNoise's int16-normalized float domain.
func (s *state) Process(frame []float32) float32 {
	p := (*C.float)(unsafe.Pointer(&frame[0]))
	return float32(C.rnnoise_process_frame(s.st, p, p))
}

// Close frees the DenoiseState. Idempotent.
func (s *state) Close() error {
	if s.st != nil {
		C.rnnoise_destroy(s.st)
		s.st = nil
	}
	return nil
}
