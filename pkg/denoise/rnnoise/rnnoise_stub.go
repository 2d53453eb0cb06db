//go:build !rnnoise

// Stub used when building without the rnnoise tag: the engine constructs,
// but creating a state fails so callers can detect the missing library and
// fall back to the passthrough engine.
package rnnoise

import (
	"errors"

	"github.com/noiseguard/noiseguard/pkg/denoise"
)

// ErrUnavailable is returned by NewState when the binary was built without
// the rnnoise build tag.
var ErrUnavailable = errors.New("rnnoise: built without rnnoise support (rebuild with -tags rnnoise)")

// Engine is the no-cgo placeholder for the RNNoise backend.
type Engine struct{}

// New returns the placeholder Engine.
func New() *Engine {
	return &Engine{}
}

// NewState always returns [ErrUnavailable].
func (e *Engine) NewState(denoise.Config) (denoise.State, error) {
	return nil, ErrUnavailable
}

var _ denoise.Engine = (*Engine)(nil)
