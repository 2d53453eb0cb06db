// Package mock provides test doubles for the denoise package interfaces.
//
// Use Engine to verify that states are created with the expected Config. Use
// State to script VAD probabilities and inspect the frames that were
// submitted for processing.
//
// Example:
//
//	st := &mock.State{VAD: 1.0}
//	eng := &mock.Engine{State: st}
//	proc := denoise.New(eng, denoise.DefaultTuning())
package mock

import (
	"sync"

	"github.com/noiseguard/noiseguard/pkg/denoise"
)

// NewStateCall records a single invocation of Engine.NewState.
type NewStateCall struct {
	// Cfg is the Config passed to NewState.
	Cfg denoise.Config
}

// Engine is a mock implementation of denoise.Engine.
type Engine struct {
	mu sync.Mutex

	// State is the State returned by NewState. If nil, NewState returns a new
	// default State.
	State denoise.State

	// NewStateErr, if non-nil, is returned as the error from NewState.
	NewStateErr error

	// NewStateCalls records every call to NewState in order.
	NewStateCalls []NewStateCall
}

// NewState records the call and returns State, NewStateErr.
func (e *Engine) NewState(cfg denoise.Config) (denoise.State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.NewStateCalls = append(e.NewStateCalls, NewStateCall{Cfg: cfg})
	if e.NewStateErr != nil {
		return nil, e.NewStateErr
	}
	if e.State != nil {
		return e.State, nil
	}
	return &State{}, nil
}

// Ensure Engine implements denoise.Engine at compile time.
var _ denoise.Engine = (*Engine)(nil)

// State is a mock implementation of denoise.State. By default it leaves
// frames unchanged and reports the fixed VAD probability.
type State struct {
	mu sync.Mutex

	// VAD is the probability returned by Process when VADSeq is exhausted
	// (or empty).
	VAD float32

	// VADSeq, when non-empty, is consumed one value per Process call before
	// falling back to VAD.
	VADSeq []float32

	// ProcessFunc, if non-nil, is invoked with the frame and its return value
	// overrides VAD/VADSeq. Use it to mutate the frame from a test.
	ProcessFunc func(frame []float32) float32

	// Frames records a copy of every frame passed to Process.
	Frames [][]float32

	// CloseErr is returned by the first Close call.
	CloseErr error

	// CloseCalls counts Close invocations.
	CloseCalls int

	closed bool
}

// Process records a copy of the frame and returns the scripted probability.
// The frame itself is left untouched unless ProcessFunc mutates it.
func (s *State) Process(frame []float32) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]float32, len(frame))
	copy(cp, frame)
	s.Frames = append(s.Frames, cp)

	if s.ProcessFunc != nil {
		return s.ProcessFunc(frame)
	}
	if len(s.VADSeq) > 0 {
		v := s.VADSeq[0]
		s.VADSeq = s.VADSeq[1:]
		return v
	}
	return s.VAD
}

// Close records the call. The first call returns CloseErr; subsequent calls
// return nil.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCalls++
	if s.closed {
		return nil
	}
	s.closed = true
	return s.CloseErr
}

// Ensure State implements denoise.State at compile time.
var _ denoise.State = (*State)(nil)
