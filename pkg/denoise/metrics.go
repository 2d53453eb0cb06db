package denoise

import (
	"math"
	"sync/atomic"
)

// Metrics is the lock-free per-frame metrics block updated by the processing
// goroutine and polled by the control plane. Each field is an independent
// atomic; readers may observe the fields at different frame boundaries
// relative to each other. There is no transactional snapshot, and none is
// needed — every field is independently meaningful.
//
// Go has no atomic float32, so float fields are stored as their IEEE-754 bit
// pattern in an atomic.Uint32.
type Metrics struct {
	inputRMS        atomic.Uint32
	outputRMS       atomic.Uint32
	vadProbability  atomic.Uint32
	currentGain     atomic.Uint32
	framesProcessed atomic.Uint64
}

// Snapshot is a plain-value view of the metrics block. The fields are read
// one at a time; see [Metrics] for the consistency contract.
type Snapshot struct {
	// InputRMS is the pre-processing RMS of the last frame, in [0, 1].
	InputRMS float32

	// OutputRMS is the post-processing RMS of the last frame, in [0, 1].
	OutputRMS float32

	// VADProbability is the last voice-activity probability, in [0, 1].
	VADProbability float32

	// CurrentGain is the smoothed gate gain applied to the last frame.
	CurrentGain float32

	// FramesProcessed counts frames since the last Init.
	FramesProcessed uint64
}

// Snapshot reads every field once and returns the values. Safe to call from
// any goroutine at any rate; never blocks the processing thread.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		InputRMS:        math.Float32frombits(m.inputRMS.Load()),
		OutputRMS:       math.Float32frombits(m.outputRMS.Load()),
		VADProbability:  math.Float32frombits(m.vadProbability.Load()),
		CurrentGain:     math.Float32frombits(m.currentGain.Load()),
		FramesProcessed: m.framesProcessed.Load(),
	}
}

func (m *Metrics) reset() {
	m.inputRMS.Store(0)
	m.outputRMS.Store(0)
	m.vadProbability.Store(0)
	m.currentGain.Store(math.Float32bits(1.0))
	m.framesProcessed.Store(0)
}

func (m *Metrics) setInputRMS(v float32)  { m.inputRMS.Store(math.Float32bits(v)) }
func (m *Metrics) setOutputRMS(v float32) { m.outputRMS.Store(math.Float32bits(v)) }
func (m *Metrics) setVAD(v float32)       { m.vadProbability.Store(math.Float32bits(v)) }
func (m *Metrics) setGain(v float32)      { m.currentGain.Store(math.Float32bits(v)) }
func (m *Metrics) incrFrames()            { m.framesProcessed.Add(1) }
