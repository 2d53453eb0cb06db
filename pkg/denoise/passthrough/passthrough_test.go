package passthrough_test

import (
	"testing"

	"github.com/noiseguard/noiseguard/pkg/denoise"
	"github.com/noiseguard/noiseguard/pkg/denoise/passthrough"
)

func newState(t *testing.T) denoise.State {
	t.Helper()
	st, err := passthrough.New().NewState(denoise.Config{SampleRate: 48000, FrameSize: 480})
	if err != nil {
		t.Fatalf("NewState() error: %v", err)
	}
	return st
}

func TestNewStateRejectsUnsupportedConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  denoise.Config
	}{
		{"wrong rate", denoise.Config{SampleRate: 44100, FrameSize: 480}},
		{"wrong frame size", denoise.Config{SampleRate: 48000, FrameSize: 960}},
		{"zero config", denoise.Config{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := passthrough.New().NewState(tt.cfg); err == nil {
				t.Errorf("NewState(%+v) accepted an unsupported config", tt.cfg)
			}
		})
	}
}

func TestProcessLeavesFrameUnchanged(t *testing.T) {
	st := newState(t)
	defer st.Close()

	frame := make([]float32, 480)
	want := make([]float32, 480)
	for i := range frame {
		frame[i] = float32(i%100) * 10
		want[i] = frame[i]
	}

	st.Process(frame)
	for i := range frame {
		if frame[i] != want[i] {
			t.Fatalf("frame[%d] = %v, want %v (frame must pass through untouched)", i, frame[i], want[i])
		}
	}
}

func TestProcessVADRamp(t *testing.T) {
	// Constant frames so RMS equals the sample amplitude; values are in the
	// int16-normalized domain the processor hands the engine.
	tests := []struct {
		name      string
		amplitude float32
		wantLo    float32
		wantHi    float32
	}{
		{"silence", 0, 0, 0},
		{"below noise floor", 0.001 * 32767, 0, 0},
		{"mid ramp", 0.016 * 32767, 0.4, 0.6},
		{"speech level", 0.05 * 32767, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newState(t)
			defer st.Close()

			frame := make([]float32, 480)
			for i := range frame {
				frame[i] = tt.amplitude
			}
			vad := st.Process(frame)
			if vad < tt.wantLo || vad > tt.wantHi {
				t.Errorf("Process() vad = %v, want in [%v, %v]", vad, tt.wantLo, tt.wantHi)
			}
		})
	}
}
