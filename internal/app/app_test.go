package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/noiseguard/noiseguard/internal/config"
	"github.com/noiseguard/noiseguard/pkg/denoise"
	"github.com/noiseguard/noiseguard/pkg/denoise/mock"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	// No ops server in these tests; Run should manage the pump alone.
	cfg.Server.ListenAddr = ""
	return cfg
}

func TestNewAppliesDSPSettings(t *testing.T) {
	cfg := testConfig()
	level := 0.75
	threshold := 0.6
	comfort := false
	cfg.DSP.SuppressionLevel = &level
	cfg.DSP.VADThreshold = &threshold
	cfg.DSP.ComfortNoise = &comfort

	a, err := New(cfg, &mock.Engine{State: &mock.State{VAD: 0.9}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Shutdown(context.Background())

	if got := a.Processor().SuppressionLevel(); got != 0.75 {
		t.Errorf("SuppressionLevel() = %v, want 0.75", got)
	}
	if got := a.Processor().VADThreshold(); got != 0.6 {
		t.Errorf("VADThreshold() = %v, want 0.6", got)
	}
}

func TestNewInitFailure(t *testing.T) {
	engineErr := errors.New("model missing")
	_, err := New(testConfig(), &mock.Engine{NewStateErr: engineErr})
	if err == nil {
		t.Fatal("New() succeeded with a failing engine")
	}
	if !errors.Is(err, engineErr) {
		t.Errorf("New() error = %v, want wrapped %v", err, engineErr)
	}
}

func TestRunMovesFrames(t *testing.T) {
	cfg := testConfig()
	a, err := New(cfg, &mock.Engine{State: &mock.State{VAD: 1.0}},
		WithPumpInterval(time.Millisecond))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Shutdown(context.Background())

	frameSize := denoise.DefaultTuning().FrameSize
	frame := make([]float32, frameSize)
	for i := range frame {
		frame[i] = 0.25
	}
	if n := a.InputQueue().Write(frame); n != frameSize {
		t.Fatalf("InputQueue().Write() = %d, want %d", n, frameSize)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	out := make([]float32, frameSize)
	deadline := time.Now().Add(2 * time.Second)
	read := 0
	for read < frameSize {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for output, got %d samples", read)
		}
		read += a.OutputQueue().Read(out[read:])
		time.Sleep(time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error: %v", err)
	}

	// VAD above the threshold, so the gate converges open and the frame
	// passes through the identity engine essentially unchanged.
	for i, v := range out {
		if v < 0.2 || v > 0.3 {
			t.Fatalf("out[%d] = %v, want ~0.25", i, v)
		}
	}
}

func TestShutdownIdempotent(t *testing.T) {
	state := &mock.State{VAD: 0.5}
	a, err := New(testConfig(), &mock.Engine{State: state})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown() error: %v", err)
	}
	if state.CloseCalls != 1 {
		t.Errorf("engine state CloseCalls = %d, want 1", state.CloseCalls)
	}
}
