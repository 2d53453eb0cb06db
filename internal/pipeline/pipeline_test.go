package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/noiseguard/noiseguard/internal/pipeline"
	"github.com/noiseguard/noiseguard/pkg/audio"
	"github.com/noiseguard/noiseguard/pkg/denoise"
	"github.com/noiseguard/noiseguard/pkg/denoise/mock"
)

func newPump(t *testing.T, opts ...pipeline.Option) (*pipeline.Pump, *audio.SampleQueue, *audio.SampleQueue) {
	t.Helper()
	proc := denoise.New(&mock.Engine{State: &mock.State{VAD: 1}}, denoise.DefaultTuning())
	if err := proc.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	in := audio.NewSampleQueue(4800)
	out := audio.NewSampleQueue(4800)
	opts = append([]pipeline.Option{pipeline.WithInterval(time.Millisecond)}, opts...)
	return pipeline.New(in, out, proc, opts...), in, out
}

func TestPump_MovesFramesThrough(t *testing.T) {
	pump, in, out := newPump(t)

	// Three full frames of a known ramp.
	const frames = 3
	src := make([]float32, 480*frames)
	for i := range src {
		src[i] = float32(i%480) / 480
	}
	if n := in.Write(src); n != len(src) {
		t.Fatalf("seeded %d samples, want %d", n, len(src))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pump.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for out.AvailableToRead() < 480*frames {
		select {
		case <-deadline:
			t.Fatalf("pump moved only %d of %d samples", out.AvailableToRead(), 480*frames)
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}

	// Identity engine with VAD 1 and a full-open gate: output equals input
	// modulo the engine domain-scale round trip.
	got := make([]float32, 480*frames)
	if n := out.Read(got); n != len(got) {
		t.Fatalf("read %d samples, want %d", n, len(got))
	}
	for i := range got {
		diff := got[i] - src[i]
		if diff < -1e-5 || diff > 1e-5 {
			t.Fatalf("sample %d: got %v, want ~%v", i, got[i], src[i])
		}
	}
}

func TestPump_PartialFrameStaysQueued(t *testing.T) {
	pump, in, out := newPump(t)

	// 479 samples: one short of a frame. The pump must not consume them.
	if n := in.Write(make([]float32, 479)); n != 479 {
		t.Fatal("seed failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = pump.Run(ctx)

	if got := in.AvailableToRead(); got != 479 {
		t.Errorf("input queue has %d samples, want 479 untouched", got)
	}
	if got := out.AvailableToRead(); got != 0 {
		t.Errorf("output queue has %d samples, want 0", got)
	}
}

type recordingSink struct {
	frames int
	err    error
}

func (s *recordingSink) WriteFrame(frame []float32) error {
	s.frames++
	return s.err
}

func TestPump_FeedsSink(t *testing.T) {
	sink := &recordingSink{}
	pump, in, _ := newPump(t, pipeline.WithSink(sink))

	if n := in.Write(make([]float32, 480*2)); n != 960 {
		t.Fatal("seed failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = pump.Run(ctx)

	if sink.frames != 2 {
		t.Errorf("sink received %d frames, want 2", sink.frames)
	}
}

func TestPump_LastTickAdvances(t *testing.T) {
	pump, _, _ := newPump(t)

	if !pump.LastTick().IsZero() {
		t.Fatal("LastTick before Run should be the zero time")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = pump.Run(ctx)

	if pump.LastTick().IsZero() {
		t.Error("LastTick still zero after Run")
	}
}
