package audio_test

import (
	"sync"
	"testing"

	"github.com/noiseguard/noiseguard/pkg/audio"
)

func TestNewSampleQueue_CapacityRounding(t *testing.T) {
	tests := []struct {
		requested int
		want      int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{100, 128},
		{128, 128},
		{129, 256},
		{4800, 8192},
	}
	for _, tt := range tests {
		q := audio.NewSampleQueue(tt.requested)
		if got := q.Capacity(); got != tt.want {
			t.Errorf("NewSampleQueue(%d).Capacity() = %d, want %d", tt.requested, got, tt.want)
		}
	}
}

func TestSampleQueue_EmptyState(t *testing.T) {
	q := audio.NewSampleQueue(64)
	if got := q.AvailableToRead(); got != 0 {
		t.Errorf("AvailableToRead() on empty queue = %d, want 0", got)
	}
	if got := q.AvailableToWrite(); got != 63 {
		t.Errorf("AvailableToWrite() on empty queue = %d, want 63", got)
	}
	dst := make([]float32, 8)
	if got := q.Read(dst); got != 0 {
		t.Errorf("Read on empty queue = %d, want 0", got)
	}
}

func TestSampleQueue_FIFORoundTrip(t *testing.T) {
	q := audio.NewSampleQueue(64)
	src := make([]float32, 63)
	for i := range src {
		src[i] = float32(i) * 0.5
	}

	if got := q.Write(src); got != len(src) {
		t.Fatalf("Write = %d, want %d", got, len(src))
	}
	dst := make([]float32, 63)
	if got := q.Read(dst); got != len(dst) {
		t.Fatalf("Read = %d, want %d", got, len(dst))
	}
	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("sample %d: got %v, want %v", i, dst[i], src[i])
		}
	}
}

// Requested capacity 100 rounds to 128; a 130-sample write stores 127
// (one slot reserved), which read back in order, and a further read is empty.
func TestSampleQueue_OverflowDropsNewest(t *testing.T) {
	q := audio.NewSampleQueue(100)
	if got := q.Capacity(); got != 128 {
		t.Fatalf("Capacity() = %d, want 128", got)
	}

	src := make([]float32, 130)
	for i := range src {
		src[i] = float32(i + 1)
	}
	if got := q.Write(src); got != 127 {
		t.Fatalf("Write of 130 samples = %d, want 127", got)
	}
	if got := q.AvailableToRead(); got != 127 {
		t.Fatalf("AvailableToRead() = %d, want 127", got)
	}
	if got := q.AvailableToWrite(); got != 0 {
		t.Fatalf("AvailableToWrite() on full queue = %d, want 0", got)
	}

	dst := make([]float32, 127)
	if got := q.Read(dst); got != 127 {
		t.Fatalf("Read = %d, want 127", got)
	}
	for i := range dst {
		if dst[i] != src[i] {
			t.Fatalf("sample %d: got %v, want %v (order broken)", i, dst[i], src[i])
		}
	}
	if got := q.Read(dst); got != 0 {
		t.Fatalf("Read after drain = %d, want 0", got)
	}
}

func TestSampleQueue_WrapAround(t *testing.T) {
	q := audio.NewSampleQueue(8)
	chunk := make([]float32, 5)
	out := make([]float32, 5)

	// Cycle enough data through to wrap the indices several times.
	next := float32(0)
	for round := 0; round < 20; round++ {
		for i := range chunk {
			chunk[i] = next + float32(i)
		}
		if got := q.Write(chunk); got != 5 {
			t.Fatalf("round %d: Write = %d, want 5", round, got)
		}
		if got := q.Read(out); got != 5 {
			t.Fatalf("round %d: Read = %d, want 5", round, got)
		}
		for i := range out {
			if out[i] != next+float32(i) {
				t.Fatalf("round %d sample %d: got %v, want %v", round, i, out[i], next+float32(i))
			}
		}
		next += 5
	}
}

func TestSampleQueue_CapacityInvariantUnderInterleaving(t *testing.T) {
	q := audio.NewSampleQueue(16)
	src := make([]float32, 11)
	dst := make([]float32, 7)

	for i := 0; i < 500; i++ {
		free := q.AvailableToWrite()
		wrote := q.Write(src)
		if wrote > free {
			t.Fatalf("iteration %d: wrote %d samples but only %d were free", i, wrote, free)
		}
		if avail := q.AvailableToRead(); avail > q.Capacity()-1 {
			t.Fatalf("iteration %d: AvailableToRead() = %d exceeds capacity-1 = %d", i, avail, q.Capacity()-1)
		}
		q.Read(dst[:i%8])
	}
}

// A producer goroutine streams a known monotone sequence while a consumer
// drains it. The consumer must observe the sequence in order with no gaps and
// never read more than was written.
func TestSampleQueue_ConcurrentConservation(t *testing.T) {
	const total = 200_000
	q := audio.NewSampleQueue(256)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		chunk := make([]float32, 64)
		sent := 0
		for sent < total {
			n := min(len(chunk), total-sent)
			for i := 0; i < n; i++ {
				chunk[i] = float32(sent + i)
			}
			wrote := q.Write(chunk[:n])
			sent += wrote
		}
	}()

	var mismatch int64 = -1
	go func() {
		defer wg.Done()
		buf := make([]float32, 64)
		expect := float32(0)
		received := 0
		for received < total {
			n := q.Read(buf)
			for i := 0; i < n; i++ {
				if buf[i] != expect && mismatch < 0 {
					mismatch = int64(received + i)
				}
				expect++
			}
			received += n
		}
	}()

	wg.Wait()
	if mismatch >= 0 {
		t.Fatalf("consumer observed out-of-order or torn sample at position %d", mismatch)
	}
}
