package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/noiseguard/noiseguard/pkg/audio"
	"github.com/noiseguard/noiseguard/pkg/denoise"
)

// streamChunk is the stdin read size in samples. One frame per read keeps
// latency bounded without hammering the queue with tiny writes.
const streamChunk = denoise.DefaultFrameSize

// drainIdle is how long the output drainer sleeps when the queue is empty.
const drainIdle = 2 * time.Millisecond

// feedInput reads little-endian signed 16-bit mono PCM from stdin and writes
// it to the capture queue until stdin closes or ctx is cancelled. Samples that
// do not fit in the queue are dropped, matching the queue's overflow policy.
func feedInput(ctx context.Context, q *audio.SampleQueue) {
	buf := make([]byte, streamChunk*2)
	samples := make([]float32, streamChunk)
	carry := 0

	for ctx.Err() == nil {
		n, err := os.Stdin.Read(buf[carry:])
		if n > 0 {
			total := carry + n
			decoded := audio.PCM16BytesToFloat32(samples, buf[:total])
			if w := q.Write(samples[:decoded]); w < decoded {
				slog.Debug("input queue full, dropping samples", "dropped", decoded-w)
			}
			// Keep a trailing odd byte for the next read.
			carry = total - decoded*2
			if carry > 0 {
				buf[0] = buf[total-1]
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Warn("stdin read error", "err", err)
			}
			return
		}
	}
}

// drainOutput reads processed samples from the playback queue and writes them
// to stdout as little-endian signed 16-bit mono PCM until ctx is cancelled.
func drainOutput(ctx context.Context, q *audio.SampleQueue) {
	samples := make([]float32, streamChunk)
	buf := make([]byte, streamChunk*2)

	for ctx.Err() == nil {
		n := q.Read(samples)
		if n == 0 {
			time.Sleep(drainIdle)
			continue
		}
		written := audio.Float32ToPCM16Bytes(buf, samples[:n])
		if _, err := os.Stdout.Write(buf[:written]); err != nil {
			slog.Warn("stdout write error", "err", err)
			return
		}
	}
}
