// Package audio provides the real-time sample transport primitives for the
// noiseguard pipeline: a lock-free single-producer/single-consumer sample
// queue, float32/int16 PCM conversion helpers, and an optional Opus packet
// sink for downstream transport.
//
// Rules for the real-time path:
//
//   - No allocations after construction. [SampleQueue.Write] and
//     [SampleQueue.Read] touch only the preallocated backing storage.
//   - No locks, no syscalls, no blocking. Index publication uses atomics only.
//   - Capacity is a power of two so positions are derived with a bitwise mask.
package audio

import "sync/atomic"

// SampleQueue is a lock-free single-producer, single-consumer FIFO of
// float32 samples. It bridges a hard-real-time audio callback and a
// processing goroutine without locks or blocking.
//
// The queue uses two monotonically increasing indices and a power-of-two
// backing array. One slot is permanently reserved so that "empty" and "full"
// can be distinguished from the indices alone: at most Capacity()-1 samples
// are ever live.
//
// Go's sync/atomic operations are sequentially consistent, which is strictly
// stronger than the acquire/release pairing the algorithm needs: a consumer
// that observes an updated write index also observes the sample stores that
// preceded it, and symmetrically for the producer and the read index.
//
// Thread assignment is a contract, not something the queue defends against:
// exactly one goroutine may ever call Write, and exactly one (possibly
// different) goroutine may ever call Read. AvailableToRead and
// AvailableToWrite may be called from either side and return a point-in-time
// lower bound under concurrent modification.
type SampleQueue struct {
	capacity uint64
	mask     uint64
	buf      []float32

	// The indices live on separate cache lines so the producer and consumer
	// do not invalidate each other's line on every store (false sharing).
	readIdx  atomic.Uint64
	_        [56]byte
	writeIdx atomic.Uint64
	_        [56]byte
}

// NewSampleQueue creates a queue whose capacity is the requested value
// rounded up to the next power of two (a request of 0 yields 1). The backing
// storage is allocated once here; the queue is never resized.
func NewSampleQueue(capacity int) *SampleQueue {
	c := nextPowerOfTwo(uint64(max(capacity, 0)))
	return &SampleQueue{
		capacity: c,
		mask:     c - 1,
		buf:      make([]float32, c),
	}
}

// Capacity returns the power-of-two size of the backing storage. The usable
// depth is Capacity()-1 because of the reserved slot.
func (q *SampleQueue) Capacity() int {
	return int(q.capacity)
}

// AvailableToRead returns the number of samples currently readable. Under
// concurrent writes this is a lower bound valid at the moment of the call.
func (q *SampleQueue) AvailableToRead() int {
	w := q.writeIdx.Load()
	r := q.readIdx.Load()
	return int(w - r)
}

// AvailableToWrite returns the number of sample slots currently writable.
// One slot is always reserved, so this never exceeds Capacity()-1.
func (q *SampleQueue) AvailableToWrite() int {
	return int(q.capacity) - q.AvailableToRead() - 1
}

// Write copies up to len(src) samples into the queue and returns the number
// actually written. Excess samples are silently dropped (overflow policy:
// drop newest). Never blocks, never errors.
//
// Producer-only: exactly one goroutine may call Write.
func (q *SampleQueue) Write(src []float32) int {
	w := q.writeIdx.Load()
	r := q.readIdx.Load()

	free := q.capacity - (w - r) - 1
	n := uint64(len(src))
	if n > free {
		n = free
	}
	if n == 0 {
		return 0
	}
	for i := uint64(0); i < n; i++ {
		q.buf[(w+i)&q.mask] = src[i]
	}
	q.writeIdx.Store(w + n)
	return int(n)
}

// Read copies up to len(dst) samples out of the queue and returns the number
// actually read. An underrun yields a short (possibly zero) read, not an
// error. Never blocks.
//
// Consumer-only: exactly one goroutine may call Read.
func (q *SampleQueue) Read(dst []float32) int {
	r := q.readIdx.Load()
	w := q.writeIdx.Load()

	avail := w - r
	n := uint64(len(dst))
	if n > avail {
		n = avail
	}
	if n == 0 {
		return 0
	}
	for i := uint64(0); i < n; i++ {
		dst[i] = q.buf[(r+i)&q.mask]
	}
	q.readIdx.Store(r + n)
	return int(n)
}

// nextPowerOfTwo rounds n up to the next power of two. Zero yields one.
func nextPowerOfTwo(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	for shift := uint(1); shift < 64; shift *= 2 {
		n |= n >> shift
	}
	return n + 1
}
