// Package ringbuffer implements the bounded, power-of-two-capacity,
// single-producer/single-consumer queue that every cross-thread handoff in
// the core uses.
package ringbuffer

import (
	"runtime"
	"sync/atomic"

	pkgerrors "github.com/muhammadchandra19/exchange/pkg/errors"
)

// cacheLinePad sizes padding between the producer's and consumer's cursors so
// they don't share a cache line; false sharing between head and tail would
// otherwise serialize producer and consumer progress.
const cacheLinePad = 64 - 8

// Buffer is a bounded SPSC ring. The zero value is not usable; construct
// with New. Callers must respect the single-producer/single-consumer
// contract themselves — the type does not enforce it.
type Buffer[T any] struct {
	buf  []T
	mask uint64
	cap  uint64

	_pad1 [cacheLinePad]byte
	head  atomic.Uint64 // next slot the producer will write
	_pad2 [cacheLinePad]byte
	tail  atomic.Uint64 // next slot the consumer will read
	_pad3 [cacheLinePad]byte
}

// New constructs a Buffer with the given capacity, which must be a positive
// power of two.
func New[T any](capacity int) (*Buffer[T], error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return nil, pkgerrors.NewTracer("ring capacity must be a positive power of two").Wrap(
			newCapacityError(capacity),
		)
	}

	return &Buffer[T]{
		buf:  make([]T, capacity),
		mask: uint64(capacity - 1),
		cap:  uint64(capacity),
	}, nil
}

func newCapacityError(capacity int) error {
	return pkgerrors.NewErrorDetails(
		"ring capacity must be a positive power of two",
		string(pkgerrors.ErrInvalidRingCapacity),
		"capacity",
	)
}

// TryEnqueue appends v without blocking. It returns false iff the ring
// currently holds Capacity() items.
func (b *Buffer[T]) TryEnqueue(v T) bool {
	head := b.head.Load()
	tail := b.tail.Load()
	if head-tail >= b.cap {
		return false
	}
	b.buf[head&b.mask] = v
	b.head.Store(head + 1)
	return true
}

// TryDequeue pops the oldest item into out without blocking. It returns
// false iff the ring is empty.
func (b *Buffer[T]) TryDequeue(out *T) bool {
	tail := b.tail.Load()
	head := b.head.Load()
	if head == tail {
		return false
	}
	*out = b.buf[tail&b.mask]
	b.tail.Store(tail + 1)
	return true
}

// SpinEnqueue busy-spins until v is enqueued. Used on paths where losing the
// item is not acceptable (order submission).
func (b *Buffer[T]) SpinEnqueue(v T) {
	for !b.TryEnqueue(v) {
		runtime.Gosched()
	}
}

// SpinDequeue busy-spins until an item is available and pops it into out.
func (b *Buffer[T]) SpinDequeue(out *T) {
	for !b.TryDequeue(out) {
		runtime.Gosched()
	}
}

// Empty reports whether the ring currently holds no items.
func (b *Buffer[T]) Empty() bool {
	return b.head.Load() == b.tail.Load()
}

// Full reports whether the ring currently holds Capacity() items.
func (b *Buffer[T]) Full() bool {
	return b.head.Load()-b.tail.Load() >= b.cap
}

// Capacity returns the ring's fixed capacity.
func (b *Buffer[T]) Capacity() int {
	return int(b.cap)
}

// Len returns the number of items currently queued. It is a snapshot and may
// be stale by the time the caller observes it.
func (b *Buffer[T]) Len() int {
	return int(b.head.Load() - b.tail.Load())
}
