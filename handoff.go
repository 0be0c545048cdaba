package camcore

import (
	"sync/atomic"
	"time"
)

// handoffCapacity is the bounded capacity of the descriptor-index queue
// between the peripheral-done ISR and the worker (spec.md §3/§4.5:
// "capacity ≈ 16").
const handoffCapacity = 16

// ringItem is one entry of the ISR->worker queue. Rather than the
// original firmware's "maximum descriptor index as end-of-frame
// sentinel" convention, end-of-frame is an explicit tagged field per the
// alternative spec.md §9 calls out directly.
type ringItem struct {
	index uint32
	eof   bool
}

// handoff is the C5 component: a bounded single-producer/single-consumer
// lock-free queue of descriptor indices, plus a single-slot release
// primitive that Acquire waits on with a timeout.
//
// The queue side is written from ISR context and must never block or
// allocate; it is a fixed-size array with atomic head/tail cursors, the
// same shape as the bufferDescriptorRing index arithmetic used by this
// repo's enc28j60 sibling packages for their receive rings.
type handoff struct {
	items [handoffCapacity]ringItem
	head  atomic.Uint32 // next slot the worker will read
	tail  atomic.Uint32 // next slot the ISR will write

	// wake is a best-effort notification: the worker parks on it between
	// drains. A missed wake is harmless because the worker always
	// re-checks the ring before parking again.
	wake chan struct{}

	// release is the 1-capacity binary semaphore Acquire waits on.
	release chan struct{}
}

func newHandoff() *handoff {
	return &handoff{
		wake:    make(chan struct{}, 1),
		release: make(chan struct{}, 1),
	}
}

// tryPush enqueues item without blocking or allocating. It returns false
// if the queue is full, in which case the caller (the capture state
// machine) applies the overrun policy of spec.md §4.4.
func (h *handoff) tryPush(item ringItem) bool {
	tail := h.tail.Load()
	head := h.head.Load()
	if tail-head >= handoffCapacity {
		return false
	}
	h.items[tail%handoffCapacity] = item
	h.tail.Store(tail + 1)
	select {
	case h.wake <- struct{}{}:
	default:
	}
	return true
}

// pop blocks indefinitely until an item is available, matching the
// worker rule in spec.md §5 ("The worker blocks on the handoff queue
// indefinitely").
func (h *handoff) pop() ringItem {
	for {
		head := h.head.Load()
		tail := h.tail.Load()
		if head != tail {
			item := h.items[head%handoffCapacity]
			h.head.Store(head + 1)
			return item
		}
		<-h.wake
	}
}

// popOrQuit behaves like pop, but also returns (zero value, false) if quit
// is closed while waiting. Used by the worker goroutine to exit cleanly on
// Deinit instead of blocking forever on an empty queue.
func (h *handoff) popOrQuit(quit <-chan struct{}) (ringItem, bool) {
	for {
		head := h.head.Load()
		tail := h.tail.Load()
		if head != tail {
			item := h.items[head%handoffCapacity]
			h.head.Store(head + 1)
			return item, true
		}
		select {
		case <-h.wake:
		case <-quit:
			return ringItem{}, false
		}
	}
}

// pushSentinel enqueues the end-of-frame marker, dropping the oldest queued
// item if the queue is full rather than failing. A dropped sentinel would
// leave the worker blocked forever with a stopped peripheral (spec.md §4.5
// "the worker always drains the queue between frames"), so unlike a
// regular descriptor push this one must never be refused.
func (h *handoff) pushSentinel(item ringItem) {
	if h.tryPush(item) {
		return
	}
	head := h.head.Load()
	h.head.Store(head + 1)
	h.tryPush(item)
}

// signalRelease releases the handoff. It is idempotent per frame: a
// release already pending when signalRelease is called again is simply
// left in place (the channel already holds a token).
func (h *handoff) signalRelease() {
	select {
	case h.release <- struct{}{}:
	default:
	}
}

// waitRelease blocks until signalRelease has been called, or timeout
// elapses. It returns false on timeout, matching the 4s Acquire timeout
// of spec.md §4.5.
func (h *handoff) waitRelease(timeout time.Duration) bool {
	select {
	case <-h.release:
		return true
	case <-time.After(timeout):
		return false
	}
}

// drain discards any items left over from a previous (aborted) frame, so
// the next frame's worker starts from an empty queue. The sentinel is a
// barrier per spec.md §4.5 ("the worker always drains the queue between
// frames"): draining by index equality avoids re-reading the ring's
// fixed zero-valued items as phantom descriptors.
func (h *handoff) drain() {
	h.head.Store(h.tail.Load())
	select {
	case <-h.wake:
	default:
	}
	select {
	case <-h.release:
	default:
	}
}
