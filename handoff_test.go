package camcore

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestHandoffPushPopOrder(t *testing.T) {
	c := qt.New(t)

	h := newHandoff()
	for i := uint32(0); i < 5; i++ {
		c.Assert(h.tryPush(ringItem{index: i}), qt.IsTrue)
	}
	for i := uint32(0); i < 5; i++ {
		item := h.pop()
		c.Assert(item.index, qt.Equals, i)
		c.Assert(item.eof, qt.IsFalse)
	}
}

func TestHandoffTryPushFailsWhenFull(t *testing.T) {
	c := qt.New(t)

	h := newHandoff()
	for i := 0; i < handoffCapacity; i++ {
		c.Assert(h.tryPush(ringItem{index: uint32(i)}), qt.IsTrue)
	}
	c.Assert(h.tryPush(ringItem{index: 999}), qt.IsFalse)
}

func TestHandoffPushSentinelEvictsOldestWhenFull(t *testing.T) {
	c := qt.New(t)

	h := newHandoff()
	for i := 0; i < handoffCapacity; i++ {
		c.Assert(h.tryPush(ringItem{index: uint32(i)}), qt.IsTrue)
	}
	h.pushSentinel(ringItem{eof: true})

	// the oldest entry (index 0) must have been dropped to make room.
	first := h.pop()
	c.Assert(first.index, qt.Equals, uint32(1))

	for i := 0; i < handoffCapacity-2; i++ {
		h.pop()
	}
	last := h.pop()
	c.Assert(last.eof, qt.IsTrue)
}

func TestHandoffPopOrQuitReturnsFalseOnQuit(t *testing.T) {
	c := qt.New(t)

	h := newHandoff()
	quit := make(chan struct{})
	close(quit)

	_, ok := h.popOrQuit(quit)
	c.Assert(ok, qt.IsFalse)
}

func TestHandoffPopOrQuitReturnsPushedItem(t *testing.T) {
	c := qt.New(t)

	h := newHandoff()
	quit := make(chan struct{})
	h.tryPush(ringItem{index: 7})

	item, ok := h.popOrQuit(quit)
	c.Assert(ok, qt.IsTrue)
	c.Assert(item.index, qt.Equals, uint32(7))
}

func TestHandoffDrainResetsQueueAndPendingSignals(t *testing.T) {
	c := qt.New(t)

	h := newHandoff()
	h.tryPush(ringItem{index: 1})
	h.tryPush(ringItem{index: 2})
	h.signalRelease()

	h.drain()

	c.Assert(h.head.Load(), qt.Equals, h.tail.Load())
	c.Assert(h.waitRelease(10*time.Millisecond), qt.IsFalse)
}

func TestHandoffWaitReleaseSignalsAndTimesOut(t *testing.T) {
	c := qt.New(t)

	h := newHandoff()
	h.signalRelease()
	c.Assert(h.waitRelease(time.Second), qt.IsTrue)
	c.Assert(h.waitRelease(10*time.Millisecond), qt.IsFalse)
}
