package camcore

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func newTestCapture(c *qt.C, format PixelFormat, size FrameSize) (*capture, *simPeripheral) {
	cfg := Config{
		Format:     format,
		Size:       size,
		XCLKFreqHz: 20_000_000,
		Quality:    12,
	}
	ring, err := buildDMARing(size.Width, inBpp, cfg.samplingMode())
	c.Assert(err, qt.IsNil)

	periph := newPeripheral().(*simPeripheral)
	cp, err := newCapture(cfg, ring, periph, func(string, ...byte) {})
	c.Assert(err, qt.IsNil)
	c.Cleanup(cp.stopWorker)

	return cp, periph
}

// driveNonJPEGFrame lowers VSYNC, lets acquireFrame proceed, then fires
// descriptor-done exactly enough times to complete one frame.
func driveNonJPEGFrame(cp *capture, periph *simPeripheral) {
	periph.setVsync(false)
	needed := cp.cfg.Size.Height * cp.ring.dmaPerLine
	// give acquireFrame a moment to observe VSYNC low and call start.
	for !periph.isRunning() {
		time.Sleep(time.Millisecond)
	}
	for i := 0; i < needed; i++ {
		periph.fireDescriptorDone()
	}
}

func TestAcquireFrameGrayscaleHappyPath(t *testing.T) {
	c := qt.New(t)
	cp, periph := newTestCapture(c, PixelFormatGRAY8, FrameSizeQQVGA)

	go driveNonJPEGFrame(cp, periph)

	fb, err := cp.acquireFrame()
	c.Assert(err, qt.IsNil)
	c.Assert(fb.width, qt.Equals, FrameSizeQQVGA.Width)
	c.Assert(fb.height, qt.Equals, FrameSizeQQVGA.Height)
	c.Assert(fb.format, qt.Equals, PixelFormatGRAY8)
	c.Assert(fb.length > 0, qt.IsTrue)
	c.Assert(captureState(cp.state.Load()), qt.Equals, stateIdle)
}

func TestAcquireFrameInitialVsyncTimeout(t *testing.T) {
	c := qt.New(t)
	cp, periph := newTestCapture(c, PixelFormatGRAY8, FrameSizeQQVGA)
	periph.setVsync(true) // VSYNC stuck high

	before := cp.timeouts.Load()
	_, err := cp.acquireFrame()
	c.Assert(err, qt.Equals, ErrTimeout)
	c.Assert(cp.timeouts.Load(), qt.Equals, before+1)
	c.Assert(captureState(cp.state.Load()), qt.Equals, stateIdle)
}

func TestCaptureBadFrameRestartsInPlace(t *testing.T) {
	c := qt.New(t)
	cp, periph := newTestCapture(c, PixelFormatGRAY8, FrameSizeQQVGA)

	// Shrink the overrun budget so the very first descriptor trips the
	// guard in handleDescriptor, forcing a bad-frame restart instead of a
	// normal finalize.
	cp.stride = func(int) int { return cp.cfg.frameBufferSize() + 1 }

	done := make(chan struct{})
	var fb *FrameBuffer
	var acquireErr error
	go func() {
		fb, acquireErr = cp.acquireFrame()
		close(done)
	}()

	periph.setVsync(false)
	for !periph.isRunning() {
		time.Sleep(time.Millisecond)
	}

	// The bad frame is only finalized (and restarted) at its end-of-frame
	// sentinel, so deliver the whole frame's worth of descriptors.
	before := cp.badFrames.Load()
	needed := cp.cfg.Size.Height * cp.ring.dmaPerLine
	for i := 0; i < needed; i++ {
		periph.fireDescriptorDone()
	}

	deadline := time.Now().Add(time.Second)
	for cp.badFrames.Load() == before && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	c.Assert(cp.badFrames.Load(), qt.Equals, before+1)

	// restart() re-arms the peripheral rather than tearing it down.
	deadline = time.Now().Add(time.Second)
	for !periph.isRunning() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	c.Assert(periph.isRunning(), qt.IsTrue)

	// Let the retried frame complete normally so acquireFrame returns and
	// the worker goroutine isn't left mid-frame at test teardown.
	cp.stride = maxOutputForDescriptor(cp.cfg.Format, cp.cfg.samplingMode())
	for i := 0; i < needed; i++ {
		periph.fireDescriptorDone()
	}
	<-done
	c.Assert(acquireErr, qt.IsNil)
	c.Assert(fb.length > 0, qt.IsTrue)
}

func TestReferencedFrameOverrunIsPreservedNotBad(t *testing.T) {
	c := qt.New(t)
	cp, periph := newTestCapture(c, PixelFormatGRAY8, FrameSizeQQVGA)

	done := make(chan struct{})
	var fb *FrameBuffer
	var acquireErr error
	go func() {
		fb, acquireErr = cp.acquireFrame()
		close(done)
	}()

	periph.setVsync(false)
	for !periph.isRunning() {
		time.Sleep(time.Millisecond)
	}

	// Let one descriptor land normally so the frame has nonzero content.
	periph.fireDescriptorDone()
	deadline := time.Now().Add(time.Second)
	for cp.dmaFilteredCount.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	c.Assert(cp.dmaFilteredCount.Load(), qt.Equals, uint32(1))

	// Simulate the caller already holding this frame (as Session.Acquire
	// would mark it) and force the next descriptor to look like an
	// overrun; the referenced frame must be dropped, not marked bad.
	before := cp.badFrames.Load()
	cp.fb.referenced.Store(true)
	cp.stride = func(int) int { return cp.cfg.frameBufferSize() + 1 }

	periph.fireDescriptorDone()
	// Dropping a referenced descriptor leaves no counter incremented to
	// poll on; give the worker goroutine time to reach handleDescriptor.
	time.Sleep(50 * time.Millisecond)
	c.Assert(cp.badFrames.Load(), qt.Equals, before)
	c.Assert(cp.fb.bad.Load(), qt.IsFalse)
	c.Assert(cp.dmaFilteredCount.Load(), qt.Equals, uint32(1))

	// Hand the frame back and let the remaining descriptors finish
	// normally so acquireFrame returns and the worker isn't left
	// mid-frame at test teardown.
	cp.fb.referenced.Store(false)
	cp.stride = maxOutputForDescriptor(cp.cfg.Format, cp.cfg.samplingMode())
	needed := cp.cfg.Size.Height * cp.ring.dmaPerLine
	for i := 2; i < needed; i++ {
		periph.fireDescriptorDone()
	}
	<-done
	c.Assert(acquireErr, qt.IsNil)
	c.Assert(fb.length > 0, qt.IsTrue)
}

func TestJPEGVsyncRearmBelowFilteredThreshold(t *testing.T) {
	c := qt.New(t)
	cp, periph := newTestCapture(c, PixelFormatJPEG, FrameSizeQVGA)

	done := make(chan struct{})
	go func() {
		cp.acquireFrame()
		close(done)
	}()

	periph.setVsync(false)
	for !periph.isRunning() {
		time.Sleep(time.Millisecond)
	}

	// One descriptor filtered (< 2): a premature VSYNC fall must re-arm
	// in place rather than finalize the frame.
	periph.fireDescriptorDone()
	deadline := time.Now().Add(time.Second)
	for cp.dmaFilteredCount.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	periph.setVsync(true)
	periph.setVsync(false) // falling edge: dmaReceivedCount==1, filtered<2

	time.Sleep(20 * time.Millisecond)
	c.Assert(periph.isRunning(), qt.IsTrue)
	select {
	case <-done:
		t.Fatal("acquireFrame returned before the release threshold was reached")
	default:
	}

	// Unblock the in-flight acquireFrame so the test doesn't leak the
	// worker goroutine past teardown.
	cp.ho.signalRelease()
	<-done
}

func TestJPEGSOIValidation(t *testing.T) {
	c := qt.New(t)
	c.Assert(hasPrefix([]byte{0xFF, 0xD8, 0xFF, 0x01}, jpegSOI[:]), qt.IsTrue)
	c.Assert(hasPrefix([]byte{0x00, 0xD8, 0xFF}, jpegSOI[:]), qt.IsFalse)
	c.Assert(hasPrefix([]byte{0xFF}, jpegSOI[:]), qt.IsFalse)
}

func TestTrimJPEGLength(t *testing.T) {
	c := qt.New(t)

	data := []byte{0xFF, 0xD8, 0xFF, 0x11, 0x22, 0xFF, 0xD9, 0x00, 0x00, 0xAA, 0xBB}
	c.Assert(trimJPEGLength(data), qt.Equals, 7)

	c.Assert(trimJPEGLength([]byte{1, 2, 3}), qt.Equals, 0)
}

func TestApplyLengthNudges(t *testing.T) {
	c := qt.New(t)

	c.Assert(applyLengthNudges(512), qt.Equals, 513)
	c.Assert(applyLengthNudges(100), qt.Equals, 101)
	c.Assert(applyLengthNudges(200), qt.Equals, 201)
	c.Assert(applyLengthNudges(513), qt.Equals, 513)
	c.Assert(applyLengthNudges(511), qt.Equals, 511)
}

func TestCaptureStateName(t *testing.T) {
	c := qt.New(t)
	c.Assert(captureStateName(stateIdle), qt.Equals, "idle")
	c.Assert(captureStateName(stateWaitingVsync), qt.Equals, "waiting_vsync")
	c.Assert(captureStateName(stateCapturing), qt.Equals, "capturing")
	c.Assert(captureStateName(stateDraining), qt.Equals, "draining")
	c.Assert(captureStateName(stateFaulted), qt.Equals, "faulted")
	c.Assert(captureStateName(captureState(99)), qt.Equals, "unknown")
}
