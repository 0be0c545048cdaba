package camcore

import "sync/atomic"

// FrameBuffer owns a contiguous byte region filled by one capture. It is
// created per capture, owned by the Session until released through the
// handoff, and then owned by the caller until Release is called.
type FrameBuffer struct {
	data   []byte
	width  int
	height int
	format PixelFormat
	length int

	// timestamp fields match the caller-visible (seconds, microseconds)
	// pair named in spec.md §6.
	sec  uint32
	usec uint32

	// bad is written from ISR/worker context (relaxed atomic per
	// spec.md §5) and read by the worker and Acquire.
	bad atomic.Bool

	// referenced is set once the caller holds the frame past Acquire,
	// so the worker's overrun policy (spec.md §4.4) knows not to mark
	// a held frame bad.
	referenced atomic.Bool

	released atomic.Bool
}

// newFrameBuffer allocates a FrameBuffer whose backing array has the given
// capacity. It returns ErrOutOfMemory only for a zero or negative size
// (a misconfigured Session); a real allocator failure on a capacity too
// large for the heap panics inside make() rather than returning an error.
func newFrameBuffer(size int) (*FrameBuffer, error) {
	if size <= 0 {
		return nil, ErrOutOfMemory
	}
	return &FrameBuffer{data: make([]byte, size)}, nil
}

// Data returns the captured bytes, valid up to Length(). It returns
// ErrInvalidated once Release has been called.
func (f *FrameBuffer) Data() ([]byte, error) {
	if f.released.Load() {
		return nil, ErrInvalidated
	}
	return f.data[:f.length], nil
}

// Width is the frame width stamped at the first buffer of the frame.
func (f *FrameBuffer) Width() int { return f.width }

// Height is the frame height stamped at the first buffer of the frame.
func (f *FrameBuffer) Height() int { return f.height }

// Format is the pixel format stamped at the first buffer of the frame.
func (f *FrameBuffer) Format() PixelFormat { return f.format }

// Length is the number of valid bytes in Data().
func (f *FrameBuffer) Length() int { return f.length }

// Timestamp returns the capture timestamp as (seconds, microseconds since
// boot), matching the fields named in spec.md §6.
func (f *FrameBuffer) Timestamp() (sec, usec uint32) { return f.sec, f.usec }

// Release invalidates the frame buffer: it zeroes width, height, length
// and timestamp and frees the backing bytes; the format is left as it
// was. Subsequent Data calls fail with ErrInvalidated. Release is
// idempotent.
func (f *FrameBuffer) Release() {
	if f.released.Swap(true) {
		return
	}
	f.data = nil
	f.width, f.height, f.length = 0, 0, 0
	f.sec, f.usec = 0, 0
}
