package camcore

import "errors"

// Sentinel errors returned by the public operations of this package.
// Callers should compare with errors.Is.
var (
	// ErrNotDetected is returned by Init when the two-wire bus probe
	// finds no device at the configured address.
	ErrNotDetected = errors.New("camcore: sensor not detected")

	// ErrNotSupported is returned by Init when the sensor's PID/VER/MID
	// registers do not match a model this package knows how to drive.
	ErrNotSupported = errors.New("camcore: sensor model not supported")

	// ErrOutOfMemory is returned when a DMA ring or frame buffer
	// allocation fails.
	ErrOutOfMemory = errors.New("camcore: out of memory")

	// ErrConfigError is returned for an unsupported (format, sensor)
	// combination, e.g. JPEG requested from a sensor that cannot
	// compress on-chip.
	ErrConfigError = errors.New("camcore: unsupported configuration")

	// ErrNotInitialized is returned by any public operation invoked
	// before Init has returned successfully.
	ErrNotInitialized = errors.New("camcore: session not initialized")

	// ErrTimeout is returned when the initial VSYNC wait (1s) or the
	// frame acquisition wait (4s) is exceeded.
	ErrTimeout = errors.New("camcore: timeout")

	// ErrTransfer is returned when the peripheral fails to start
	// (VSYNC never asserted after start).
	ErrTransfer = errors.New("camcore: transfer error")

	// ErrInvalidated is returned by FrameBuffer.Data after Release has
	// been called.
	ErrInvalidated = errors.New("camcore: frame buffer invalidated")
)
