// Package camcore implements the real-time ingest core of a parallel-interface
// camera capture pipeline: a DMA descriptor ring fed by the sensor's VSYNC /
// HREF / PCLK timing, bounce-buffer reformatting into a user frame buffer,
// and a single-frame handoff to the caller.
//
// The sensor register driver (two-wire tuning client), board pin tables, and
// external clock generator setup are out of scope: this package only
// consumes the Sensor interface in sensor.go.
package camcore // import "github.com/ov2640cam/camcore"

import "machine"

// PixelFormat selects the output pixel encoding written into the frame
// buffer.
type PixelFormat uint8

const (
	PixelFormatGRAY8 PixelFormat = iota
	PixelFormatYUV422
	PixelFormatRGB565
	PixelFormatRGB888
	PixelFormatJPEG
)

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatGRAY8:
		return "GRAY8"
	case PixelFormatYUV422:
		return "YUV422"
	case PixelFormatRGB565:
		return "RGB565"
	case PixelFormatRGB888:
		return "RGB888"
	case PixelFormatJPEG:
		return "JPEG"
	default:
		return "unknown"
	}
}

// FrameSize is a named (width, height) resolution.
type FrameSize struct {
	Width, Height int
}

// Common resolutions for OV2640-class sensors.
var (
	FrameSizeQQVGA = FrameSize{160, 120}
	FrameSizeQVGA  = FrameSize{320, 240}
	FrameSizeVGA   = FrameSize{640, 480}
	FrameSizeSVGA  = FrameSize{800, 600}
	FrameSizeUXGA  = FrameSize{1600, 1200}
)

// SamplingMode is the hardware sampling regime of the parallel-capture
// peripheral, selected by the external clock frequency threshold
// (> 10 MHz is "high speed").
type SamplingMode uint8

const (
	// SamplingA0B0 packs two bytes per hardware sample at high speed.
	SamplingA0B0 SamplingMode = iota
	// SamplingABBC is the legacy three-nibble packing.
	SamplingABBC
	// SamplingABCD packs two effective bytes per hardware sample at low speed.
	SamplingABCD
)

// bytesPerHWSample returns the number of bytes the peripheral produces per
// hardware sample for this sampling mode.
func (m SamplingMode) bytesPerHWSample() int {
	switch m {
	case SamplingA0B0:
		return 4
	case SamplingABBC:
		return 4
	case SamplingABCD:
		return 2
	default:
		return 0
	}
}

// highSpeedThresholdHz is the external clock frequency above which the
// peripheral is run in high-speed sampling mode.
const highSpeedThresholdHz = 10_000_000

// Pins groups every pin the parallel-capture peripheral and the sensor's
// two-wire control bus need. A value of machine.NoPin on PowerDown/Reset
// means "unused".
type Pins struct {
	D0, D1, D2, D3, D4, D5, D6, D7 machine.Pin
	VSYNC, HREF, PCLK              machine.Pin
	XCLK                           machine.Pin
	SDA, SCL                       machine.Pin
	PowerDown                      machine.Pin // machine.NoPin if unused
	Reset                          machine.Pin // machine.NoPin if unused
}

// Config is the immutable configuration of a Session, supplied to Init.
type Config struct {
	Pins Pins

	// XCLKFreqHz is the external clock frequency driven into the sensor.
	XCLKFreqHz uint32

	// Format is the pixel format the sensor and unpacker are configured for.
	Format PixelFormat

	// Size is the frame resolution requested from the sensor.
	Size FrameSize

	// Quality is the JPEG quality factor, 4..64, lower is better. Ignored
	// unless Format is PixelFormatJPEG.
	Quality int

	// Core names a preferred core for the worker goroutine. camcore does
	// not read it: the worker runs on TinyGo's goroutine scheduler with no
	// affinity control, and the value is not passed to the Sensor either.
	Core int

	// Debug enables the debugf hook (see log.go). Off by default; the hook
	// is only called from the worker goroutine, never from ISR context.
	Debug bool
}

// inBpp is the fixed input bytes-per-pixel for this class of sensor
// (spec.md §3: "in_bpp = 2 for this class of sensor").
const inBpp = 2

// isHighSpeed reports whether the configured external clock selects the
// high-speed sampling regime.
func (c Config) isHighSpeed() bool {
	return c.XCLKFreqHz > highSpeedThresholdHz
}

// fbBpp returns the frame-buffer bytes-per-pixel for the configured format.
func (c Config) fbBpp() int {
	switch c.Format {
	case PixelFormatGRAY8:
		return 1
	case PixelFormatYUV422, PixelFormatRGB565:
		return 2
	case PixelFormatRGB888:
		return 3
	case PixelFormatJPEG:
		return 2
	default:
		return 0
	}
}

// compressionRatio selects the JPEG compression ratio estimate used to
// size the frame buffer, from spec.md §4.6: "q > 10 -> 16, q > 5 -> 10,
// else 4".
func compressionRatio(quality int) int {
	switch {
	case quality > 10:
		return 16
	case quality > 5:
		return 10
	default:
		return 4
	}
}

// frameBufferSize computes fb_size per the format/mode table in spec.md §4.6.
func (c Config) frameBufferSize() int {
	w, h := c.Size.Width, c.Size.Height
	switch c.Format {
	case PixelFormatJPEG:
		return (w * h * 2) / compressionRatio(c.Quality)
	default:
		return w * h * c.fbBpp()
	}
}

// samplingMode selects the hardware sampling mode for the configured
// format/speed, per the format/mode table in spec.md §4.6. JPEG is always
// captured in A0B0 (high-speed framing is mandatory for the sensor's
// on-chip compressor).
func (c Config) samplingMode() SamplingMode {
	if c.Format == PixelFormatJPEG {
		return SamplingA0B0
	}
	if c.isHighSpeed() {
		return SamplingA0B0
	}
	return SamplingABCD
}
