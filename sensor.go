package camcore

// Sensor is the contract for the two-wire sensor register driver consumed
// by a Session. Its implementation (probe sequence, register map, tuning
// algorithm) is explicitly out of scope of this package (spec.md §1): a
// board package wires a concrete OV2640-class driver into Session.Init
// through this interface.
//
// Every setter returns a non-nil error only on a bus I/O failure or an
// out-of-range argument; Session treats a non-nil return from any setter
// called during Init as ErrConfigError.
type Sensor interface {
	// Reset cycles the sensor's internal reset sequence over the two-wire
	// bus (distinct from the board-level hardware Reset pin), then reads
	// back an identifying register (PID/VER/MID on an OV2640-class part).
	// Reset returns ErrNotSupported if a device answers the bus but its
	// identity doesn't match a model this driver knows how to drive; any
	// other non-nil error means the bus probe itself found nothing.
	Reset() error

	SetFrameSize(size FrameSize) error
	SetPixFormat(format PixelFormat) error
	SetQuality(q int) error

	SetGainCeiling(ceiling int) error
	SetBPC(enable bool) error
	SetWPC(enable bool) error
	SetLenC(enable bool) error
	SetContrast(level int) error
	SetBrightness(level int) error
	SetSaturation(level int) error
	SetAELevel(level int) error
	SetGainCtrl(enable bool) error
	SetAGCGain(gain int) error
	SetExposureCtrl(enable bool) error
	SetAEC2(enable bool) error
	SetAECValue(value int) error
	SetHMirror(enable bool) error
	SetVFlip(enable bool) error
	SetDCW(enable bool) error
	SetWhiteBalance(enable bool) error
	SetAWBGain(enable bool) error
	SetRawGMA(enable bool) error

	// InitStatus applies the sensor's default tuning profile after the
	// format/resolution setters above have run once.
	InitStatus() error
}
