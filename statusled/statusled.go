// Package statusled drives a single WS2812 RGB LED as a capture-state
// indicator: it implements camcore.StatsSink and maps the state string
// reported on every Acquire to a fixed color, so a board with one LED
// wired to a GPIO pin gets a visual health indicator the original capture
// firmware never had.
package statusled // import "github.com/ov2640cam/camcore/statusled"

import (
	"image/color"
	"machine"

	"github.com/ov2640cam/camcore"
)

// colors mirror the camcore capture states: dim blue while waiting for
// sync, green while capturing, amber while draining/reformatting, red on
// a restart-worthy bad frame, and off at idle.
var (
	colorIdle         = color.RGBA{}
	colorWaitingVsync = color.RGBA{B: 40}
	colorCapturing    = color.RGBA{G: 60}
	colorDraining     = color.RGBA{R: 60, G: 40}
	colorBad          = color.RGBA{R: 80}
)

// deviceType mirrors ws2812.deviceType: WS2812 sends 3 bytes per pixel in
// GRB order, SK6812 sends 4 with a trailing alpha/white channel.
type deviceType uint8

const (
	WS2812 deviceType = iota
	SK6812
)

// Device wraps the data pin of a single WS2812/SK6812 LED. The bit-timed
// WriteByte primitive is board/arch-specific and is supplied by the
// caller (the original ws2812 package generates it per clock speed; this
// adaptation narrows the driver down to the one-LED status indicator use
// case and keeps the timing-critical byte write as an injected function
// so it can be swapped for a host-side no-op in tests).
type Device struct {
	Pin        machine.Pin
	deviceType deviceType
	writeByte  func(machine.Pin, byte) bool

	lastBad int
}

// New returns a status indicator on pin, configured as WS2812 (3 bytes,
// GRB). writeByte performs the single-wire bit-banged byte write; pass
// ws2812.Device.WriteByte-equivalent board code in production, or a
// recording stub in tests.
func New(pin machine.Pin, writeByte func(machine.Pin, byte) bool) *Device {
	return &Device{Pin: pin, deviceType: WS2812, writeByte: writeByte}
}

func (d *Device) writeColor(c color.RGBA) {
	d.writeByte(d.Pin, c.G)
	d.writeByte(d.Pin, c.R)
	d.writeByte(d.Pin, c.B)
	if d.deviceType == SK6812 {
		d.writeByte(d.Pin, c.A)
	}
}

// OnFrame implements camcore.StatsSink.
func (d *Device) OnFrame(state string, stats camcore.Stats) {
	if stats.FramesBad > d.lastBad {
		d.lastBad = stats.FramesBad
		d.writeColor(colorBad)
		return
	}
	d.lastBad = stats.FramesBad

	switch state {
	case "idle":
		d.writeColor(colorIdle)
	case "waiting_vsync":
		d.writeColor(colorWaitingVsync)
	case "capturing":
		d.writeColor(colorCapturing)
	case "draining":
		d.writeColor(colorDraining)
	default:
		d.writeColor(colorIdle)
	}
}
