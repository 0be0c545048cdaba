// Package display renders a camcore.Session's Stats onto an adapted
// Waveshare 2.66" e-paper panel: a big "last frame" readout plus a
// scrolling event log, in place of the original driver's black/red
// bitmap use case.
package display // import "github.com/ov2640cam/camcore/display"

import (
	"fmt"
	"image/color"
	"machine"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyterm"

	"github.com/ov2640cam/camcore"
)

const (
	width  = 152
	height = 296
)

// Config names the panel's control pins. Configure uses each pin as
// given; a zero value is pin 0, not a default pin.
type Config struct {
	ResetPin      machine.Pin
	DataPin       machine.Pin
	ChipSelectPin machine.Pin
	BusyPin       machine.Pin
}

// Device is a stats panel built on the e-paper controller protocol: the
// reset/window/cursor/send-byte sequence below is kept close to the
// source driver's register choreography, only SetPixel/Display's *use*
// changed (rendered text instead of an arbitrary bitmap).
type Device struct {
	bus  drivers.SPI
	cs   machine.Pin
	dc   machine.Pin
	rst  machine.Pin
	busy machine.Pin

	width  int16
	height int16

	blackBuffer []byte
	redBuffer   []byte

	term *tinyterm.Terminal
}

// New allocates a stats panel over bus, which must already be configured.
func New(bus drivers.SPI) *Device {
	pixelCount := width * height
	bufLen := pixelCount / 8
	return &Device{
		bus:    bus,
		width:  width,
		height: height,

		blackBuffer: make([]byte, bufLen),
		redBuffer:   make([]byte, bufLen),
	}
}

// Configure wires the panel's control pins and starts the scrolling
// terminal used for the event log half of the panel.
func (d *Device) Configure(c Config) error {
	d.cs, d.dc, d.rst, d.busy = c.ChipSelectPin, c.DataPin, c.ResetPin, c.BusyPin

	d.cs.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.dc.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.rst.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.busy.Configure(machine.PinConfig{Mode: machine.PinInput})

	d.term = tinyterm.NewTerminal(d)
	d.term.Configure(&tinyterm.Config{
		FontName:   &freemono.Regular9pt7b,
		FontHeight: 16,
		FontOffset: 20,
		Width:      width,
		Height:     height,
	})

	return d.Reset()
}

func (d *Device) Size() (x, y int16) { return d.width, d.height }

// SetPixel implements tinyfont/tinyterm's Displayer interface: white
// (R, G and B all 0xff) sets the bit, anything else clears it, matching the
// "1 == white, 0 == black" RAM convention of the adapted driver.
func (d *Device) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return
	}
	p := int(x) + int(y)*int(d.width)
	bytePos, bitPos := p/8, 7-p%8
	if c.R == 0xff && c.G == 0xff && c.B == 0xff {
		d.blackBuffer[bytePos] |= 0x1 << bitPos
	} else {
		d.blackBuffer[bytePos] &^= 0x1 << bitPos
	}
}

var (
	white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	black = color.RGBA{A: 0xff}
)

// OnFrame renders a one-line "last frame" summary and appends a log line
// to the scrolling terminal, then pushes both bit planes to the
// controller. It implements camcore.StatsSink.
func (d *Device) OnFrame(state string, stats camcore.Stats) {
	for i := range d.blackBuffer {
		d.blackBuffer[i] = 0xff
	}
	summary := fmt.Sprintf("%s acq=%d bad=%d", state, stats.FramesAcquired, stats.FramesBad)
	tinyfont.Draw(d, &freemono.Regular9pt7b, 4, 20, summary, black)

	fmt.Fprintf(d.term, "%s restarts=%d timeouts=%d\n", state, stats.Restarts, stats.Timeouts)

	_ = d.Display()
}

func (d *Device) Display() error {
	if err := d.sendCommandByte(0x24); err != nil {
		return err
	}
	if err := d.sendData(d.blackBuffer); err != nil {
		return err
	}
	if err := d.sendCommandByte(0x26); err != nil {
		return err
	}
	if err := d.sendData(d.redBuffer); err != nil {
		return err
	}
	return d.turnOnDisplay()
}

func (d *Device) turnOnDisplay() error {
	if err := d.sendCommandByte(0x20); err != nil {
		return err
	}
	d.waitUntilIdle()
	return nil
}

func (d *Device) Reset() error {
	d.hwReset()
	d.waitUntilIdle()

	if err := d.sendCommandByte(0x12); err != nil {
		return err
	}
	d.waitUntilIdle()

	if err := d.sendCommandSequence([]byte{0x11, 0x03}); err != nil {
		return err
	}
	if err := d.setWindow(0, d.width-1, 0, d.height-1); err != nil {
		return err
	}
	if err := d.sendCommandSequence([]byte{0x21, 0x00, 0x80}); err != nil {
		return err
	}
	if err := d.setCursor(0, 0); err != nil {
		return err
	}
	d.waitUntilIdle()
	return nil
}

func (d *Device) setCursor(x, y uint16) error {
	if err := d.sendCommandSequence([]byte{0x4e, byte(x & 0x1f)}); err != nil {
		return err
	}
	yLo, yHi := byte(y), byte(y>>8)&0x1
	return d.sendCommandSequence([]byte{0x4f, yLo, yHi})
}

func (d *Device) hwReset() {
	d.rst.High()
	time.Sleep(50 * time.Millisecond)
	d.rst.Low()
	time.Sleep(2 * time.Millisecond)
	d.rst.High()
	time.Sleep(50 * time.Millisecond)
}

func (d *Device) setWindow(xstart, xend, ystart, yend int16) error {
	d1, d2 := byte((xstart>>3)&0x1f), byte((xend>>3)&0x1f)
	if err := d.sendCommandSequence([]byte{0x44, d1, d2}); err != nil {
		return err
	}
	ystartLo, ystartHi := byte(ystart), byte(ystart>>8)&0x1
	yendLo, yendHi := byte(yend), byte(yend>>8)&0x1
	return d.sendCommandSequence([]byte{0x45, ystartLo, ystartHi, yendLo, yendHi})
}

func (d *Device) waitUntilIdle() {
	time.Sleep(50 * time.Millisecond)
	for d.busy.Get() {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
}

func (d *Device) sendCommandSequence(seq []byte) error {
	if err := d.sendCommandByte(seq[0]); err != nil {
		return err
	}
	for i := 1; i < len(seq); i++ {
		if err := d.sendDataByte(seq[i]); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) sendCommandByte(b byte) error {
	d.dc.Low()
	d.cs.Low()
	_, err := d.bus.Transfer(b)
	d.cs.High()
	return err
}

func (d *Device) sendDataByte(b byte) error {
	d.dc.High()
	d.cs.Low()
	_, err := d.bus.Transfer(b)
	d.cs.High()
	return err
}

func (d *Device) sendData(b []byte) error {
	d.dc.High()
	d.cs.Low()
	err := d.bus.Tx(b, nil)
	d.cs.High()
	return err
}

