package display

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestSetPixelPacksBitsMSBFirst(t *testing.T) {
	c := qt.New(t)

	d := New(nil)
	d.SetPixel(0, 0, white)
	d.SetPixel(7, 0, white)
	d.SetPixel(1, 0, black)

	c.Assert(d.blackBuffer[0], qt.Equals, byte(0x81))
}

func TestSetPixelOutOfBoundsIsIgnored(t *testing.T) {
	c := qt.New(t)

	d := New(nil)
	before := append([]byte(nil), d.blackBuffer...)
	d.SetPixel(-1, 0, white)
	d.SetPixel(width, 0, white)
	d.SetPixel(0, height, white)

	c.Assert(d.blackBuffer, qt.DeepEquals, before)
}

func TestSizeReportsConfiguredDimensions(t *testing.T) {
	c := qt.New(t)

	d := New(nil)
	x, y := d.Size()
	c.Assert(x, qt.Equals, int16(width))
	c.Assert(y, qt.Equals, int16(height))
}
