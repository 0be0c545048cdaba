package jpegverify

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	qt "github.com/frankban/quicktest"
)

func encodeTestJPEG(c *qt.C) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	c.Assert(jpeg.Encode(&buf, img, nil), qt.IsNil)
	return buf.Bytes()
}

func TestDecodableAcceptsRealJPEG(t *testing.T) {
	c := qt.New(t)
	c.Assert(Decodable(encodeTestJPEG(c)), qt.IsTrue)
}

func TestDecodableRejectsGarbage(t *testing.T) {
	c := qt.New(t)
	c.Assert(Decodable([]byte{0xFF, 0xD8, 0xFF, 0x00, 0x01, 0x02}), qt.IsFalse)
	c.Assert(Decodable(nil), qt.IsFalse)
}

func TestDecodableRejectsTruncatedJPEG(t *testing.T) {
	c := qt.New(t)
	full := encodeTestJPEG(c)
	c.Assert(Decodable(full[:len(full)/2]), qt.IsFalse)
}
