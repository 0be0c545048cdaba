package camcore

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

// makeSamples builds a bounce buffer of n hardware samples, with sample1/
// sample2 values supplied by the given functions.
func makeSamples(n int, s1, s2 func(i int) byte) []byte {
	buf := make([]byte, n*hwSampleStride)
	for i := 0; i < n; i++ {
		buf[i*hwSampleStride+0] = s2(i)
		buf[i*hwSampleStride+2] = s1(i)
	}
	return buf
}

func TestUnpackYUYVLowSpeed(t *testing.T) {
	c := qt.New(t)

	src := makeSamples(4, func(i int) byte { return byte(0x10 + i) }, func(i int) byte { return byte(0x20 + i) })
	dst := make([]byte, 8)
	n := unpackYUYVLowSpeed(src, len(src), dst)

	c.Assert(n, qt.Equals, 8)
	c.Assert(dst, qt.DeepEquals, []byte{0x10, 0x20, 0x11, 0x21, 0x12, 0x22, 0x13, 0x23})
}

func TestUnpackYUYVHighSpeed(t *testing.T) {
	c := qt.New(t)

	src := makeSamples(8, func(i int) byte { return byte(0x30 + i) }, func(i int) byte { return 0 })
	dst := make([]byte, 8)
	n := unpackYUYVHighSpeed(src, len(src), dst)

	c.Assert(n, qt.Equals, 8)
	c.Assert(dst, qt.DeepEquals, []byte{0x30, 0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37})
}

func TestUnpackJPEGIsPlainSample1Copy(t *testing.T) {
	c := qt.New(t)

	src := makeSamples(4, func(i int) byte { return byte(0x40 + i) }, func(i int) byte { return 0xFF })
	dst := make([]byte, 4)
	n := unpackJPEG(src, len(src), dst)

	c.Assert(n, qt.Equals, 4)
	c.Assert(dst, qt.DeepEquals, []byte{0x40, 0x41, 0x42, 0x43})
}

// TestExpandRGB565 checks every 16-bit RGB565 word against the algebraic
// expansion spelled out in spec.md's testable properties, not a sample of
// hand-picked words.
func TestExpandRGB565(t *testing.T) {
	for w := 0; w <= 0xFFFF; w++ {
		hi := byte(w >> 8)
		lo := byte(w & 0xFF)

		wantR := (lo & 0x1F) << 3
		wantG := (hi&0x07)<<5 | (lo&0xE0)>>3
		wantB := hi & 0xF8

		r, g, b := expandRGB565(hi, lo)
		if r != wantR || g != wantG || b != wantB {
			t.Fatalf("expandRGB565(0x%02X, 0x%02X) = (0x%02X, 0x%02X, 0x%02X), want (0x%02X, 0x%02X, 0x%02X)",
				hi, lo, r, g, b, wantR, wantG, wantB)
		}
	}
}

// TestMaxOutputForDescriptorNeverUnderestimates checks the overrun guard's
// conservative-estimate property: for every (format, mode) pair and a range
// of descriptor lengths, the estimate must be >= the unpacker's real return
// value, since capture.go relies on it to reject writes before they happen.
func TestMaxOutputForDescriptorNeverUnderestimates(t *testing.T) {
	c := qt.New(t)

	formats := []PixelFormat{PixelFormatGRAY8, PixelFormatYUV422, PixelFormatRGB565, PixelFormatRGB888, PixelFormatJPEG}
	modes := []SamplingMode{SamplingA0B0, SamplingABCD}

	for _, format := range formats {
		for _, mode := range modes {
			unpack := selectUnpacker(format, mode)
			estimate := maxOutputForDescriptor(format, mode)
			c.Assert(unpack, qt.IsNotNil)
			c.Assert(estimate, qt.IsNotNil)

			for _, descLen := range []int{32, 64, 128, 256, 512} {
				src := make([]byte, descLen)
				dst := make([]byte, estimate(descLen)+16) // headroom in case the estimate is tight
				n := unpack(src, descLen, dst)
				c.Assert(n <= estimate(descLen), qt.IsTrue,
					qt.Commentf("format=%v mode=%v descLen=%d got=%d estimate=%d", format, mode, descLen, n, estimate(descLen)))
			}
		}
	}
}
