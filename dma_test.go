package camcore

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestBuildDMARingInvariants(t *testing.T) {
	c := qt.New(t)

	for _, mode := range []SamplingMode{SamplingA0B0, SamplingABBC, SamplingABCD} {
		ring, err := buildDMARing(FrameSizeSVGA.Width, inBpp, mode)
		c.Assert(err, qt.IsNil)

		c.Assert(ring.count(), qt.Equals, ring.dmaPerLine*4)
		c.Assert(ring.bufSize < dmaMaxBufSize, qt.IsTrue)

		for i, d := range ring.descriptors {
			c.Assert(d.next, qt.Equals, (i+1)%ring.count())
			c.Assert(len(d.buf), qt.Equals, d.length)
			c.Assert(d.eof, qt.IsTrue)
		}
	}
}

func TestBuildDMARingABBCTailShortening(t *testing.T) {
	c := qt.New(t)

	ring, err := buildDMARing(FrameSizeSVGA.Width, inBpp, SamplingABBC)
	c.Assert(err, qt.IsNil)

	for i, d := range ring.descriptors {
		if (i+1)%ring.dmaPerLine == 0 {
			c.Assert(d.length, qt.Equals, ring.bufSize-descriptorTailShortenBytes)
		} else {
			c.Assert(d.length, qt.Equals, ring.bufSize)
		}
	}
}

func TestDMARingFreeAndCountOnNil(t *testing.T) {
	c := qt.New(t)

	var ring *dmaRing
	c.Assert(ring.count(), qt.Equals, 0)
	ring.free() // must not panic

	built, err := buildDMARing(FrameSizeQVGA.Width, inBpp, SamplingA0B0)
	c.Assert(err, qt.IsNil)
	built.free()
	c.Assert(built.descriptors, qt.IsNil)
}

func TestTotalSamples(t *testing.T) {
	c := qt.New(t)

	ring, err := buildDMARing(FrameSizeQVGA.Width, inBpp, SamplingA0B0)
	c.Assert(err, qt.IsNil)

	want := 0
	for _, d := range ring.descriptors {
		want += d.length / hwSampleStride
	}
	c.Assert(ring.totalSamples(), qt.Equals, want)
}
