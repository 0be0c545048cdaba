package camcore

// dmaMaxBufSize is the per-descriptor ceiling the ring sizing loop halves
// line_size below (spec.md §3: "the largest power-of-two division of
// line_size that is < 4096").
const dmaMaxBufSize = 4096

// descriptorTailShortenBytes is the hardware tail quirk applied to the
// last descriptor of every line under SamplingABBC.
const descriptorTailShortenBytes = 4

// dmaDescriptor is one entry of the cyclic DMA descriptor list. It models
// the fields of this class of hardware's descriptor word that software
// ever touches: software writes buf/length/next once at build time; the
// peripheral clears the (hardware-managed) owner bit on completion and
// software never writes it again.
type dmaDescriptor struct {
	buf    []byte // bounce buffer, len == configured descriptor length
	length int    // length field as programmed into hardware
	next   int    // index of the next descriptor, (i+1) % N
	eof    bool   // eof-candidate bit, always set per spec.md §4.2
}

// dmaRing is the C2 DMA descriptor ring: an ordered cyclic sequence of
// descriptors, each backed by its own bounce buffer.
type dmaRing struct {
	descriptors []dmaDescriptor
	lineSize    int
	bufSize     int
	dmaPerLine  int
	mode        SamplingMode
}

// buildDMARing allocates and links the descriptor ring per spec.md §4.2.
// width must be a multiple of 4 (spec.md §8 boundary behavior); callers
// are expected to have validated this already (session.go does, before
// calling buildDMARing) since the ring itself has no way to signal "bad
// width" distinctly from "allocation failed".
func buildDMARing(width, inBpp int, mode SamplingMode) (*dmaRing, error) {
	lineSize := width * inBpp * mode.bytesPerHWSample()

	bufSize := lineSize
	dmaPerLine := 1
	for bufSize >= dmaMaxBufSize {
		bufSize /= 2
		dmaPerLine *= 2
	}

	n := dmaPerLine * 4

	descriptors := make([]dmaDescriptor, n)
	for i := range descriptors {
		length := bufSize
		if mode == SamplingABBC && (i+1)%dmaPerLine == 0 {
			length -= descriptorTailShortenBytes
		}
		if length <= 0 {
			return nil, ErrOutOfMemory
		}
		buf := make([]byte, length)
		descriptors[i] = dmaDescriptor{
			buf:    buf,
			length: length,
			next:   (i + 1) % n,
			eof:    true,
		}
	}

	return &dmaRing{
		descriptors: descriptors,
		lineSize:    lineSize,
		bufSize:     bufSize,
		dmaPerLine:  dmaPerLine,
		mode:        mode,
	}, nil
}

// free releases every bounce buffer and the descriptor array. It is
// idempotent: calling free on a ring that was never built, or has
// already been freed, is a no-op.
func (r *dmaRing) free() {
	if r == nil {
		return
	}
	r.descriptors = nil
}

// count returns N, the number of descriptors in the ring.
func (r *dmaRing) count() int {
	if r == nil {
		return 0
	}
	return len(r.descriptors)
}

// totalSamples sums descriptor lengths divided by 4, used to program the
// peripheral's rx-eof-num watermark (spec.md §4.2/§4.3).
func (r *dmaRing) totalSamples() int {
	total := 0
	for _, d := range r.descriptors {
		total += d.length / hwSampleStride
	}
	return total
}
