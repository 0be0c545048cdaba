package camcore

// Pixel unpackers convert one DMA bounce buffer into frame-buffer bytes.
//
// The parallel-capture peripheral deposits one hardware sample every four
// raw bytes: byte 0 is "sample2", byte 2 is "sample1", bytes 1 and 3 are
// unused padding introduced by the peripheral's 32-bit FIFO word width.
// s1 is the byte strobed on the active PCLK edge; s2 is the adjacent
// sample packed into the same FIFO word. This layout (and the byte
// offsets below) mirrors the dma_elem_t bit layout of the ESP32 I2S
// camera-slave peripheral that originated this design.
const hwSampleStride = 4

func sample1(src []byte, i int) byte { return src[i*hwSampleStride+2] }
func sample2(src []byte, i int) byte { return src[i*hwSampleStride+0] }

// unpackFunc converts descLen bytes of a bounce buffer (src) into dst,
// returning the number of bytes written.
type unpackFunc func(src []byte, descLen int, dst []byte) int

// selectUnpacker resolves the (format, samplingMode) pair to a single
// unpacker, matching spec.md §9's "tagged format/sampling pair ... resolve
// at session init, statically dispatched call site" design note.
func selectUnpacker(format PixelFormat, mode SamplingMode) unpackFunc {
	hs := mode == SamplingA0B0
	switch format {
	case PixelFormatJPEG:
		return unpackJPEG
	case PixelFormatGRAY8:
		if hs {
			return unpackGrayscaleHighSpeed
		}
		return unpackGrayscaleLowSpeed
	case PixelFormatYUV422, PixelFormatRGB565:
		if hs {
			return unpackYUYVHighSpeed
		}
		return unpackYUYVLowSpeed
	case PixelFormatRGB888:
		if hs {
			return unpackRGB888HighSpeed
		}
		return unpackRGB888LowSpeed
	default:
		return nil
	}
}

// unpackJPEG emits sample1 for the first component of every 4-sample
// group: JPEG is a byte stream, only sample1 carries meaningful data.
func unpackJPEG(src []byte, descLen int, dst []byte) int {
	groups := descLen / hwSampleStride / 4
	n := 0
	for g := 0; g < groups; g++ {
		base := g * 4
		dst[n+0] = sample1(src, base+0)
		dst[n+1] = sample1(src, base+1)
		dst[n+2] = sample1(src, base+2)
		dst[n+3] = sample1(src, base+3)
		n += 4
	}
	return n
}

// unpackGrayscaleLowSpeed emits sample1 from each of 4 adjacent source
// samples per output quad; output width equals input samples.
func unpackGrayscaleLowSpeed(src []byte, descLen int, dst []byte) int {
	return unpackJPEG(src, descLen, dst)
}

// unpackGrayscaleHighSpeed emits sample1 from every other source sample
// per output quad, with a 2-byte tail when descLen is not a multiple of 8
// bytes.
func unpackGrayscaleHighSpeed(src []byte, descLen int, dst []byte) int {
	groups := descLen / hwSampleStride / 8
	n := 0
	for g := 0; g < groups; g++ {
		base := g * 8
		dst[n+0] = sample1(src, base+0)
		dst[n+1] = sample1(src, base+2)
		dst[n+2] = sample1(src, base+4)
		dst[n+3] = sample1(src, base+6)
		n += 4
	}
	if descLen&0x7 != 0 {
		base := groups * 8
		dst[n+0] = sample1(src, base+0)
		dst[n+1] = sample1(src, base+2)
		n += 2
	}
	return n
}

// unpackYUYVLowSpeed emits (s1,s2) of 4 samples per 8 output bytes:
// Y U Y V Y U Y V.
func unpackYUYVLowSpeed(src []byte, descLen int, dst []byte) int {
	groups := descLen / hwSampleStride / 4
	n := 0
	for g := 0; g < groups; g++ {
		base := g * 4
		dst[n+0] = sample1(src, base+0) // y0
		dst[n+1] = sample2(src, base+0) // u
		dst[n+2] = sample1(src, base+1) // y1
		dst[n+3] = sample2(src, base+1) // v

		dst[n+4] = sample1(src, base+2) // y0
		dst[n+5] = sample2(src, base+2) // u
		dst[n+6] = sample1(src, base+3) // y1
		dst[n+7] = sample2(src, base+3) // v
		n += 8
	}
	return n
}

// unpackYUYVHighSpeed emits sample1 of 8 consecutive samples into the
// same YUYV layout; the tail handles a trailing partial group by pulling
// V from sample2 of the third sample instead of a fourth sample1.
func unpackYUYVHighSpeed(src []byte, descLen int, dst []byte) int {
	groups := descLen / hwSampleStride / 8
	n := 0
	for g := 0; g < groups; g++ {
		base := g * 8
		dst[n+0] = sample1(src, base+0)
		dst[n+1] = sample1(src, base+1)
		dst[n+2] = sample1(src, base+2)
		dst[n+3] = sample1(src, base+3)

		dst[n+4] = sample1(src, base+4)
		dst[n+5] = sample1(src, base+5)
		dst[n+6] = sample1(src, base+6)
		dst[n+7] = sample1(src, base+7)
		n += 8
	}
	if descLen&0x7 != 0 {
		base := groups * 8
		dst[n+0] = sample1(src, base+0)
		dst[n+1] = sample1(src, base+1)
		dst[n+2] = sample1(src, base+2)
		dst[n+3] = sample2(src, base+2)
		n += 4
	}
	return n
}

// maxOutputForDescriptor returns an upper bound on the number of
// frame-buffer bytes one descriptor of the given length can produce for
// (format, mode), counting the extra tail bytes a high-speed unpacker adds
// when the length is not a multiple of 8. capture.go uses this as the
// pre-unpack overrun guard of spec.md §4.4 ("if fb_pos + stride > fb_size,
// drop"); for descriptor lengths that are multiples of 32 the bound equals
// the unpacker's output, so a descriptor that exactly fills the frame
// buffer passes the guard.
func maxOutputForDescriptor(format PixelFormat, mode SamplingMode) func(descLen int) int {
	hs := mode == SamplingA0B0
	tail := func(n, extra int) int {
		if n&0x7 != 0 {
			return extra
		}
		return 0
	}
	switch format {
	case PixelFormatJPEG:
		return func(n int) int { return n / hwSampleStride }
	case PixelFormatGRAY8:
		if hs {
			return func(n int) int { return n/(hwSampleStride*2) + tail(n, 2) }
		}
		return func(n int) int { return n / hwSampleStride }
	case PixelFormatYUV422, PixelFormatRGB565:
		if hs {
			return func(n int) int { return n/hwSampleStride + tail(n, 4) }
		}
		return func(n int) int { return n / (hwSampleStride / 2) }
	case PixelFormatRGB888:
		if hs {
			return func(n int) int { return 3*n/(hwSampleStride*2) + tail(n, 6) }
		}
		return func(n int) int { return 3 * n / hwSampleStride }
	default:
		return func(int) int { return 0 }
	}
}

// expandRGB565 expands one RGB565 word (hi, lo) into an R8 G8 B8 triple.
func expandRGB565(hi, lo byte) (r, g, b byte) {
	r = (lo & 0x1F) << 3
	g = (hi&0x07)<<5 | (lo&0xE0)>>3
	b = hi & 0xF8
	return
}

// unpackRGB888LowSpeed treats each source sample as a packed RGB565 word
// (sample1=hi, sample2=lo) and expands it to RGB888, 4 samples per loop.
func unpackRGB888LowSpeed(src []byte, descLen int, dst []byte) int {
	groups := descLen / hwSampleStride / 4
	n := 0
	for g := 0; g < groups; g++ {
		base := g * 4
		for k := 0; k < 4; k++ {
			hi := sample1(src, base+k)
			lo := sample2(src, base+k)
			r, gr, b := expandRGB565(hi, lo)
			dst[n+0], dst[n+1], dst[n+2] = r, gr, b
			n += 3
		}
	}
	return n
}

// unpackRGB888HighSpeed is the same RGB565->RGB888 expansion, but hi and
// lo come from two adjacent high-speed samples instead of one sample's
// (sample1, sample2) pair.
func unpackRGB888HighSpeed(src []byte, descLen int, dst []byte) int {
	groups := descLen / hwSampleStride / 8
	n := 0
	for g := 0; g < groups; g++ {
		base := g * 8
		for k := 0; k < 4; k++ {
			hi := sample1(src, base+2*k)
			lo := sample1(src, base+2*k+1)
			r, gr, b := expandRGB565(hi, lo)
			dst[n+0], dst[n+1], dst[n+2] = r, gr, b
			n += 3
		}
	}
	if descLen&0x7 != 0 {
		base := groups * 8
		hi := sample1(src, base+0)
		lo := sample1(src, base+1)
		r, gr, b := expandRGB565(hi, lo)
		dst[n+0], dst[n+1], dst[n+2] = r, gr, b
		n += 3
		hi = sample1(src, base+2)
		lo = sample2(src, base+2)
		r, gr, b = expandRGB565(hi, lo)
		dst[n+0], dst[n+1], dst[n+2] = r, gr, b
		n += 3
	}
	return n
}
