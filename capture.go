package camcore

import (
	"sync"
	"sync/atomic"
	"time"
)

type captureState uint32

const (
	stateIdle captureState = iota
	stateWaitingVsync
	stateCapturing
	stateDraining
	stateFaulted
)

const (
	initialVsyncTimeout = time.Second
	acquireTimeout      = 4 * time.Second
)

// jpegSOI is the marker sequence validated by the first-buffer check in
// spec.md §4.4; the end-of-frame scan lives in trimJPEGLength.
var jpegSOI = [3]byte{0xFF, 0xD8, 0xFF}

// capture is the C4 state machine. It owns the DMA ring, the peripheral
// controller, the handoff queue and the in-flight frame buffer, and runs
// the worker goroutine that reformats completed DMA buffers into the
// frame buffer. While the peripheral runs, descriptor bookkeeping
// (dmaDescCur, dmaReceivedCount) is touched only from the peripheral-done
// and VSYNC interrupt callbacks, a single logical producer; acquireFrame
// and restart reset it only before starting the peripheral. It therefore
// needs no synchronization of its own;
// dmaFilteredCount crosses from the worker to the VSYNC callback and is
// therefore atomic.
type capture struct {
	cfg    Config
	ring   *dmaRing
	periph peripheral
	ho     *handoff
	unpack unpackFunc
	stride func(descLen int) int

	acquireMu sync.Mutex
	state     atomic.Uint32

	fb    *FrameBuffer
	fbPos int

	dmaDescCur       int
	dmaReceivedCount int
	dmaFilteredCount atomic.Uint32

	restarts  atomic.Uint32
	timeouts  atomic.Uint32
	badFrames atomic.Uint32

	debug func(string, ...byte)

	quit       chan struct{}
	workerDone chan struct{}
}

func newCapture(cfg Config, ring *dmaRing, periph peripheral, debug func(string, ...byte)) (*capture, error) {
	unpack := selectUnpacker(cfg.Format, cfg.samplingMode())
	if unpack == nil {
		return nil, ErrConfigError
	}
	c := &capture{
		cfg:        cfg,
		ring:       ring,
		periph:     periph,
		ho:         newHandoff(),
		unpack:     unpack,
		stride:     maxOutputForDescriptor(cfg.Format, cfg.samplingMode()),
		debug:      debug,
		quit:       make(chan struct{}),
		workerDone: make(chan struct{}),
	}
	if err := periph.init(cfg.Pins, cfg.samplingMode(), c.onDescriptorDone); err != nil {
		return nil, err
	}
	go c.runWorker()
	return c, nil
}

// acquireFrame implements the acquire operation of spec.md §4.4/§6.
// acquireMu serializes callers: the core guarantees at most one capture in
// flight per Session (spec.md §1 Non-goals), so a second concurrent call
// simply waits for the first to finish rather than racing state.
func (c *capture) acquireFrame() (*FrameBuffer, error) {
	c.acquireMu.Lock()
	defer c.acquireMu.Unlock()

	fb, err := newFrameBuffer(c.cfg.frameBufferSize())
	if err != nil {
		return nil, err
	}

	c.state.Store(uint32(stateWaitingVsync))
	if !waitVsyncLow(c.periph, initialVsyncTimeout) {
		c.state.Store(uint32(stateIdle))
		c.timeouts.Add(1)
		return nil, ErrTimeout
	}

	c.ho.drain()
	c.fb = fb
	c.fbPos = 0
	c.dmaDescCur = 0
	c.dmaReceivedCount = 0
	c.dmaFilteredCount.Store(0)

	c.state.Store(uint32(stateCapturing))
	if err := c.periph.start(c.ring); err != nil {
		c.state.Store(uint32(stateIdle))
		c.fb = nil
		return nil, err
	}
	if c.cfg.Format == PixelFormatJPEG {
		c.periph.setVsyncInterrupt(true, c.onVsyncFalling)
	}

	if !c.ho.waitRelease(acquireTimeout) {
		c.periph.stop()
		c.periph.setVsyncInterrupt(false, nil)
		c.state.Store(uint32(stateIdle))
		c.timeouts.Add(1)
		held := c.fb
		c.fb = nil
		held.Release()
		return nil, ErrTimeout
	}

	result := c.fb
	c.fb = nil
	return result, nil
}

// onDescriptorDone runs from interrupt context on every completed DMA
// buffer (spec.md §4.4 "Capturing → Capturing"). It must not block or
// allocate.
func (c *capture) onDescriptorDone() {
	idx := c.dmaDescCur
	c.dmaReceivedCount++
	c.dmaDescCur = (idx + 1) % c.ring.count()

	if !c.ho.tryPush(ringItem{index: uint32(idx)}) {
		fb := c.fb
		if fb != nil && !fb.referenced.Load() {
			fb.bad.Store(true)
		}
	}

	if c.cfg.Format != PixelFormatJPEG {
		needed := c.cfg.Size.Height * c.ring.dmaPerLine
		if c.dmaReceivedCount >= needed {
			c.periph.stop()
			c.ho.pushSentinel(ringItem{eof: true})
		}
	}
}

// onVsyncFalling runs from interrupt context when VSYNC falls during a
// JPEG capture (spec.md §4.4 "Capturing → Draining (JPEG)"). It is only
// armed while capturing a JPEG frame.
func (c *capture) onVsyncFalling() {
	if c.dmaReceivedCount == 0 {
		return
	}

	c.ho.tryPush(ringItem{index: uint32(c.dmaDescCur)})
	c.dmaReceivedCount++
	c.dmaDescCur = (c.dmaDescCur + 1) % c.ring.count()

	if c.dmaFilteredCount.Load() < 2 {
		c.periph.start(c.ring)
		return
	}

	c.periph.stop()
	c.periph.setVsyncInterrupt(false, nil)
	c.ho.pushSentinel(ringItem{eof: true})
}

func (c *capture) runWorker() {
	defer close(c.workerDone)
	for {
		item, ok := c.ho.popOrQuit(c.quit)
		if !ok {
			return
		}
		if !item.eof {
			c.handleDescriptor(item.index)
			continue
		}
		c.finalizeFrame()
	}
}

func (c *capture) handleDescriptor(idx uint32) {
	fb := c.fb
	if fb == nil {
		return
	}
	if fb.bad.Load() || fb.referenced.Load() {
		return
	}

	desc := &c.ring.descriptors[idx]
	if c.fbPos+c.stride(desc.length) > len(fb.data) {
		fb.bad.Store(true)
		c.debug("camcore: frame overrun")
		return
	}

	n := c.unpack(desc.buf, desc.length, fb.data[c.fbPos:])

	if c.fbPos == 0 {
		fb.width = c.cfg.Size.Width
		fb.height = c.cfg.Size.Height
		fb.format = c.cfg.Format
		fb.sec, fb.usec = nowTimestamp()
		if c.cfg.Format == PixelFormatJPEG && !hasPrefix(fb.data, jpegSOI[:]) {
			fb.bad.Store(true)
		}
	}

	c.fbPos += n
	c.dmaFilteredCount.Add(1)
}

func (c *capture) finalizeFrame() {
	fb := c.fb
	if fb == nil {
		c.state.Store(uint32(stateIdle))
		return
	}

	if fb.bad.Load() {
		fb.length = 0
		fb.bad.Store(false)
		c.badFrames.Add(1)
		c.debug("camcore: bad frame restart")
		c.restart()
		return
	}

	length := c.fbPos
	if c.cfg.Format == PixelFormatJPEG {
		length = trimJPEGLength(fb.data[:length])
		if length != 0 {
			length = applyLengthNudges(length)
		}
	}

	if length == 0 {
		c.restart()
		return
	}

	fb.length = length
	c.state.Store(uint32(stateIdle))
	c.ho.signalRelease()
}

// restart re-arms the peripheral in place, without releasing the handoff,
// per the bad-frame and empty-JPEG-frame recovery paths of spec.md §4.4.
func (c *capture) restart() {
	c.restarts.Add(1)
	c.fbPos = 0
	c.dmaDescCur = 0
	c.dmaReceivedCount = 0
	c.dmaFilteredCount.Store(0)
	c.state.Store(uint32(stateCapturing))
	if err := c.periph.start(c.ring); err != nil {
		c.debug("camcore: restart failed")
		c.state.Store(uint32(stateIdle))
		c.ho.signalRelease()
		return
	}
	if c.cfg.Format == PixelFormatJPEG {
		c.periph.setVsyncInterrupt(true, c.onVsyncFalling)
	}
}

// stopWorker shuts the worker goroutine down; called from Session.Deinit.
func (c *capture) stopWorker() {
	close(c.quit)
	<-c.workerDone
}

func hasPrefix(data, prefix []byte) bool {
	if len(data) < len(prefix) {
		return false
	}
	for i := range prefix {
		if data[i] != prefix[i] {
			return false
		}
	}
	return true
}

// trimJPEGLength scans backward for the FF D9 00 00 pattern described in
// spec.md §4.4 and returns the length just past the FF D9 marker, or 0 if
// it is not found.
func trimJPEGLength(data []byte) int {
	for i := len(data) - 4; i >= 0; i-- {
		if data[i] == 0xFF && data[i+1] == 0xD9 && data[i+2] == 0 && data[i+3] == 0 {
			return i + 2
		}
	}
	return 0
}

// applyLengthNudges applies the two downstream-DMA-length workarounds of
// spec.md §4.4/§9, preserved verbatim from the source.
func applyLengthNudges(length int) int {
	if length&0x1FF == 0 {
		length++
	}
	if length%100 == 0 {
		length++
	}
	return length
}

func nowTimestamp() (sec, usec uint32) {
	t := time.Now()
	return uint32(t.Unix()), uint32(t.Nanosecond() / 1000)
}

func captureStateName(s captureState) string {
	switch s {
	case stateIdle:
		return "idle"
	case stateWaitingVsync:
		return "waiting_vsync"
	case stateCapturing:
		return "capturing"
	case stateDraining:
		return "draining"
	case stateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}
