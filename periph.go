package camcore

// peripheral is the C3 Peripheral Controller contract: it configures the
// parallel-capture peripheral in slave/camera mode and starts/stops/
// resets it. The concrete implementation lives in periph_esp32.go
// (//go:build esp32, real register access) or periph_sim.go
// (//go:build !esp32, a software model used for host tests and any
// build that targets a board without this peripheral).
//
// onDescriptorDone is invoked from interrupt context once per completed
// DMA buffer; it must not block or allocate. The peripheral does not
// pass a descriptor index - spec.md §4.4 has the capture state machine
// itself own dma_desc_cur and advance it on every call, exactly as the
// original firmware does.
type peripheral interface {
	// init routes the sensor's data/VSYNC/HREF/PCLK lines to the
	// peripheral's slave inputs, selects the sampling mode, and
	// allocates (but does not enable) the peripheral interrupt.
	init(pins Pins, mode SamplingMode, onDescriptorDone func()) error

	// start zeroes descriptor-done counters, programs rx-eof-num from
	// ring.totalSamples(), enables only the in-done interrupt source,
	// and asserts rx-start. It returns ErrTransfer if VSYNC is not
	// observed low at the moment of starting.
	start(ring *dmaRing) error

	// stop disables both the peripheral interrupt and the VSYNC GPIO
	// interrupt, resets the peripheral, and clears rx-start.
	stop()

	// reset pulses the peripheral's rx-reset bit outside of a stop/start
	// cycle. The capture state machine does not call it: its bad-frame
	// recovery restarts the peripheral through start.
	reset() error

	// vsyncLow reports the instantaneous level of the VSYNC line.
	vsyncLow() bool

	// setVsyncInterrupt arms or disarms the VSYNC falling-edge
	// interrupt used for JPEG end-of-frame detection (spec.md §4.4).
	setVsyncInterrupt(enabled bool, onFallingEdge func())
}
