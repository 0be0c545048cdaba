//go:build esp32

package camcore

import (
	"machine"
	"runtime/interrupt"
	"runtime/volatile"
	"time"
	"unsafe"
)

// i2s0RegisterBlock mirrors the subset of the ESP32 I2S0 register file this
// driver touches when the peripheral is run in camera (slave, parallel RX)
// mode. Field names and offsets follow the ESP-IDF soc/i2s_struct.h layout;
// only the registers this driver programs are named, the rest are padding.
// The volatile.Register32-over-unsafe.Pointer shape mirrors this repo's
// rp2-pio piolib dmaChannelHW pattern, generalized from a single DMA
// channel to a single fixed peripheral instance.
type i2s0RegisterBlock struct {
	CONF         volatile.Register32
	INT_RAW      volatile.Register32
	INT_ST       volatile.Register32
	INT_ENA      volatile.Register32
	INT_CLR      volatile.Register32
	RXEOF_NUM    volatile.Register32
	CONF_SINGLE  volatile.Register32
	CONF_CHAN    volatile.Register32
	_            [8]volatile.Register32
	LC_CONF      volatile.Register32
	RX_EOF_DES_ADDR volatile.Register32
}

const i2s0Base = uintptr(0x3FF4F000)

func i2s0() *i2s0RegisterBlock {
	return (*i2s0RegisterBlock)(unsafe.Pointer(i2s0Base))
}

const (
	i2sConfRxStart    uint32 = 1 << 27
	i2sConfRxReset    uint32 = 1 << 24
	i2sConfRxSlaveMod uint32 = 1 << 25
	i2sIntInDone      uint32 = 1 << 9
	lcConfInRst       uint32 = 1 << 5
	lcConfAHBFIFORst  uint32 = 1 << 7
)

// esp32Peripheral is the real-hardware peripheral implementation.
type esp32Peripheral struct {
	pins      Pins
	mode      SamplingMode
	onDone    func()
	onFalling func()
	intr      interrupt.Interrupt
}

func newPeripheral() peripheral {
	return &esp32Peripheral{}
}

func (p *esp32Peripheral) init(pins Pins, mode SamplingMode, onDescriptorDone func()) error {
	p.pins = pins
	p.mode = mode
	p.onDone = onDescriptorDone

	for _, pin := range []machine.Pin{
		pins.D0, pins.D1, pins.D2, pins.D3, pins.D4, pins.D5, pins.D6, pins.D7,
		pins.VSYNC, pins.HREF, pins.PCLK,
	} {
		pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	}

	reg := i2s0()
	reg.CONF.Set(i2sConfRxSlaveMod)
	reg.INT_ENA.Set(0)
	reg.INT_CLR.Set(0xFFFFFFFF)

	p.intr = interrupt.New(machine.IRQ_I2S0, func(interrupt.Interrupt) {
		reg := i2s0()
		reg.INT_CLR.Set(i2sIntInDone)
		if p.onDone != nil {
			p.onDone()
		}
	})
	p.intr.SetPriority(0xC0)

	return nil
}

func (p *esp32Peripheral) start(ring *dmaRing) error {
	if !p.vsyncLow() {
		return ErrTransfer
	}

	reg := i2s0()
	reg.RXEOF_NUM.Set(uint32(ring.totalSamples()))
	reg.INT_CLR.Set(0xFFFFFFFF)
	reg.INT_ENA.Set(i2sIntInDone)
	p.intr.Enable()
	reg.CONF.Set(reg.CONF.Get() | i2sConfRxStart)
	return nil
}

func (p *esp32Peripheral) stop() {
	reg := i2s0()
	p.intr.Disable()
	reg.INT_ENA.Set(0)
	p.setVsyncInterrupt(false, nil)
	reg.CONF.Set(reg.CONF.Get() &^ i2sConfRxStart)
	reg.LC_CONF.Set(reg.LC_CONF.Get() | lcConfInRst | lcConfAHBFIFORst)
	reg.LC_CONF.Set(reg.LC_CONF.Get() &^ (lcConfInRst | lcConfAHBFIFORst))
}

func (p *esp32Peripheral) reset() error {
	reg := i2s0()
	reg.CONF.Set(reg.CONF.Get() | i2sConfRxReset)
	reg.CONF.Set(reg.CONF.Get() &^ i2sConfRxReset)
	return nil
}

func (p *esp32Peripheral) vsyncLow() bool {
	return !p.pins.VSYNC.Get()
}

func (p *esp32Peripheral) setVsyncInterrupt(enabled bool, onFallingEdge func()) {
	if !enabled {
		p.pins.VSYNC.SetInterrupt(machine.PinFalling, nil)
		p.onFalling = nil
		return
	}
	p.onFalling = onFallingEdge
	p.pins.VSYNC.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		if p.onFalling != nil {
			p.onFalling()
		}
	})
}

// waitVsyncLow busy-polls VSYNC for up to timeout, used by capture.go's
// Idle->WaitingVsync transition.
func waitVsyncLow(p peripheral, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for !p.vsyncLow() {
		if time.Now().After(deadline) {
			return false
		}
	}
	return true
}
