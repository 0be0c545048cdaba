package camcore

import (
	"errors"
	"machine"
	"sync"
	"sync/atomic"
	"time"
)

// Stats is a read-only snapshot of a Session's capture counters. Not named
// in spec.md's core data model; added so the display/console/publish
// packages have something concrete to render instead of reaching into
// Session internals.
type Stats struct {
	FramesAcquired int
	FramesBad      int
	Timeouts       int
	Restarts       int
}

// StatsSink observes completed captures. display, statusled, publish and
// netannounce each implement it so camcore never imports any of them.
type StatsSink interface {
	OnFrame(state string, stats Stats)
}

// Session is the C6 component and the package's process-wide singleton:
// it owns the sensor handle, the DMA ring, the peripheral controller, and
// the capture worker. Only one Session is expected to be alive at a time
// (spec.md §3).
type Session struct {
	cfg    Config
	sensor Sensor
	ring   *dmaRing
	cap    *capture

	framesAcquired atomic.Uint32

	subMu sync.Mutex
	subs  []StatsSink

	deinited bool
}

// Init probes the sensor, sizes the DMA ring and frame buffer for the
// requested format/resolution, spawns the worker, and captures and
// discards one frame so the sensor's AGC/AWB can settle, per spec.md §4.6.
// sensor must already be bound to the board's two-wire bus; its register
// driver is out of scope of this package (spec.md §1).
func Init(cfg Config, sensor Sensor) (*Session, error) {
	if cfg.Size.Width%4 != 0 {
		return nil, ErrConfigError
	}
	if selectUnpacker(cfg.Format, cfg.samplingMode()) == nil {
		return nil, ErrConfigError
	}

	s := &Session{cfg: cfg, sensor: sensor}

	if cfg.Pins.PowerDown != machine.NoPin {
		cfg.Pins.PowerDown.Configure(machine.PinConfig{Mode: machine.PinOutput})
		cfg.Pins.PowerDown.Low()
	}
	if cfg.Pins.Reset != machine.NoPin {
		cfg.Pins.Reset.Configure(machine.PinConfig{Mode: machine.PinOutput})
		cfg.Pins.Reset.Low()
		time.Sleep(10 * time.Millisecond)
		cfg.Pins.Reset.High()
	}

	machine.I2C0.Configure(machine.I2CConfig{SDA: cfg.Pins.SDA, SCL: cfg.Pins.SCL})

	if err := sensor.Reset(); err != nil {
		if errors.Is(err, ErrNotSupported) {
			return nil, ErrNotSupported
		}
		return nil, ErrNotDetected
	}
	if err := sensor.SetFrameSize(cfg.Size); err != nil {
		return nil, ErrConfigError
	}
	if err := sensor.SetPixFormat(cfg.Format); err != nil {
		return nil, ErrConfigError
	}
	if cfg.Format == PixelFormatJPEG {
		if err := sensor.SetQuality(cfg.Quality); err != nil {
			return nil, ErrConfigError
		}
	}

	ring, err := buildDMARing(cfg.Size.Width, inBpp, cfg.samplingMode())
	if err != nil {
		return nil, err
	}
	s.ring = ring

	cap, err := newCapture(cfg, ring, newPeripheral(), s.debugf)
	if err != nil {
		ring.free()
		return nil, err
	}
	s.cap = cap

	if err := sensor.InitStatus(); err != nil {
		cap.stopWorker()
		ring.free()
		return nil, ErrConfigError
	}

	if fb, err := s.Acquire(); err == nil {
		fb.Release()
	}

	return s, nil
}

// Acquire returns the next completed frame, per spec.md §4.4/§6.
func (s *Session) Acquire() (*FrameBuffer, error) {
	if s.cap == nil {
		return nil, ErrNotInitialized
	}
	fb, err := s.cap.acquireFrame()
	if err != nil {
		s.notify()
		return nil, err
	}
	// The caller now holds fb past this return; mark it so a descriptor
	// still in flight for it (spec.md §4.4 overrun policy) is dropped
	// rather than silently overwriting data the caller already has.
	fb.referenced.Store(true)
	s.framesAcquired.Add(1)
	s.notify()
	return fb, nil
}

// Sensor returns a borrow of the sensor handle, valid only while the
// Session is alive (spec.md §6 "sensor_get").
func (s *Session) Sensor() Sensor { return s.sensor }

// RecalculateCompression adjusts the JPEG quality factor and the frame
// buffer size estimate used by the next Acquire, per spec.md §4.6/§6.
func (s *Session) RecalculateCompression(quality int) error {
	if s.cap == nil {
		return ErrNotInitialized
	}
	if s.cfg.Format != PixelFormatJPEG {
		return ErrConfigError
	}
	if err := s.sensor.SetQuality(quality); err != nil {
		return ErrConfigError
	}
	s.cfg.Quality = quality
	s.cap.cfg.Quality = quality
	return nil
}

// Stats returns a snapshot of the Session's capture counters.
func (s *Session) Stats() Stats {
	st := Stats{FramesAcquired: int(s.framesAcquired.Load())}
	if s.cap != nil {
		st.FramesBad = int(s.cap.badFrames.Load())
		st.Timeouts = int(s.cap.timeouts.Load())
		st.Restarts = int(s.cap.restarts.Load())
	}
	return st
}

// Subscribe registers sink to observe every future Acquire outcome.
func (s *Session) Subscribe(sink StatsSink) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = append(s.subs, sink)
}

func (s *Session) notify() {
	s.subMu.Lock()
	subs := make([]StatsSink, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()
	if len(subs) == 0 {
		return
	}
	state := captureStateName(captureState(s.cap.state.Load()))
	stats := s.Stats()
	for _, sink := range subs {
		sink.OnFrame(state, stats)
	}
}

// Deinit tears the Session down: stops the peripheral, removes the VSYNC
// interrupt, stops the worker, frees the ring, and drives the power-down
// line high to power the sensor down. Idempotent after the first call
// (spec.md §4.6/§6).
func (s *Session) Deinit() error {
	if s.deinited {
		return nil
	}
	s.deinited = true

	if s.cap != nil {
		s.cap.periph.stop()
		s.cap.periph.setVsyncInterrupt(false, nil)
		s.cap.stopWorker()
	}
	if s.ring != nil {
		s.ring.free()
	}
	if s.cfg.Pins.PowerDown != machine.NoPin {
		s.cfg.Pins.PowerDown.High()
	}
	return nil
}
