// cmd/esp32cam is an example firmware wiring a camcore.Session to a
// Wi-Fi coprocessor (for the MQTT publish path) and a BMP180
// environmental sensor, adapted from this repo's examples/espat and
// examples/bmp180 sample programs.
package main

import (
	"context"
	"machine"
	"time"

	"tinygo.org/x/drivers/bmp180"
	"tinygo.org/x/drivers/espat"
	espatnet "tinygo.org/x/drivers/espat/net"

	"github.com/ov2640cam/camcore"
	"github.com/ov2640cam/camcore/publish"
	"github.com/ov2640cam/camcore/statusled"
)

const ssid = "YOURSSID"
const pass = "YOURPASS"
const brokerIP = "0.0.0.0"

var (
	uart = machine.UART1
	tx   = machine.PA22
	rx   = machine.PA23

	adaptor *espat.Device
)

func main() {
	cfg := camcore.Config{
		Pins: camcore.Pins{
			D0: machine.GPIO5, D1: machine.GPIO18, D2: machine.GPIO19, D3: machine.GPIO21,
			D4: machine.GPIO36, D5: machine.GPIO39, D6: machine.GPIO34, D7: machine.GPIO35,
			VSYNC: machine.GPIO25, HREF: machine.GPIO23, PCLK: machine.GPIO22,
			XCLK: machine.GPIO0,
			SDA:  machine.GPIO26, SCL: machine.GPIO27,
			PowerDown: machine.NoPin,
			Reset:     machine.NoPin,
		},
		XCLKFreqHz: 20_000_000,
		Format:     camcore.PixelFormatJPEG,
		Size:       camcore.FrameSizeSVGA,
		Quality:    12,
		Debug:      true,
	}

	sensor := &stubSensor{}
	session, err := camcore.Init(cfg, sensor)
	if err != nil {
		println("camcore init failed:", err.Error())
		return
	}
	defer session.Deinit()

	led := statusled.New(machine.GPIO33, bitbangWriteByte)
	session.Subscribe(led)

	if pub := dialPublisher(); pub != nil {
		session.Subscribe(pub)
		defer pub.Close()
	}

	machine.I2C1.Configure(machine.I2CConfig{})
	env := bmp180.New(machine.I2C1)
	env.Configure()

	for {
		fb, err := session.Acquire()
		if err != nil {
			println("acquire error:", err.Error())
			time.Sleep(time.Second)
			continue
		}

		temp, _ := env.Temperature()
		println("frame", fb.Length(), "bytes, ambient", temp, "c")
		fb.Release()

		time.Sleep(2 * time.Second)
	}
}

func dialPublisher() *publish.Publisher {
	adaptor = espat.New(uart)
	uart.Configure(machine.UARTConfig{TX: tx, RX: rx})
	adaptor.Configure()

	if !adaptor.Connected() {
		println("wifi coprocessor not responding, publish disabled")
		return nil
	}
	adaptor.Echo(false)
	adaptor.SetWifiMode(espat.WifiModeClient)
	adaptor.ConnectToAP(ssid, pass, 10)

	ip := espatnet.ParseIP(brokerIP)
	raddr := &espatnet.TCPAddr{IP: ip, Port: 1883}
	laddr := &espatnet.TCPAddr{Port: 1883}
	conn, err := espatnet.DialTCP("tcp", laddr, raddr)
	if err != nil {
		println("mqtt dial failed:", err.Error())
		return nil
	}

	pub, err := publish.Dial(context.Background(), conn, "esp32cam-1", "camcore/frame-ready")
	if err != nil {
		println("mqtt connect failed:", err.Error())
		return nil
	}
	return pub
}

// bitbangWriteByte is a placeholder single-wire byte writer; a real
// board wires in the arch-specific WS2812 bit timing here.
func bitbangWriteByte(pin machine.Pin, b byte) bool {
	return true
}

// stubSensor satisfies camcore.Sensor with no-op setters. The OV2640
// register driver is out of scope (spec.md §1); a real board replaces
// this with a concrete two-wire sensor driver.
type stubSensor struct{}

func (*stubSensor) Reset() error                     { return nil }
func (*stubSensor) SetFrameSize(camcore.FrameSize) error { return nil }
func (*stubSensor) SetPixFormat(camcore.PixelFormat) error { return nil }
func (*stubSensor) SetQuality(int) error             { return nil }
func (*stubSensor) SetGainCeiling(int) error         { return nil }
func (*stubSensor) SetBPC(bool) error                { return nil }
func (*stubSensor) SetWPC(bool) error                { return nil }
func (*stubSensor) SetLenC(bool) error                { return nil }
func (*stubSensor) SetContrast(int) error            { return nil }
func (*stubSensor) SetBrightness(int) error          { return nil }
func (*stubSensor) SetSaturation(int) error          { return nil }
func (*stubSensor) SetAELevel(int) error             { return nil }
func (*stubSensor) SetGainCtrl(bool) error           { return nil }
func (*stubSensor) SetAGCGain(int) error             { return nil }
func (*stubSensor) SetExposureCtrl(bool) error       { return nil }
func (*stubSensor) SetAEC2(bool) error                { return nil }
func (*stubSensor) SetAECValue(int) error            { return nil }
func (*stubSensor) SetHMirror(bool) error            { return nil }
func (*stubSensor) SetVFlip(bool) error               { return nil }
func (*stubSensor) SetDCW(bool) error                 { return nil }
func (*stubSensor) SetWhiteBalance(bool) error        { return nil }
func (*stubSensor) SetAWBGain(bool) error             { return nil }
func (*stubSensor) SetRawGMA(bool) error              { return nil }
func (*stubSensor) InitStatus() error                 { return nil }
