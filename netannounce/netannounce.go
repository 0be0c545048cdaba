// Package netannounce broadcasts a link-local "frame ready" Ethernet
// frame on every completed capture, for boards that carry an SPI
// Ethernet MAC instead of native Wi-Fi. It adapts the Ethernet framing
// code and ARP-style field layout from this repo's enc28j60/frame
// packages to a small fixed-format announce frame instead of address
// resolution.
package netannounce // import "github.com/ov2640cam/camcore/netannounce"

import (
	"encoding/binary"

	"tinygo.org/x/drivers/net"

	"github.com/ov2640cam/camcore"
)

// minPayload is the minimum payload size for an Ethernet II frame
// without 802.1Q tags, kept from the adapted ethernet.go.
const minPayload = 46

// EtherTypeFrameReady is a locally-administered EtherType (IEEE 802
// experimental range) carrying the announce payload below.
const EtherTypeFrameReady = 0x88B5

// Broadcast is the all-ones hardware address, unchanged from enc28j60.
var Broadcast = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Transmitter is the one primitive netannounce needs from the board's
// SPI Ethernet MAC driver: send one raw frame. This narrows the
// dependency from the full enc28j60 driver down to what an announce
// actually needs.
type Transmitter interface {
	SendFrame(frame []byte) error
}

// etherFrame mirrors enc28j60.EtherFrame's field-to-wire layout.
type etherFrame struct {
	destination net.HardwareAddr
	source      net.HardwareAddr
	etherType   uint16
	payload     []byte
}

func (f *etherFrame) length() int {
	pl := len(f.payload)
	if pl < minPayload {
		pl = minPayload
	}
	return 6 + 6 + 2 + pl
}

func (f *etherFrame) marshal() []byte {
	b := make([]byte, f.length())
	copy(b[0:6], f.destination)
	copy(b[6:12], f.source)
	binary.BigEndian.PutUint16(b[12:14], f.etherType)
	copy(b[14:], f.payload)
	return b
}

// Announcer sends one broadcast frame per completed Acquire, carrying
// the same summary netannounce's display/publish siblings show: capture
// state and the Stats counters. It implements camcore.StatsSink.
type Announcer struct {
	tx     Transmitter
	source net.HardwareAddr
}

// New returns an Announcer that sends frames sourced from mac (this
// board's own hardware address) over tx.
func New(tx Transmitter, mac net.HardwareAddr) *Announcer {
	return &Announcer{tx: tx, source: mac}
}

// OnFrame implements camcore.StatsSink. Payload layout (ARP-style fixed
// fields rather than a free-form encoding, matching the terse
// field-by-field style of frame.ARP's MarshalFrame):
//
//	[0:1]   state tag (0=idle,1=waiting_vsync,2=capturing,3=draining,4=faulted)
//	[1:5]   frames acquired, big-endian uint32
//	[5:9]   frames bad, big-endian uint32
//	[9:13]  timeouts, big-endian uint32
//	[13:17] restarts, big-endian uint32
func (a *Announcer) OnFrame(state string, stats camcore.Stats) {
	payload := make([]byte, 17)
	payload[0] = stateTag(state)
	binary.BigEndian.PutUint32(payload[1:5], uint32(stats.FramesAcquired))
	binary.BigEndian.PutUint32(payload[5:9], uint32(stats.FramesBad))
	binary.BigEndian.PutUint32(payload[9:13], uint32(stats.Timeouts))
	binary.BigEndian.PutUint32(payload[13:17], uint32(stats.Restarts))

	frame := &etherFrame{
		destination: Broadcast,
		source:      a.source,
		etherType:   EtherTypeFrameReady,
		payload:     payload,
	}
	_ = a.tx.SendFrame(frame.marshal())
}

func stateTag(state string) byte {
	switch state {
	case "idle":
		return 0
	case "waiting_vsync":
		return 1
	case "capturing":
		return 2
	case "draining":
		return 3
	case "faulted":
		return 4
	default:
		return 0xFF
	}
}
