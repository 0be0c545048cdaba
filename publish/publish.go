// Package publish sends an MQTT PUBLISH message for every completed
// capture, over whatever net.Conn the board's network stack (Wi-Fi or
// SPI Ethernet) provides. It is new code; there is no teacher module for
// on-device MQTT, so it is grounded only on the chosen library's own
// conventions (soypat/natiu-mqtt), picked for its allocation-conscious
// client, a good match for the ISR-adjacent, allocation-averse style the
// rest of this repo follows.
package publish // import "github.com/ov2640cam/camcore/publish"

import (
	"context"
	"encoding/json"
	"net"
	"time"

	mqtt "github.com/soypat/natiu-mqtt"

	"github.com/ov2640cam/camcore"
)

// frameReadyEvent is the JSON body of every PUBLISH.
type frameReadyEvent struct {
	State          string `json:"state"`
	FramesAcquired int    `json:"frames_acquired"`
	FramesBad      int    `json:"frames_bad"`
	Timeouts       int    `json:"timeouts"`
	Restarts       int    `json:"restarts"`
}

// Publisher implements camcore.StatsSink by publishing frameReadyEvent
// to a fixed MQTT topic over an already-connected client.
type Publisher struct {
	client *mqtt.Client
	topic  string
	buf    []byte
}

// Dial connects to the MQTT broker at the other end of conn (already
// dialed by the board's network stack) and returns a Publisher that sends to
// topic. clientID identifies this board to the broker.
func Dial(ctx context.Context, conn net.Conn, clientID, topic string) (*Publisher, error) {
	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 1024)},
	})

	var varConn mqtt.Variables
	varConn.SetDefaultMQTT([]byte(clientID))
	varConn.CleanSession = true
	varConn.Keepalive = 30

	if err := client.Connect(ctx, conn, &varConn); err != nil {
		return nil, err
	}

	return &Publisher{client: client, topic: topic, buf: make([]byte, 256)}, nil
}

// OnFrame implements camcore.StatsSink.
func (p *Publisher) OnFrame(state string, stats camcore.Stats) {
	event := frameReadyEvent{
		State:          state,
		FramesAcquired: stats.FramesAcquired,
		FramesBad:      stats.FramesBad,
		Timeouts:       stats.Timeouts,
		Restarts:       stats.Restarts,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var pub mqtt.PublishFlags
	pub = pub.SetQoS(mqtt.QoS0)
	_ = p.client.PublishPayload(ctx, pub, p.topic, body)
}

// Close disconnects the underlying MQTT client.
func (p *Publisher) Close() error {
	return p.client.Disconnect(mqtt.DisconnectNormal)
}
