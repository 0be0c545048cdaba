// Command frame-monitor is a host-side companion tool: it subscribes to
// the MQTT topic a board's publish.Publisher writes frame-ready events
// to, and relays each event as a JSON WebSocket message to any number of
// connected dashboard clients.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
)

var (
	brokerURL = flag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
	topic     = flag.String("topic", "camcore/frame-ready", "MQTT topic to subscribe to")
	addr      = flag.String("addr", ":8089", "HTTP listen address for the dashboard relay")
)

type frameReadyEvent struct {
	State          string `json:"state"`
	FramesAcquired int    `json:"frames_acquired"`
	FramesBad      int    `json:"frames_bad"`
	Timeouts       int    `json:"timeouts"`
	Restarts       int    `json:"restarts"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// hub fans out every MQTT message to all currently-connected dashboard
// WebSocket clients.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *hub) add(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	c.Close()
}

func (h *hub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(h.clients, c)
			c.Close()
		}
	}
}

func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade failed:", err)
		return
	}
	h.add(conn)
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func main() {
	flag.Parse()

	h := newHub()

	opts := mqtt.NewClientOptions().AddBroker(*brokerURL).SetClientID("frame-monitor")
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.Subscribe(*topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var event frameReadyEvent
			if err := json.Unmarshal(msg.Payload(), &event); err != nil {
				log.Println("bad frame-ready payload:", err)
				return
			}
			out, err := json.Marshal(event)
			if err != nil {
				return
			}
			h.broadcast(out)
		})
		token.Wait()
		if err := token.Error(); err != nil {
			log.Println("subscribe failed:", err)
		}
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal("mqtt connect failed:", token.Error())
	}
	defer client.Disconnect(250)

	http.HandleFunc("/ws", h.serveWS)
	log.Println("frame-monitor listening on", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
