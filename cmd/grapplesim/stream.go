package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/milk9111/shipgrapple/ecs"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 25 * time.Second
	streamBuffer     = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if isDebugOrigin(origin) {
			return true
		}
		log.Printf("grapplesim: change stream rejected origin %q", origin)
		return false
	},
}

type changeMessage struct {
	Entity    string `json:"entity"`
	Component string `json:"component"`
	Frame     int64  `json:"frame"`
}

// changeHub fans replication changes out to websocket observers. Slow
// observers lose messages rather than stall the tick loop.
type changeHub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

func newChangeHub() *changeHub {
	return &changeHub{clients: make(map[chan []byte]struct{})}
}

func (h *changeHub) publish(changes []ecs.Change) {
	msgs := make([]changeMessage, 0, len(changes))
	for _, c := range changes {
		msgs = append(msgs, changeMessage{Entity: c.Entity.String(), Component: c.Component, Frame: c.Frame})
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		log.Printf("grapplesim: encode changes: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- data:
		default:
		}
	}
}

func (h *changeHub) subscribe() chan []byte {
	ch := make(chan []byte, streamBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *changeHub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

func (h *changeHub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("grapplesim: upgrade:", err)
		return
	}
	defer conn.Close()

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	conn.SetReadLimit(1 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	// Observers never send; reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case data := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
