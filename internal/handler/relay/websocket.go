package relay

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	relaycore "github.com/puentevoz/backend/internal/relay"
)

const (
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
	pingInterval  = 54 * time.Second
)

// Handler owns the websocket endpoint of the realtime relay. Transport
// concerns (upgrade, deadlines, ping/pong, the single writer goroutine) live
// here; event semantics live in the hub.
type Handler struct {
	hub      *relaycore.Hub
	upgrader websocket.Upgrader
}

// New creates the websocket handler.
func New(hub *relaycore.Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the relay websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}

	client := h.hub.Register()
	log.Printf("[websocket] participant connected: %s", client.ID)

	go h.writeLoop(conn, client)

	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	// Inbound events are dispatched from this single read loop, so the hub
	// sees one connection's events strictly in the order they were sent.
	for {
		var ev relaycore.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[websocket] read error participant=%s: %v", client.ID, err)
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		h.hub.Dispatch(client, ev)
	}

	h.hub.Disconnect(client)
	conn.Close()
	log.Printf("[websocket] participant disconnected: %s", client.ID)
}

// writeLoop is the sole writer for the connection: it drains the client's
// FIFO queue and interleaves keepalive pings. It runs until the hub closes
// the queue or a write fails, then tears the connection down, which unblocks
// the read loop.
func (h *Handler) writeLoop(conn *websocket.Conn, client *relaycore.Client) {
	defer conn.Close()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-client.Events():
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("[websocket] write failed participant=%s: %v", client.ID, err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
