package relay

import (
	"encoding/base64"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/puentevoz/backend/internal/model/turn"
	"github.com/puentevoz/backend/internal/registry"
)

// sendBuffer bounds the per-client outbound queue. A single consumer drains
// the queue in order, which is what gives the per-connection FIFO delivery
// guarantee.
const sendBuffer = 64

// Client is one registered realtime participant. Events queued on the client
// are consumed by exactly one transport writer via Events.
type Client struct {
	ID string

	send chan Event
	once sync.Once
}

// Events exposes the outbound queue for the transport write loop. The channel
// is closed when the client is disconnected from the hub.
func (c *Client) Events() <-chan Event {
	return c.send
}

func (c *Client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub routes realtime events between the participants of a session. All
// session membership and language state lives in the registry; the hub only
// owns the client connections and the fan-out. Broadcasts never include the
// originating client.
type Hub struct {
	registry *registry.Registry

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a hub backed by the given session registry.
func NewHub(reg *registry.Registry) *Hub {
	return &Hub{
		registry: reg,
		clients:  make(map[string]*Client),
	}
}

// Register creates a client with a fresh participant identity and queues the
// connected acknowledgement carrying that identity.
func (h *Hub) Register() *Client {
	c := &Client{
		ID:   uuid.NewString(),
		send: make(chan Event, sendBuffer),
	}

	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	h.deliver(c, Event{Type: EventConnected, Participant: c.ID, Timestamp: now()})
	return c
}

// Disconnect removes the client, detaches it from its session and notifies
// the remaining members. Safe to call more than once.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	_, registered := h.clients[c.ID]
	delete(h.clients, c.ID)
	h.mu.Unlock()

	if registered {
		if sessionID, remaining, ok := h.registry.Leave(c.ID); ok && len(remaining) > 0 {
			h.broadcast(sessionID, c.ID, Event{
				Type:        EventPresenceLeft,
				SessionID:   sessionID,
				Participant: c.ID,
				Timestamp:   now(),
			})
		}
	}
	c.close()
}

// Dispatch routes one inbound event from a client to its handler.
func (h *Hub) Dispatch(c *Client, ev Event) {
	switch ev.Type {
	case EventJoinSession:
		h.handleJoin(c, ev.SessionID)
	case EventLanguageUpdate:
		h.handleLanguageUpdate(c, ev)
	case EventSendMessage:
		h.handleSendMessage(c, ev)
	case EventAudioStream:
		h.handleAudioStream(c, ev)
	default:
		h.deliver(c, errorEvent("unsupported event type: "+string(ev.Type)))
	}
}

// handleJoin attaches the client to the session and performs catch-up: the
// joiner receives the session acknowledgement followed by one language-update
// per peer that already announced a language, while existing members are told
// about the new presence.
func (h *Hub) handleJoin(c *Client, sessionID string) {
	if sessionID == "" {
		h.deliver(c, errorEvent("sessionId is required"))
		return
	}

	view, previous := h.registry.Join(sessionID, c.ID)
	if previous != "" {
		h.broadcast(previous, c.ID, Event{
			Type:        EventPresenceLeft,
			SessionID:   previous,
			Participant: c.ID,
			Timestamp:   now(),
		})
	}

	log.Printf("[relay] participant=%s joined session=%s peers=%d", c.ID, sessionID, len(view.Peers))

	h.deliver(c, Event{
		Type:        EventSessionJoined,
		SessionID:   sessionID,
		Participant: c.ID,
		Peers:       view.Peers,
		Timestamp:   now(),
	})

	for _, peer := range view.Peers {
		if peer.Language == "" {
			continue
		}
		h.deliver(c, Event{
			Type:        EventLanguageUpdate,
			SessionID:   sessionID,
			Participant: peer.ID,
			Language:    peer.Language,
			Timestamp:   now(),
		})
	}

	h.broadcast(sessionID, c.ID, Event{
		Type:        EventPresenceJoined,
		SessionID:   sessionID,
		Participant: c.ID,
		Timestamp:   now(),
	})
}

// handleLanguageUpdate records the announced language and tells the other
// members. Updates from non-members are dropped without a reply.
func (h *Hub) handleLanguageUpdate(c *Client, ev Event) {
	if ev.SessionID == "" || ev.Language == "" {
		h.deliver(c, errorEvent("sessionId and language are required"))
		return
	}

	if !h.registry.SetLanguage(ev.SessionID, c.ID, ev.Language) {
		log.Printf("[relay] dropping language update from non-member participant=%s session=%s", c.ID, ev.SessionID)
		return
	}

	h.broadcast(ev.SessionID, c.ID, Event{
		Type:        EventLanguageUpdate,
		SessionID:   ev.SessionID,
		Participant: c.ID,
		Language:    ev.Language,
		Speaker:     ev.Speaker,
		Timestamp:   now(),
	})
}

// handleSendMessage fans a finished turn out to the other session members.
func (h *Hub) handleSendMessage(c *Client, ev Event) {
	sessionID, ok := h.registry.SessionOf(c.ID)
	if !ok || (ev.SessionID != "" && ev.SessionID != sessionID) {
		h.deliver(c, errorEvent("not a member of the target session"))
		return
	}

	recipients := h.broadcast(sessionID, c.ID, Event{
		Type:           EventMessageReceived,
		SessionID:      sessionID,
		Participant:    c.ID,
		Speaker:        ev.Speaker,
		OriginalText:   ev.OriginalText,
		TranslatedText: ev.TranslatedText,
		Audio:          ev.Audio,
		Timestamp:      now(),
	})
	log.Printf("[relay] turn from participant=%s session=%s recipients=%d", c.ID, sessionID, recipients)
}

// handleAudioStream forwards raw captured audio chunks to the other members
// so they can hear the speaker while the pipeline is still running.
func (h *Hub) handleAudioStream(c *Client, ev Event) {
	sessionID, ok := h.registry.SessionOf(c.ID)
	if !ok {
		return
	}

	h.broadcast(sessionID, c.ID, Event{
		Type:        EventAudioStream,
		SessionID:   sessionID,
		Participant: c.ID,
		Audio:       ev.Audio,
		Timestamp:   now(),
	})
}

// BroadcastTurn pushes a pipeline-produced turn to the members of the
// session, excluding the submitting participant when its connection id is
// known. It returns the number of recipients.
func (h *Hub) BroadcastTurn(sessionID, exclude string, t *turn.Turn) int {
	ev := Event{
		Type:           EventMessageReceived,
		SessionID:      sessionID,
		Speaker:        string(t.Speaker),
		OriginalText:   t.OriginalText,
		TranslatedText: t.TranslatedText,
		Timestamp:      t.CreatedAt.UnixMilli(),
	}
	if len(t.Audio) > 0 {
		ev.Audio = base64.StdEncoding.EncodeToString(t.Audio)
	}
	return h.broadcast(sessionID, exclude, ev)
}

// broadcast delivers the event to every session member except the excluded
// participant, returning the recipient count.
func (h *Hub) broadcast(sessionID, exclude string, ev Event) int {
	members := h.registry.MembersOf(sessionID)
	if len(members) == 0 {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	recipients := 0
	for _, member := range members {
		if member.ID == exclude {
			continue
		}
		if client, ok := h.clients[member.ID]; ok {
			h.deliver(client, ev)
			recipients++
		}
	}
	return recipients
}

// deliver queues the event on the client without blocking the caller. A full
// queue means the consumer stopped draining; the event is dropped and logged
// rather than stalling every other member of the session.
func (h *Hub) deliver(c *Client, ev Event) {
	select {
	case c.send <- ev:
	default:
		log.Printf("[relay] dropping event type=%s for slow participant=%s", ev.Type, c.ID)
	}
}

func errorEvent(message string) Event {
	return Event{Type: EventError, Message: message, Timestamp: now()}
}
