package relay

import (
	"time"

	"github.com/puentevoz/backend/internal/registry"
)

// EventType discriminates the realtime event envelope.
type EventType string

const (
	// Inbound (participant -> relay).
	EventJoinSession    EventType = "join-session"
	EventLanguageUpdate EventType = "language-update"
	EventSendMessage    EventType = "send-message"
	EventAudioStream    EventType = "audio-stream"

	// Outbound (relay -> participant).
	EventConnected       EventType = "connected"
	EventSessionJoined   EventType = "session-joined"
	EventMessageReceived EventType = "message-received"
	EventPresenceJoined  EventType = "presence-joined"
	EventPresenceLeft    EventType = "presence-left"
	EventError           EventType = "error"
)

// Event is the wire envelope for every realtime message in both directions.
// Only the fields relevant to the event type are populated.
type Event struct {
	Type           EventType         `json:"type"`
	SessionID      string            `json:"sessionId,omitempty"`
	Participant    string            `json:"participant,omitempty"`
	Language       string            `json:"language,omitempty"`
	Speaker        string            `json:"speaker,omitempty"`
	OriginalText   string            `json:"originalText,omitempty"`
	TranslatedText string            `json:"translatedText,omitempty"`
	Audio          string            `json:"audio,omitempty"`
	Peers          []registry.Member `json:"peers,omitempty"`
	Message        string            `json:"message,omitempty"`
	Timestamp      int64             `json:"timestamp,omitempty"`
}

func now() int64 {
	return time.Now().UnixMilli()
}
