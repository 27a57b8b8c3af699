package relay

import (
	"testing"
	"time"

	"github.com/puentevoz/backend/internal/model/turn"
	"github.com/puentevoz/backend/internal/registry"
)

// nextEvent pops the next queued event for the client, failing when none is
// pending. Hub dispatch is synchronous, so queued events are visible as soon
// as the triggering call returns.
func nextEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case ev, ok := <-c.Events():
		if !ok {
			t.Fatal("client queue closed")
		}
		return ev
	default:
		t.Fatal("no event pending")
	}
	return Event{}
}

func expectNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case ev := <-c.Events():
		t.Fatalf("unexpected event queued: %+v", ev)
	default:
	}
}

func newTestHub() *Hub {
	return NewHub(registry.New())
}

// register drains the connected acknowledgement so tests start from a clean
// queue.
func register(t *testing.T, h *Hub) *Client {
	t.Helper()
	c := h.Register()
	ev := nextEvent(t, c)
	if ev.Type != EventConnected || ev.Participant != c.ID {
		t.Fatalf("expected connected ack, got %+v", ev)
	}
	return c
}

func TestJoinAcksAndNotifiesPeers(t *testing.T) {
	h := newTestHub()
	p1 := register(t, h)
	p2 := register(t, h)

	h.Dispatch(p1, Event{Type: EventJoinSession, SessionID: "AB12CD"})
	ack := nextEvent(t, p1)
	if ack.Type != EventSessionJoined || ack.SessionID != "AB12CD" || len(ack.Peers) != 0 {
		t.Fatalf("unexpected join ack: %+v", ack)
	}

	h.Dispatch(p2, Event{Type: EventJoinSession, SessionID: "AB12CD"})
	ack = nextEvent(t, p2)
	if ack.Type != EventSessionJoined || len(ack.Peers) != 1 || ack.Peers[0].ID != p1.ID {
		t.Fatalf("unexpected join ack for second participant: %+v", ack)
	}

	presence := nextEvent(t, p1)
	if presence.Type != EventPresenceJoined || presence.Participant != p2.ID {
		t.Fatalf("expected presence-joined for p2, got %+v", presence)
	}
	expectNoEvent(t, p2)
}

func TestLanguageCatchUpOnJoin(t *testing.T) {
	h := newTestHub()
	p1 := register(t, h)
	p2 := register(t, h)

	h.Dispatch(p1, Event{Type: EventJoinSession, SessionID: "AB12CD"})
	nextEvent(t, p1) // join ack
	h.Dispatch(p1, Event{Type: EventLanguageUpdate, SessionID: "AB12CD", Language: "es"})
	expectNoEvent(t, p1) // never echoed to the sender

	h.Dispatch(p2, Event{Type: EventJoinSession, SessionID: "AB12CD"})
	ack := nextEvent(t, p2)
	if ack.Type != EventSessionJoined {
		t.Fatalf("expected join ack, got %+v", ack)
	}

	catchUp := nextEvent(t, p2)
	if catchUp.Type != EventLanguageUpdate || catchUp.Language != "es" || catchUp.Participant != p1.ID {
		t.Fatalf("expected catch-up language es from p1, got %+v", catchUp)
	}

	nextEvent(t, p1) // presence-joined for p2

	h.Dispatch(p2, Event{Type: EventLanguageUpdate, SessionID: "AB12CD", Language: "en"})
	update := nextEvent(t, p1)
	if update.Type != EventLanguageUpdate || update.Language != "en" || update.Participant != p2.ID {
		t.Fatalf("expected language update en from p2, got %+v", update)
	}
	expectNoEvent(t, p2)
}

func TestLanguageUpdateFromNonMemberIsDropped(t *testing.T) {
	h := newTestHub()
	p1 := register(t, h)
	p2 := register(t, h)

	h.Dispatch(p1, Event{Type: EventJoinSession, SessionID: "AB12CD"})
	nextEvent(t, p1)

	h.Dispatch(p2, Event{Type: EventLanguageUpdate, SessionID: "AB12CD", Language: "fr"})
	expectNoEvent(t, p1)
	expectNoEvent(t, p2)
}

func TestSendMessageReachesOnlyPeers(t *testing.T) {
	h := newTestHub()
	p1 := register(t, h)
	p2 := register(t, h)

	h.Dispatch(p1, Event{Type: EventJoinSession, SessionID: "AB12CD"})
	nextEvent(t, p1)
	h.Dispatch(p2, Event{Type: EventJoinSession, SessionID: "AB12CD"})
	nextEvent(t, p2)
	nextEvent(t, p1) // presence-joined

	h.Dispatch(p1, Event{
		Type:           EventSendMessage,
		SessionID:      "AB12CD",
		Speaker:        "requester",
		OriginalText:   "hola",
		TranslatedText: "hello",
		Audio:          "YmFzZTY0",
	})

	received := nextEvent(t, p2)
	if received.Type != EventMessageReceived {
		t.Fatalf("expected message-received, got %+v", received)
	}
	if received.OriginalText != "hola" || received.TranslatedText != "hello" || received.Audio != "YmFzZTY0" {
		t.Fatalf("payload not relayed intact: %+v", received)
	}
	if received.Participant != p1.ID || received.Speaker != "requester" {
		t.Fatalf("sender identity not carried: %+v", received)
	}
	expectNoEvent(t, p1)
}

func TestSendMessageWithoutSessionIsRejected(t *testing.T) {
	h := newTestHub()
	p1 := register(t, h)

	h.Dispatch(p1, Event{Type: EventSendMessage, OriginalText: "hola"})
	ev := nextEvent(t, p1)
	if ev.Type != EventError {
		t.Fatalf("expected error event, got %+v", ev)
	}
}

func TestAudioStreamForwardedToPeers(t *testing.T) {
	h := newTestHub()
	p1 := register(t, h)
	p2 := register(t, h)

	h.Dispatch(p1, Event{Type: EventJoinSession, SessionID: "AB12CD"})
	nextEvent(t, p1)
	h.Dispatch(p2, Event{Type: EventJoinSession, SessionID: "AB12CD"})
	nextEvent(t, p2)
	nextEvent(t, p1)

	h.Dispatch(p1, Event{Type: EventAudioStream, Audio: "Y2h1bms="})
	chunk := nextEvent(t, p2)
	if chunk.Type != EventAudioStream || chunk.Audio != "Y2h1bms=" || chunk.Participant != p1.ID {
		t.Fatalf("unexpected audio-stream relay: %+v", chunk)
	}
	expectNoEvent(t, p1)
}

func TestDisconnectNotifiesRemainingAndDestroysSession(t *testing.T) {
	h := newTestHub()
	p1 := register(t, h)
	p2 := register(t, h)

	h.Dispatch(p1, Event{Type: EventJoinSession, SessionID: "AB12CD"})
	nextEvent(t, p1)
	h.Dispatch(p2, Event{Type: EventJoinSession, SessionID: "AB12CD"})
	nextEvent(t, p2)
	nextEvent(t, p1)

	h.Disconnect(p1)
	left := nextEvent(t, p2)
	if left.Type != EventPresenceLeft || left.Participant != p1.ID || left.SessionID != "AB12CD" {
		t.Fatalf("expected presence-left for p1, got %+v", left)
	}

	h.Disconnect(p2)
	if _, ok := <-p2.Events(); ok {
		t.Fatal("expected closed queue after disconnect")
	}

	if t2 := h.BroadcastTurn("AB12CD", "", &turn.Turn{SessionID: "AB12CD", CreatedAt: time.Now()}); t2 != 0 {
		t.Fatalf("expected destroyed session to have no recipients, got %d", t2)
	}
}

func TestSwitchingSessionNotifiesOldPeers(t *testing.T) {
	h := newTestHub()
	p1 := register(t, h)
	p2 := register(t, h)

	h.Dispatch(p1, Event{Type: EventJoinSession, SessionID: "first"})
	nextEvent(t, p1)
	h.Dispatch(p2, Event{Type: EventJoinSession, SessionID: "first"})
	nextEvent(t, p2)
	nextEvent(t, p1)

	h.Dispatch(p2, Event{Type: EventJoinSession, SessionID: "second"})
	left := nextEvent(t, p1)
	if left.Type != EventPresenceLeft || left.Participant != p2.ID || left.SessionID != "first" {
		t.Fatalf("expected presence-left in the old session, got %+v", left)
	}
	ack := nextEvent(t, p2)
	if ack.Type != EventSessionJoined || ack.SessionID != "second" {
		t.Fatalf("unexpected join ack: %+v", ack)
	}
}

func TestBroadcastTurnExcludesSubmitter(t *testing.T) {
	h := newTestHub()
	p1 := register(t, h)
	p2 := register(t, h)

	h.Dispatch(p1, Event{Type: EventJoinSession, SessionID: "AB12CD"})
	nextEvent(t, p1)
	h.Dispatch(p2, Event{Type: EventJoinSession, SessionID: "AB12CD"})
	nextEvent(t, p2)
	nextEvent(t, p1)

	result := &turn.Turn{
		SessionID:      "AB12CD",
		Speaker:        turn.SpeakerRequester,
		OriginalText:   "hola",
		TranslatedText: "hello",
		Audio:          []byte("wav"),
		CreatedAt:      time.Now().UTC(),
	}

	recipients := h.BroadcastTurn("AB12CD", p1.ID, result)
	if recipients != 1 {
		t.Fatalf("expected exactly one recipient, got %d", recipients)
	}

	received := nextEvent(t, p2)
	if received.Type != EventMessageReceived || received.TranslatedText != "hello" {
		t.Fatalf("unexpected broadcast payload: %+v", received)
	}
	if received.Audio == "" {
		t.Fatal("expected base64 audio on the broadcast")
	}
	expectNoEvent(t, p1)
}
