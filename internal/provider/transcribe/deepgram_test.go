package transcribe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMapLanguage(t *testing.T) {
	if got := MapLanguage("es"); got != "es" {
		t.Fatalf("expected es, got %s", got)
	}
	if got := MapLanguage("en"); got != "en-US" {
		t.Fatalf("expected en-US, got %s", got)
	}
	if got := MapLanguage("zh"); got != "zh-CN" {
		t.Fatalf("expected zh-CN, got %s", got)
	}
	if got := MapLanguage("xx"); got != "en-US" {
		t.Fatalf("expected default en-US for unmapped tag, got %s", got)
	}
}

func TestTranscribeParsesBestAlternative(t *testing.T) {
	var gotAuth, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":"hola mundo","confidence":0.97}]}]}}`))
	}))
	defer server.Close()

	client := NewDeepgramClient(Config{APIKey: "test-key", BaseURL: server.URL})
	result, err := client.Transcribe(context.Background(), []byte("audio-bytes"), "es")
	if err != nil {
		t.Fatalf("Transcribe err: %v", err)
	}

	if result.Text != "hola mundo" {
		t.Fatalf("unexpected transcript: %q", result.Text)
	}
	if result.Confidence != 0.97 {
		t.Fatalf("unexpected confidence: %f", result.Confidence)
	}
	if gotAuth != "Token test-key" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotQuery != "language=es&model=nova-2" {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
}

func TestTranscribeEmptyTranscriptIsNoSpeech(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":"","confidence":0}]}]}}`))
	}))
	defer server.Close()

	client := NewDeepgramClient(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := client.Transcribe(context.Background(), []byte("audio-bytes"), "es")
	if !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech, got %v", err)
	}
}

func TestTranscribeProviderErrorIsNotNoSpeech(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewDeepgramClient(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := client.Transcribe(context.Background(), []byte("audio-bytes"), "es")
	if err == nil {
		t.Fatal("expected error for provider failure")
	}
	if errors.Is(err, ErrNoSpeech) {
		t.Fatal("provider failure must not map to ErrNoSpeech")
	}
}
