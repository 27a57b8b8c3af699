package store

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/puentevoz/backend/internal/model/turn"
)

var ErrSessionRequired = errors.New("session id is required")

// Entry is the durable projection of a finished Turn.
type Entry struct {
	ID                 string       `json:"id"`
	SessionID          string       `json:"sessionId"`
	Speaker            turn.Speaker `json:"speaker"`
	OriginalLanguage   string       `json:"originalLanguage"`
	OriginalText       string       `json:"originalText"`
	TranslatedLanguage string       `json:"translatedLanguage"`
	TranslatedText     string       `json:"translatedText"`
	AudioBase64        string       `json:"audioBase64,omitempty"`
	Timestamp          time.Time    `json:"timestamp"`
}

// Log keeps the per-session conversation history in process memory.
// Entries are append-only per session and ordered by arrival. Durability is
// out of scope: the log exists for history queries during the process
// lifetime, and the pipeline treats append failures as best-effort.
type Log struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

// NewLog bootstraps an empty in-memory conversation log.
func NewLog() *Log {
	return &Log{entries: make(map[string][]Entry)}
}

// Append records a finished turn and returns the stored entry.
func (l *Log) Append(_ context.Context, t turn.Turn) (Entry, error) {
	if t.SessionID == "" {
		return Entry{}, ErrSessionRequired
	}

	entry := Entry{
		ID:                 uuid.NewString(),
		SessionID:          t.SessionID,
		Speaker:            t.Speaker,
		OriginalLanguage:   t.SourceLanguage,
		OriginalText:       t.OriginalText,
		TranslatedLanguage: t.TargetLanguage,
		TranslatedText:     t.TranslatedText,
		Timestamp:          t.CreatedAt,
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if len(t.Audio) > 0 {
		entry.AudioBase64 = base64.StdEncoding.EncodeToString(t.Audio)
	}

	l.mu.Lock()
	l.entries[t.SessionID] = append(l.entries[t.SessionID], entry)
	l.mu.Unlock()

	return entry, nil
}

// Query returns the entries for a session in ascending creation order.
// A non-nil since cursor filters to entries strictly newer than the cursor.
// Unknown sessions yield an empty result, not an error.
func (l *Log) Query(_ context.Context, sessionID string, since *time.Time) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stored := l.entries[sessionID]
	result := make([]Entry, 0, len(stored))
	for _, entry := range stored {
		if since != nil && !entry.Timestamp.After(*since) {
			continue
		}
		result = append(result, entry)
	}
	return result
}

// Clear removes all entries for a session. Idempotent.
func (l *Log) Clear(_ context.Context, sessionID string) {
	l.mu.Lock()
	delete(l.entries, sessionID)
	l.mu.Unlock()
}
