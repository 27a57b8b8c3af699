package transcribe

import (
	"context"
	"errors"
)

// ErrNoSpeech is returned when the provider processed the audio but produced
// no usable transcript. Callers distinguish it from transport failures: it
// warrants "speak more clearly" guidance rather than "try again".
var ErrNoSpeech = errors.New("no speech detected")

// Result is a finished transcription.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Transcriber converts captured audio into text in the given source language.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (*Result, error)
}
