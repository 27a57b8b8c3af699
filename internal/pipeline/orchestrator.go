package pipeline

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/puentevoz/backend/internal/model/turn"
	"github.com/puentevoz/backend/internal/provider/synthesize"
	"github.com/puentevoz/backend/internal/provider/transcribe"
	"github.com/puentevoz/backend/internal/provider/translate"
	"github.com/puentevoz/backend/internal/store"
)

const (
	// DefaultMinAudioBytes rejects obviously silent or truncated captures
	// before spending a provider call. Roughly one second of compressed audio.
	DefaultMinAudioBytes = 1000

	// DefaultStageTimeout bounds each provider call so a hung provider cannot
	// occupy the turn indefinitely.
	DefaultStageTimeout = 30 * time.Second

	// minTranscriptChars is the shortest trimmed transcript accepted as
	// actual speech.
	minTranscriptChars = 2
)

// TurnRequest is one spoken utterance submitted for processing.
type TurnRequest struct {
	SessionID      string
	Speaker        turn.Speaker
	SourceLanguage string
	TargetLanguage string
	Audio          []byte
}

// TurnLog is the conversation log sink the orchestrator appends to. Append
// failures never fail the turn.
type TurnLog interface {
	Append(ctx context.Context, t turn.Turn) (store.Entry, error)
}

// Options tune the orchestrator. Zero values fall back to the defaults.
type Options struct {
	StageTimeout  time.Duration
	MinAudioBytes int
}

// Orchestrator runs the three pipeline stages for one turn: transcription,
// translation and synthesis, strictly in order, each bounded by the stage
// timeout. No stage is retried, and no partial result ever becomes a Turn.
type Orchestrator struct {
	transcriber   transcribe.Transcriber
	translator    translate.Translator
	synthesizer   synthesize.Synthesizer
	turnLog       TurnLog
	stageTimeout  time.Duration
	minAudioBytes int
}

// New wires the orchestrator to its three capability providers and the
// conversation log.
func New(transcriber transcribe.Transcriber, translator translate.Translator, synthesizer synthesize.Synthesizer, turnLog TurnLog, opts Options) *Orchestrator {
	stageTimeout := opts.StageTimeout
	if stageTimeout <= 0 {
		stageTimeout = DefaultStageTimeout
	}
	minAudioBytes := opts.MinAudioBytes
	if minAudioBytes <= 0 {
		minAudioBytes = DefaultMinAudioBytes
	}

	return &Orchestrator{
		transcriber:   transcriber,
		translator:    translator,
		synthesizer:   synthesizer,
		turnLog:       turnLog,
		stageTimeout:  stageTimeout,
		minAudioBytes: minAudioBytes,
	}
}

// Process runs one turn through the pipeline. On success the returned Turn is
// complete (text, translation and audio) and has been appended to the
// conversation log on a best-effort basis. On failure the error is a
// *Failure describing which stage gave up and what to tell the speaker.
func (o *Orchestrator) Process(ctx context.Context, req *TurnRequest) (*turn.Turn, error) {
	if failure := o.validate(req); failure != nil {
		return nil, failure
	}

	log.Printf("[pipeline] processing turn session=%s speaker=%s %s -> %s bytes=%d",
		req.SessionID, req.Speaker, req.SourceLanguage, req.TargetLanguage, len(req.Audio))

	originalText, failure := o.transcribeStage(ctx, req)
	if failure != nil {
		return nil, failure
	}

	translatedText, failure := o.translateStage(ctx, req, originalText)
	if failure != nil {
		return nil, failure
	}

	audio, failure := o.synthesizeStage(ctx, req, translatedText)
	if failure != nil {
		return nil, failure
	}

	result := &turn.Turn{
		SessionID:      req.SessionID,
		Speaker:        req.Speaker,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
		OriginalText:   originalText,
		TranslatedText: translatedText,
		Audio:          audio,
		CreatedAt:      time.Now().UTC(),
	}

	// Best-effort persistence: the pipeline's job is communication, so a log
	// failure is reported to operators and otherwise ignored.
	if o.turnLog != nil {
		if _, err := o.turnLog.Append(ctx, *result); err != nil {
			log.Printf("[pipeline] conversation log append failed session=%s: %v", req.SessionID, err)
		}
	}

	return result, nil
}

// validate rejects malformed requests before any provider call is made.
func (o *Orchestrator) validate(req *TurnRequest) *Failure {
	if req == nil {
		return invalidInput("request is required")
	}
	if req.SessionID == "" {
		return invalidInput("sessionId is required")
	}
	if !req.Speaker.Valid() {
		return invalidInput("speaker must be requester or responder")
	}
	if req.SourceLanguage == "" || req.TargetLanguage == "" {
		return invalidInput("sourceLanguage and targetLanguage are required")
	}
	if len(req.Audio) == 0 {
		return invalidInput("audio payload is required")
	}
	if len(req.Audio) < o.minAudioBytes {
		return audioTooShort()
	}
	return nil
}

func (o *Orchestrator) transcribeStage(ctx context.Context, req *TurnRequest) (string, *Failure) {
	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()

	result, err := o.transcriber.Transcribe(stageCtx, req.Audio, req.SourceLanguage)
	if err != nil {
		if errors.Is(err, transcribe.ErrNoSpeech) {
			return "", noSpeech(msgNoSpeech, err)
		}
		return "", transcriptionFailed(err)
	}

	text := strings.TrimSpace(result.Text)
	if len([]rune(text)) < minTranscriptChars {
		return "", noSpeech(msgUnclearSpeech, nil)
	}
	return text, nil
}

// translateStage skips the provider entirely when both sides speak the same
// language; the transcript passes through verbatim.
func (o *Orchestrator) translateStage(ctx context.Context, req *TurnRequest, text string) (string, *Failure) {
	if req.SourceLanguage == req.TargetLanguage {
		return text, nil
	}

	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()

	result, err := o.translator.Translate(stageCtx, text, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		return "", translationFailed(err)
	}
	return result.Text, nil
}

func (o *Orchestrator) synthesizeStage(ctx context.Context, req *TurnRequest, text string) ([]byte, *Failure) {
	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()

	result, err := o.synthesizer.Synthesize(stageCtx, text, req.TargetLanguage)
	if err != nil {
		return nil, synthesisFailed(err)
	}
	return result.Audio, nil
}
