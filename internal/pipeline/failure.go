package pipeline

import "fmt"

// FailureKind classifies why a turn was abandoned. Input-quality kinds carry
// actionable guidance for the speaker; provider kinds warrant a plain retry.
type FailureKind string

const (
	FailureInvalidInput  FailureKind = "invalid_input"
	FailureAudioTooShort FailureKind = "audio_too_short"
	FailureNoSpeech      FailureKind = "no_speech_detected"
	FailureTranscription FailureKind = "transcription_failed"
	FailureTranslation   FailureKind = "translation_failed"
	FailureSynthesis     FailureKind = "synthesis_failed"
)

// InputQuality reports whether the failure is something the speaker can fix
// by speaking differently, as opposed to a provider-side problem.
func (k FailureKind) InputQuality() bool {
	switch k {
	case FailureInvalidInput, FailureAudioTooShort, FailureNoSpeech:
		return true
	}
	return false
}

// User-facing guidance per failure case. These are deliberately distinct:
// a too-short capture, an unclear capture and a provider outage each call
// for a different action from the speaker.
const (
	msgAudioTooShort   = "Audio is too short. Hold the button and speak for at least one second."
	msgNoSpeech        = "No clear speech was detected. Try speaking closer to the microphone."
	msgUnclearSpeech   = "The audio could not be understood. Please speak slowly and clearly."
	msgProviderFailure = "Something went wrong while processing the turn. Please try the same request again."
)

// Failure is the typed outcome of an abandoned turn. Message is safe to show
// to the speaker; Err carries the provider detail for operator logs only.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Kind, f.Err)
	}
	return string(f.Kind)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func invalidInput(message string) *Failure {
	return &Failure{Kind: FailureInvalidInput, Message: message}
}

func audioTooShort() *Failure {
	return &Failure{Kind: FailureAudioTooShort, Message: msgAudioTooShort}
}

func noSpeech(message string, err error) *Failure {
	return &Failure{Kind: FailureNoSpeech, Message: message, Err: err}
}

func transcriptionFailed(err error) *Failure {
	return &Failure{Kind: FailureTranscription, Message: msgProviderFailure, Err: err}
}

func translationFailed(err error) *Failure {
	return &Failure{Kind: FailureTranslation, Message: msgProviderFailure, Err: err}
}

func synthesisFailed(err error) *Failure {
	return &Failure{Kind: FailureSynthesis, Message: msgProviderFailure, Err: err}
}
