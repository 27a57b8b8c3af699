package turn

import "time"

// Speaker identifies which side of the pairing produced a turn.
type Speaker string

const (
	SpeakerRequester Speaker = "requester"
	SpeakerResponder Speaker = "responder"
)

// Valid reports whether the speaker is one of the two known roles.
func (s Speaker) Valid() bool {
	return s == SpeakerRequester || s == SpeakerResponder
}

// Turn is one finalized translation event: a single utterance carried from
// the speaker's language into the other participant's language, with the
// synthesized audio for playback. A Turn is only constructed once every
// pipeline stage has succeeded; it is immutable after that.
type Turn struct {
	SessionID      string    `json:"sessionId"`
	Speaker        Speaker   `json:"speaker"`
	SourceLanguage string    `json:"sourceLanguage"`
	TargetLanguage string    `json:"targetLanguage"`
	OriginalText   string    `json:"originalText"`
	TranslatedText string    `json:"translatedText"`
	Audio          []byte    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}
