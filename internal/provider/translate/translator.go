package translate

import "context"

// Result is a finished translation.
type Result struct {
	Text                   string `json:"text"`
	DetectedSourceLanguage string `json:"detectedSourceLanguage,omitempty"`
}

// Translator converts text between two language tags. Implementations never
// see the source == target case; the pipeline short-circuits it.
type Translator interface {
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (*Result, error)
}
