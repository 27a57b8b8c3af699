package synthesize

import "context"

// Result is a finished speech synthesis.
type Result struct {
	Audio  []byte `json:"-"`
	Voice  string `json:"voice"`
	Format string `json:"format"`
}

// Synthesizer renders text into spoken audio in the given language.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) (*Result, error)
}
