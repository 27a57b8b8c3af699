package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://api.deepgram.com"
	defaultModel   = "nova-2"
	defaultTimeout = 30 * time.Second
)

// languageMap converts our short language tags to the tags Deepgram expects.
var languageMap = map[string]string{
	"es": "es",
	"en": "en-US",
	"fr": "fr",
	"de": "de",
	"pt": "pt",
	"it": "it",
	"zh": "zh-CN",
	"ja": "ja",
	"ko": "ko",
	"ar": "ar",
}

// MapLanguage resolves a session language tag to the provider tag, falling
// back to US English for unmapped tags.
func MapLanguage(language string) string {
	if mapped, ok := languageMap[language]; ok {
		return mapped
	}
	return "en-US"
}

// Config carries the Deepgram client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DeepgramClient implements Transcriber against the Deepgram listen API.
type DeepgramClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewDeepgramClient creates a client, filling in endpoint and model defaults.
func NewDeepgramClient(cfg Config) *DeepgramClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &DeepgramClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe submits the audio for batch recognition and returns the best
// alternative. An empty transcript maps to ErrNoSpeech.
func (c *DeepgramClient) Transcribe(ctx context.Context, audio []byte, language string) (*Result, error) {
	providerLanguage := MapLanguage(language)
	endpoint := fmt.Sprintf("%s/v1/listen?language=%s&model=%s",
		c.cfg.BaseURL, url.QueryEscape(providerLanguage), url.QueryEscape(c.cfg.Model))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return nil, fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "audio/wav")

	log.Printf("[transcribe] submitting audio bytes=%d language=%s provider_language=%s", len(audio), language, providerLanguage)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("transcription provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}

	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return nil, ErrNoSpeech
	}

	best := parsed.Results.Channels[0].Alternatives[0]
	if best.Transcript == "" {
		return nil, ErrNoSpeech
	}

	return &Result{Text: best.Transcript, Confidence: best.Confidence}, nil
}
