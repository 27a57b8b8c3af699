package translate

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
	defaultBaseURL = "https://translation.googleapis.com"
	defaultTimeout = 15 * time.Second
)

// Config carries the Google Translate client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// GoogleClient implements Translator against the Translate v2 REST API.
type GoogleClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewGoogleClient creates a client, filling in endpoint defaults.
func NewGoogleClient(cfg Config) *GoogleClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &GoogleClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type googleRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
}

// Translate submits the text for translation and returns the first result.
func (c *GoogleClient) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (*Result, error) {
	payload, err := json.Marshal(googleRequest{
		Q:      text,
		Source: sourceLanguage,
		Target: targetLanguage,
		Format: "text",
	})
	if err != nil {
		return nil, fmt.Errorf("encode translation request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/language/translate/v2?key=%s", c.cfg.BaseURL, url.QueryEscape(c.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build translation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Printf("[translate] requesting translation %s -> %s chars=%d", sourceLanguage, targetLanguage, len(text))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("translation provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode translation response: %w", err)
	}

	if len(parsed.Data.Translations) == 0 {
		return nil, fmt.Errorf("translation provider returned no translations")
	}

	first := parsed.Data.Translations[0]
	detected := first.DetectedSourceLanguage
	if detected == "" {
		detected = sourceLanguage
	}

	return &Result{Text: first.TranslatedText, DetectedSourceLanguage: detected}, nil
}
