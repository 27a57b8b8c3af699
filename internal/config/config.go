package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the service needs.
type Config struct {
	Server     ServerConfig
	Transcribe TranscribeConfig
	Translate  TranslateConfig
	Synthesize SynthesizeConfig
	Pipeline   PipelineConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	translate, err := loadTranslateConfig()
	if err != nil {
		return nil, err
	}

	pipeline, err := loadPipelineConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:     server,
		Transcribe: loadTranscribeConfig(),
		Translate:  translate,
		Synthesize: loadSynthesizeConfig(),
		Pipeline:   pipeline,
	}, nil
}

// PipelineEnabled reports whether all three capability providers are
// configured well enough to run turns.
func (c *Config) PipelineEnabled() bool {
	return c.Transcribe.Enabled() && c.Translate.Enabled() && c.Synthesize.Enabled()
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// TranscribeConfig describes the speech-to-text provider.
type TranscribeConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Enabled reports whether the required key is present.
func (c TranscribeConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadTranscribeConfig() TranscribeConfig {
	return TranscribeConfig{
		APIKey:  strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
		BaseURL: getEnvOrDefault("DEEPGRAM_BASE_URL", ""),
		Model:   getEnvOrDefault("DEEPGRAM_MODEL", "nova-2"),
	}
}

// Translation provider selectors.
const (
	TranslateProviderGoogle = "google"
	TranslateProviderLLM    = "llm"
)

// TranslateConfig describes the text translation provider. Provider selects
// between the Google REST client and the chat-model translator.
type TranslateConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	LLM      LLMConfig
}

// Enabled reports whether the selected provider has usable credentials.
func (c TranslateConfig) Enabled() bool {
	if c.Provider == TranslateProviderLLM {
		return c.LLM.Enabled()
	}
	return c.APIKey != ""
}

func loadTranslateConfig() (TranslateConfig, error) {
	llm, err := loadLLMConfig()
	if err != nil {
		return TranslateConfig{}, err
	}

	provider := strings.ToLower(getEnvOrDefault("TRANSLATE_PROVIDER", TranslateProviderGoogle))
	if provider != TranslateProviderGoogle && provider != TranslateProviderLLM {
		return TranslateConfig{}, fmt.Errorf("invalid TRANSLATE_PROVIDER value: %q", provider)
	}

	return TranslateConfig{
		Provider: provider,
		APIKey:   strings.TrimSpace(os.Getenv("GOOGLE_TRANSLATE_API_KEY")),
		BaseURL:  getEnvOrDefault("GOOGLE_TRANSLATE_BASE_URL", ""),
		LLM:      llm,
	}, nil
}

// LLMConfig describes the chat model used by the llm translation provider.
type LLMConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c LLMConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates a model instance from the configuration.
func (c LLMConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("llm translator requires ARK_MODEL plus ARK_API_KEY or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadLLMConfig() (LLMConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return LLMConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return LLMConfig{}, err
	}

	return LLMConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// SynthesizeConfig describes the text-to-speech provider.
type SynthesizeConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Enabled reports whether the required key is present.
func (c SynthesizeConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadSynthesizeConfig() SynthesizeConfig {
	return SynthesizeConfig{
		APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL: getEnvOrDefault("OPENAI_BASE_URL", ""),
		Model:   getEnvOrDefault("OPENAI_TTS_MODEL", "tts-1"),
	}
}

// PipelineConfig tunes the turn pipeline.
type PipelineConfig struct {
	StageTimeout  time.Duration
	MinAudioBytes int
}

func loadPipelineConfig() (PipelineConfig, error) {
	timeout, err := parseOptionalIntEnv("PIPELINE_STAGE_TIMEOUT")
	if err != nil {
		return PipelineConfig{}, err
	}
	stageTimeout := 30 * time.Second
	if timeout != nil {
		if *timeout < 1 {
			return PipelineConfig{}, fmt.Errorf("PIPELINE_STAGE_TIMEOUT must be at least 1 second")
		}
		stageTimeout = time.Duration(*timeout) * time.Second
	}

	minBytes, err := parseOptionalIntEnv("PIPELINE_MIN_AUDIO_BYTES")
	if err != nil {
		return PipelineConfig{}, err
	}
	minAudioBytes := 1000
	if minBytes != nil && *minBytes > 0 {
		minAudioBytes = *minBytes
	}

	return PipelineConfig{StageTimeout: stageTimeout, MinAudioBytes: minAudioBytes}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
