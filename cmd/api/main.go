package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/puentevoz/backend/internal/config"
	"github.com/puentevoz/backend/internal/handler"
	turnhandler "github.com/puentevoz/backend/internal/handler/turn"
	"github.com/puentevoz/backend/internal/pipeline"
	"github.com/puentevoz/backend/internal/provider/synthesize"
	"github.com/puentevoz/backend/internal/provider/transcribe"
	"github.com/puentevoz/backend/internal/provider/translate"
	"github.com/puentevoz/backend/internal/registry"
	"github.com/puentevoz/backend/internal/relay"
	"github.com/puentevoz/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Process-scoped state, constructed once and passed explicitly.
	conversationLog := store.NewLog()
	sessionRegistry := registry.New()
	hub := relay.NewHub(sessionRegistry)

	var processor turnhandler.Processor
	health := handler.HealthInfo{
		Transcribe: cfg.Transcribe.Enabled(),
		Synthesize: cfg.Synthesize.Enabled(),
	}
	if cfg.Translate.Enabled() {
		health.Translate = cfg.Translate.Provider
	}

	if cfg.PipelineEnabled() {
		translator, err := buildTranslator(ctx, cfg.Translate)
		if err != nil {
			log.Printf("warning: failed to initialize translator: %v", err)
			log.Println("continuing without the turn pipeline - check translation credentials")
		} else {
			transcriber := transcribe.NewDeepgramClient(transcribe.Config{
				APIKey:  cfg.Transcribe.APIKey,
				BaseURL: cfg.Transcribe.BaseURL,
				Model:   cfg.Transcribe.Model,
				Timeout: cfg.Pipeline.StageTimeout,
			})
			synthesizer := synthesize.NewOpenAIClient(synthesize.Config{
				APIKey:  cfg.Synthesize.APIKey,
				BaseURL: cfg.Synthesize.BaseURL,
				Model:   cfg.Synthesize.Model,
				Timeout: cfg.Pipeline.StageTimeout,
			})
			processor = pipeline.New(transcriber, translator, synthesizer, conversationLog, pipeline.Options{
				StageTimeout:  cfg.Pipeline.StageTimeout,
				MinAudioBytes: cfg.Pipeline.MinAudioBytes,
			})
			health.Pipeline = true
			log.Printf("turn pipeline initialized (translate provider: %s)", cfg.Translate.Provider)
		}
	} else {
		log.Println("speech provider credentials incomplete, turn pipeline disabled")
	}

	router := handler.NewRouter(conversationLog, hub, processor, health)

	startServer(ctx, cfg.Server, router)
}

// buildTranslator selects the configured translation provider.
func buildTranslator(ctx context.Context, cfg config.TranslateConfig) (translate.Translator, error) {
	if cfg.Provider == config.TranslateProviderLLM {
		chatModel, err := cfg.LLM.NewChatModel(ctx)
		if err != nil {
			return nil, err
		}
		return translate.NewLLMTranslator(ctx, chatModel)
	}

	return translate.NewGoogleClient(translate.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
	}), nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Puentevoz backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
