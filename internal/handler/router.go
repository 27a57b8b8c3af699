package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	historyhandler "github.com/puentevoz/backend/internal/handler/history"
	relayhandler "github.com/puentevoz/backend/internal/handler/relay"
	turnhandler "github.com/puentevoz/backend/internal/handler/turn"
	middlewarePkg "github.com/puentevoz/backend/internal/middleware"
	"github.com/puentevoz/backend/internal/relay"
	"github.com/puentevoz/backend/internal/store"
	"github.com/puentevoz/backend/pkg/utils"
)

// HealthInfo summarizes which capabilities the process was started with.
type HealthInfo struct {
	Transcribe bool   `json:"transcribe"`
	Translate  string `json:"translate,omitempty"`
	Synthesize bool   `json:"synthesize"`
	Pipeline   bool   `json:"pipeline"`
}

// NewRouter wires HTTP routes to core services. processor is nil when the
// speech providers are not configured; the turn endpoint then responds 503.
func NewRouter(conversationLog *store.Log, hub *relay.Hub, processor turnhandler.Processor, health HealthInfo) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	historyHandler := historyhandler.New(conversationLog)
	turnHandler := turnhandler.New(processor, hub)
	relayHandler := relayhandler.New(hub)

	r.Route("/api", func(api chi.Router) {
		historyHandler.RegisterRoutes(api)
		turnHandler.RegisterRoutes(api)
		relayHandler.RegisterRoutes(api)

		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":    "ok",
				"providers": health,
			})
		})
	})

	return r
}
