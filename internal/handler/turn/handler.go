package turn

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	turnmodel "github.com/puentevoz/backend/internal/model/turn"
	"github.com/puentevoz/backend/internal/pipeline"
	"github.com/puentevoz/backend/pkg/utils"
)

// Processor runs one submitted utterance through the translation pipeline.
type Processor interface {
	Process(ctx context.Context, req *pipeline.TurnRequest) (*turnmodel.Turn, error)
}

// Broadcaster pushes a finished turn to the other members of the session.
type Broadcaster interface {
	BroadcastTurn(sessionID, exclude string, t *turnmodel.Turn) int
}

// Handler exposes turn submission over HTTP.
type Handler struct {
	processor Processor
	hub       Broadcaster
}

// New creates the turn handler. processor may be nil when the speech
// providers are not configured; submissions then fail with 503.
func New(processor Processor, hub Broadcaster) *Handler {
	return &Handler{processor: processor, hub: hub}
}

// RegisterRoutes registers the turn submission endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/turns", h.handleProcessTurn)
}

// turnResponse echoes the finished turn back to the submitter.
type turnResponse struct {
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	AudioBase64    string `json:"audioBase64"`
	SessionID      string `json:"sessionId"`
	Speaker        string `json:"speaker"`
}

func (h *Handler) handleProcessTurn(w http.ResponseWriter, r *http.Request) {
	if h.processor == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "translation pipeline unavailable")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read audio payload")
		return
	}

	req := &pipeline.TurnRequest{
		SessionID:      r.FormValue("sessionId"),
		Speaker:        turnmodel.Speaker(r.FormValue("speaker")),
		SourceLanguage: r.FormValue("sourceLanguage"),
		TargetLanguage: r.FormValue("targetLanguage"),
		Audio:          audio,
	}

	result, err := h.processor.Process(r.Context(), req)
	if err != nil {
		h.respondFailure(w, req, err)
		return
	}

	// Fan the turn out to the other session members. The submitter already
	// has the result in the HTTP response, so its connection id (when
	// provided) is excluded from the broadcast.
	if h.hub != nil {
		recipients := h.hub.BroadcastTurn(result.SessionID, r.FormValue("participant"), result)
		log.Printf("[turn] broadcast turn session=%s speaker=%s recipients=%d", result.SessionID, result.Speaker, recipients)
	}

	utils.RespondJSON(w, http.StatusOK, turnResponse{
		OriginalText:   result.OriginalText,
		TranslatedText: result.TranslatedText,
		AudioBase64:    base64.StdEncoding.EncodeToString(result.Audio),
		SessionID:      result.SessionID,
		Speaker:        string(result.Speaker),
	})
}

// respondFailure maps pipeline failures to HTTP outcomes: input-quality
// failures carry their specific guidance with a 400, provider failures get
// the generic retry message with a 502. Provider detail goes to the operator
// log, never to the caller.
func (h *Handler) respondFailure(w http.ResponseWriter, req *pipeline.TurnRequest, err error) {
	var failure *pipeline.Failure
	if !errors.As(err, &failure) {
		log.Printf("[turn] unexpected pipeline error session=%s: %v", req.SessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error during turn processing")
		return
	}

	status := http.StatusBadGateway
	if failure.Kind.InputQuality() {
		status = http.StatusBadRequest
	}

	log.Printf("[turn] pipeline failure session=%s speaker=%s kind=%s err=%v",
		req.SessionID, req.Speaker, failure.Kind, failure.Err)

	utils.RespondJSON(w, status, map[string]string{
		"error": failure.Message,
		"code":  string(failure.Kind),
	})
}
