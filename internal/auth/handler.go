package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/facturante/facturante/internal/platform/httpx"
)

// Handler manages API key administration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers API key routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Delete("/{keyID}", h.revoke)
}

type createKeyRequest struct {
	Label string `json:"label"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}

	key, token, err := h.service.CreateKey(r.Context(), req.Label)
	if err != nil {
		h.logger.Error("create api key", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	// The plaintext token is only returned here and never stored.
	httpx.JSON(w, http.StatusCreated, map[string]any{"key": key, "token": token})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	keys, err := h.service.ListKeys(r.Context())
	if err != nil {
		h.logger.Error("list api keys", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"keys": keys})
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "keyID")
	if err := h.service.RevokeKey(r.Context(), keyID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
