package payment

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/facturante/facturante/internal/platform/httpx"
)

// Handler manages payment tracker endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/due-today", h.dueToday)
	r.Get("/summary", h.summary)
	r.Get("/export.csv", h.exportCSV)
	r.Post("/sweep", h.sweep)
	r.Post("/{id}/paid", h.markPaid)
	r.Post("/{id}/overdue", h.markOverdue)
	r.Delete("/{id}", h.deactivate)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	status := Status(r.URL.Query().Get("status"))
	if status == "" {
		status = StatusPending
	}
	var clientID int64
	if v := r.URL.Query().Get("client_id"); v != "" {
		clientID, _ = strconv.ParseInt(v, 10, 64)
	}

	records, err := h.service.FindByStatus(r.Context(), status, clientID)
	if err != nil {
		h.logger.Error("list payment records", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) dueToday(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.FindDueToday(r.Context())
	if err != nil {
		h.logger.Error("find due today", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetSummary(r.Context())
	if err != nil {
		h.logger.Error("payments summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	status := Status(r.URL.Query().Get("status"))
	if status == "" {
		status = StatusPending
	}
	records, err := h.service.FindByStatus(r.Context(), status, 0)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="payments.csv"`)
	if err := WriteRecordsCSV(w, records); err != nil {
		h.logger.Error("export payments csv", slog.Any("error", err))
	}
}

type sweepRequest struct {
	AsOf string `json:"as_of"`
}

func (h *Handler) sweep(w http.ResponseWriter, r *http.Request) {
	var asOf time.Time
	if r.ContentLength > 0 {
		var req sweepRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
			return
		}
		if req.AsOf != "" {
			parsed, err := time.Parse("2006-01-02", req.AsOf)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid as_of, expected YYYY-MM-DD")
				return
			}
			asOf = parsed
		}
	}

	records, err := h.service.SweepOverdue(r.Context(), asOf)
	if err != nil {
		h.logger.Error("sweep overdue", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"flipped": len(records), "records": records})
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	rec, err := h.service.MarkPaid(r.Context(), id)
	if err != nil {
		h.logger.Error("mark paid", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) markOverdue(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	rec, err := h.service.MarkOverdueManual(r.Context(), id)
	if err != nil {
		h.logger.Error("mark overdue", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payment record id")
		return 0, false
	}
	return id, true
}
