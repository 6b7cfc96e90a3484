package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/shared"
)

// Handler serves the audit timeline.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.timeline)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())

	q := r.URL.Query()
	filters := TimelineFilters{
		Action: q.Get("action"),
		Entity: q.Get("entity"),
		User:   q.Get("user"),
	}
	if v := q.Get("from"); v != "" {
		if at, err := time.Parse("2006-01-02", v); err == nil {
			filters.From = at
		}
	}
	if v := q.Get("to"); v != "" {
		if at, err := time.Parse("2006-01-02", v); err == nil {
			// Inclusive end date.
			filters.To = at.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		filters.Page = v
	}
	if v, err := strconv.Atoi(q.Get("pageSize")); err == nil {
		filters.PageSize = v
	}

	result, err := h.service.Timeline(r.Context(), actor, filters)
	if err != nil {
		shared.RespondErrorMessage(w, err, shared.DeniedMessage("view the audit trail"))
		return
	}
	shared.RespondJSON(w, http.StatusOK, result)
}
