package payins

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/shared"
)

// Handler exposes payins and their analytics over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers payin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{payinID}", h.get)
	r.Put("/{payinID}", h.update)
	r.Delete("/{payinID}", h.remove)
}

// MountAnalytics registers the analytics route, mounted separately so the
// endpoint lives at the top level of the API.
func (h *Handler) MountAnalytics(r chi.Router) {
	r.Get("/", h.analytics)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	payins, err := h.service.List(r.Context())
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, payins)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "payinID"))
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "Invalid request body"})
		return
	}
	p, err := h.service.Create(r.Context(), authz.ActorFromContext(r.Context()), input)
	if err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "add payins"))
		return
	}
	shared.RespondJSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "Invalid request body"})
		return
	}
	p, err := h.service.Update(r.Context(), authz.ActorFromContext(r.Context()), chi.URLParam(r, "payinID"), input)
	if err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "edit payins"))
		return
	}
	shared.RespondJSON(w, http.StatusOK, p)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), authz.ActorFromContext(r.Context()), chi.URLParam(r, "payinID")); err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "delete payins"))
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	filters := AnalyticsFilters{
		From:     r.URL.Query().Get("from"),
		To:       r.URL.Query().Get("to"),
		Referror: r.URL.Query().Get("referror"),
		Mentor:   r.URL.Query().Get("mentor"),
	}
	result, err := h.service.Analytics(r.Context(), authz.ActorFromContext(r.Context()), filters)
	if err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "view analytics"))
		return
	}
	shared.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) message(err error, what string) string {
	if errors.Is(err, shared.ErrAccessDenied) {
		return shared.DeniedMessage(what)
	}
	return shared.UserSafeMessage(err)
}
