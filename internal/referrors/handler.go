package referrors

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/shared"
)

// Handler exposes referrors over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers referror routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{referrorID}", h.get)
	r.Put("/{referrorID}", h.update)
	r.Delete("/{referrorID}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, records)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), chi.URLParam(r, "referrorID"))
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, rec)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "Invalid request body"})
		return
	}
	rec, err := h.service.Create(r.Context(), authz.ActorFromContext(r.Context()), input)
	if err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "add referrors"))
		return
	}
	shared.RespondJSON(w, http.StatusCreated, rec)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "Invalid request body"})
		return
	}
	rec, err := h.service.Update(r.Context(), authz.ActorFromContext(r.Context()), chi.URLParam(r, "referrorID"), input)
	if err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "edit referrors"))
		return
	}
	shared.RespondJSON(w, http.StatusOK, rec)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), authz.ActorFromContext(r.Context()), chi.URLParam(r, "referrorID")); err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "delete referrors"))
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) message(err error, what string) string {
	if errors.Is(err, shared.ErrAccessDenied) {
		return shared.DeniedMessage(what)
	}
	return shared.UserSafeMessage(err)
}
