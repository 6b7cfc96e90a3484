package mentors

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/shared"
)

// Handler exposes mentors over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers mentor routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{mentorID}", h.get)
	r.Put("/{mentorID}", h.update)
	r.Delete("/{mentorID}", h.remove)
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
	rec, err := h.service.Get(r.Context(), chi.URLParam(r, "mentorID"))
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
		shared.RespondErrorMessage(w, err, h.message(err, "add mentors"))
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
	rec, err := h.service.Update(r.Context(), authz.ActorFromContext(r.Context()), chi.URLParam(r, "mentorID"), input)
	if err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "edit mentors"))
		return
	}
	shared.RespondJSON(w, http.StatusOK, rec)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), authz.ActorFromContext(r.Context()), chi.URLParam(r, "mentorID")); err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "delete mentors"))
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
