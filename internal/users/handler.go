package users

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/shared"
)

// Handler exposes account management over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{userID}", h.get)
	r.Put("/{userID}", h.update)
	r.Delete("/{userID}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context(), authz.ActorFromContext(r.Context()))
	if err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "manage users"))
		return
	}
	shared.RespondJSON(w, http.StatusOK, users)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), authz.ActorFromContext(r.Context()), chi.URLParam(r, "userID"))
	if err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "manage users"))
		return
	}
	shared.RespondJSON(w, http.StatusOK, user)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "Invalid request body"})
		return
	}
	user, err := h.service.Create(r.Context(), authz.ActorFromContext(r.Context()), input)
	if err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "add users"))
		return
	}
	shared.RespondJSON(w, http.StatusCreated, user)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var input UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "Invalid request body"})
		return
	}
	user, err := h.service.Update(r.Context(), authz.ActorFromContext(r.Context()), chi.URLParam(r, "userID"), input)
	if err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "edit users"))
		return
	}
	shared.RespondJSON(w, http.StatusOK, user)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), authz.ActorFromContext(r.Context()), chi.URLParam(r, "userID")); err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "delete users"))
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
