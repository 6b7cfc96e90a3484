package roles

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/shared"
)

// Handler exposes the role catalog over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{roleID}", h.get)
	r.Put("/{roleID}", h.update)
	r.Delete("/{roleID}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.List(r.Context())
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, roles)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.Get(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, role)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "Invalid request body"})
		return
	}
	role, err := h.service.Create(r.Context(), authz.ActorFromContext(r.Context()), input)
	if err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "add roles"))
		return
	}
	shared.RespondJSON(w, http.StatusCreated, role)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var input UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "Invalid request body"})
		return
	}
	role, err := h.service.Update(r.Context(), authz.ActorFromContext(r.Context()), chi.URLParam(r, "roleID"), input)
	if err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "edit roles"))
		return
	}
	shared.RespondJSON(w, http.StatusOK, role)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), authz.ActorFromContext(r.Context()), chi.URLParam(r, "roleID")); err != nil {
		shared.RespondErrorMessage(w, err, h.message(err, "delete roles"))
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

// message keeps the denial text specific to the attempted operation while
// everything else falls back to the generic mapping.
func (h *Handler) message(err error, what string) string {
	if errors.Is(err, shared.ErrAccessDenied) {
		return shared.DeniedMessage(what)
	}
	return shared.UserSafeMessage(err)
}
