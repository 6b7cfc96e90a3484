package session

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/shared"
)

// Handler exposes login, logout and identity lookup.
type Handler struct {
	logger  *slog.Logger
	manager *Manager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, manager *Manager) *Handler {
	return &Handler{logger: logger, manager: manager}
}

// MountRoutes registers session routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.login)
	r.Delete("/", h.logout)
	r.Get("/", h.current)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "Invalid request body"})
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		shared.RespondJSON(w, http.StatusInternalServerError, shared.ErrorBody{Error: "Session unavailable"})
		return
	}
	user, err := h.manager.Login(r.Context(), sess, req.Username, req.Password)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, user)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.manager.Logout(sess)
	}
	shared.RespondJSON(w, http.StatusOK, authz.Guest())
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	shared.RespondJSON(w, http.StatusOK, authz.ActorFromContext(r.Context()))
}
