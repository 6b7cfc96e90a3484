package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/payintrack/payintrack/internal/audit"
	"github.com/payintrack/payintrack/internal/mentors"
	"github.com/payintrack/payintrack/internal/observability"
	"github.com/payintrack/payintrack/internal/payins"
	"github.com/payintrack/payintrack/internal/referrors"
	"github.com/payintrack/payintrack/internal/roles"
	"github.com/payintrack/payintrack/internal/session"
	"github.com/payintrack/payintrack/internal/shared"
	"github.com/payintrack/payintrack/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Principal      *session.Manager

	SessionHandler  *session.Handler
	UsersHandler    *users.Handler
	RolesHandler    *roles.Handler
	PayinsHandler   *payins.Handler
	ReferrorHandler *referrors.Handler
	MentorHandler   *mentors.Handler
	AuditHandler    *audit.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)
	r.Use(params.Principal.WithUser)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := params.CSRFManager.EnsureToken(r.Context(), sess)
		if err != nil {
			shared.RespondJSON(w, http.StatusInternalServerError, shared.ErrorBody{Error: "Session unavailable"})
			return
		}
		shared.RespondJSON(w, http.StatusOK, map[string]string{"token": token})
	})

	loginRate := 10
	if params.Config != nil && params.Config.LoginRatePerMinute > 0 {
		loginRate = params.Config.LoginRatePerMinute
	}
	r.Route("/session", func(r chi.Router) {
		r.Use(httprate.Limit(loginRate, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		params.SessionHandler.MountRoutes(r)
	})

	r.Route("/users", func(r chi.Router) {
		params.UsersHandler.MountRoutes(r)
	})
	r.Route("/roles", func(r chi.Router) {
		params.RolesHandler.MountRoutes(r)
	})
	r.Route("/payins", func(r chi.Router) {
		params.PayinsHandler.MountRoutes(r)
	})
	r.Route("/analytics", func(r chi.Router) {
		params.PayinsHandler.MountAnalytics(r)
	})
	r.Route("/referrors", func(r chi.Router) {
		params.ReferrorHandler.MountRoutes(r)
	})
	r.Route("/mentors", func(r chi.Router) {
		params.MentorHandler.MountRoutes(r)
	})
	r.Route("/audit", func(r chi.Router) {
		params.AuditHandler.MountRoutes(r)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
