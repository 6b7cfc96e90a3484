package session

import (
	"net/http"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/shared"
)

// WithUser resolves the acting principal from the request session and
// attaches it to the request context. Runs after the session-loading
// middleware; without a session the principal is guest.
func (m *Manager) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		user := m.Current(sess)
		next.ServeHTTP(w, r.WithContext(authz.ContextWithUser(r.Context(), user)))
	})
}
