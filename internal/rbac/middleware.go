package rbac

import (
	"log/slog"
	"net/http"

	"github.com/fixflow/fixflow/internal/shared"
)

// Middleware wires RBAC authorization guards for HTTP handlers. It is the
// framework adapter around the decision point: pure decisions in, status
// codes out. A policy denial maps to 403, a resolution failure to 503 so
// callers can tell "denied" from "authorization unavailable".
type Middleware struct {
	Decisions *DecisionPoint
	Logger    *slog.Logger
}

// RequireAny admits users holding at least one of the permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.require(CombineAny, perms)
}

// RequireAll admits only users holding every permission.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.require(CombineAll, perms)
}

func (m Middleware) require(mode CombineMode, perms []string) func(http.Handler) http.Handler {
	guard := m.Decisions.Require(mode, perms...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			decision := guard(r.Context(), principal.UserID)
			switch {
			case decision.Allowed:
				next.ServeHTTP(w, r)
			case decision.Reason == ReasonCheckFailed:
				if m.Logger != nil {
					m.Logger.Error("rbac guard", slog.Int64("user_id", principal.UserID), slog.Any("error", decision.Err))
				}
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			default:
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			}
		})
	}
}
