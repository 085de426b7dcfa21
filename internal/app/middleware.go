package app

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/unrolled/secure"

	"github.com/fixflow/fixflow/internal/observability"
	"github.com/fixflow/fixflow/internal/shared"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

// MiddlewareStack installs the FixFlow middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	header := "X-FixFlow-User"
	if cfg.Config != nil && cfg.Config.PrincipalHeader != "" {
		header = cfg.Config.PrincipalHeader
	}
	principalMiddleware := PrincipalFromHeader(header, cfg.Logger)

	stack := []func(http.Handler) http.Handler{
		secureMiddleware.Handler,
		principalMiddleware,
	}
	if cfg.Metrics != nil {
		stack = append(stack, cfg.Metrics.Middleware)
	}
	return stack
}

// PrincipalFromHeader resolves the acting user from the gateway-forwarded
// header. Requests without the header proceed unauthenticated; the RBAC
// guards reject them where a principal is required.
func PrincipalFromHeader(header string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(header))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				if logger != nil {
					logger.Warn("parse principal header", slog.String("value", raw))
				}
				next.ServeHTTP(w, r)
				return
			}
			ctx := shared.ContextWithPrincipal(r.Context(), &shared.Principal{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
