package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fixflow/fixflow/internal/shared"
	_ "github.com/fixflow/fixflow/testing"
)

func TestPrincipalFromHeader(t *testing.T) {
	var principal *shared.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal = shared.PrincipalFromContext(r.Context())
	})
	mw := PrincipalFromHeader("X-FixFlow-User", nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-FixFlow-User", "42")
	mw(next).ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, principal)
	require.Equal(t, int64(42), principal.UserID)

	principal = nil
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	mw(next).ServeHTTP(httptest.NewRecorder(), req)
	require.Nil(t, principal, "requests without the header proceed unauthenticated")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-FixFlow-User", "not-a-number")
	mw(next).ServeHTTP(httptest.NewRecorder(), req)
	require.Nil(t, principal, "unparseable ids do not become principals")
}
