package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/fixflow/fixflow/testing"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()

	perms := catalog.List()
	require.Len(t, perms, 20)
	for i := 1; i < len(perms); i++ {
		require.Less(t, perms[i-1].Name, perms[i].Name, "catalog listing must be sorted")
	}

	require.True(t, catalog.Exists("bookings.create"))
	require.True(t, catalog.Exists("  Bookings.Create  "), "lookups are case-insensitive")
	require.False(t, catalog.Exists("not.a.real.permission"))

	desc, ok := catalog.Describe("system.admin")
	require.True(t, ok)
	require.NotEmpty(t, desc)

	_, ok = catalog.Describe("ghost.permission")
	require.False(t, ok)
}

func TestCatalogMissing(t *testing.T) {
	catalog := DefaultCatalog()

	missing := catalog.Missing([]string{"bookings.read", "not.a.real.permission", "also.fake"})
	require.Equal(t, []string{"not.a.real.permission", "also.fake"}, missing)

	require.Nil(t, catalog.Missing([]string{"bookings.read", "users.read"}))
}
