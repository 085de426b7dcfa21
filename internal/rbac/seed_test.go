package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/fixflow/fixflow/testing"
)

func TestSeedIdempotent(t *testing.T) {
	store := NewMemoryStore()
	catalog := DefaultCatalog()
	ctx := context.Background()

	require.NoError(t, Seed(ctx, store, catalog))
	before, err := store.GetRole(ctx, "SUPER_ADMIN")
	require.NoError(t, err)

	require.NoError(t, Seed(ctx, store, catalog))
	after, err := store.GetRole(ctx, "SUPER_ADMIN")
	require.NoError(t, err)
	require.Equal(t, before.CreatedAt, after.CreatedAt)

	roles, err := store.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 5)
	for _, role := range roles {
		require.True(t, role.IsSystem)
	}
}

func TestSeedPermissionsExistInCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	for _, role := range SystemRoles(catalog) {
		require.Empty(t, catalog.Missing(role.Permissions), "role %s", role.Name)
	}
}

func TestSeededHierarchyResolvesBottomUp(t *testing.T) {
	store := NewMemoryStore()
	catalog := DefaultCatalog()
	ctx := context.Background()
	require.NoError(t, Seed(ctx, store, catalog))
	resolver := NewResolver(store)

	ancestors, err := resolver.AncestorsOf(ctx, "TECHNICIAN")
	require.NoError(t, err)
	require.Equal(t, []string{"ADMIN", "MANAGER", "SUPER_ADMIN"}, ancestors)

	perms, err := resolver.EffectivePermissionsOfRole(ctx, "TECHNICIAN")
	require.NoError(t, err)
	require.Len(t, perms, len(catalog.List()), "inherits the full set through SUPER_ADMIN")

	customer, err := resolver.AncestorsOf(ctx, "CUSTOMER")
	require.NoError(t, err)
	require.Empty(t, customer)
}
