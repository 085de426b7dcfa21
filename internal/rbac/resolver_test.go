package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/fixflow/fixflow/testing"
)

func mustPutRole(t *testing.T, store Store, role Role) {
	t.Helper()
	_, err := store.PutRole(context.Background(), role)
	require.NoError(t, err)
}

func TestAncestorsOfLinearChain(t *testing.T) {
	store := NewMemoryStore()
	mustPutRole(t, store, Role{Name: "SUPER_ADMIN"})
	mustPutRole(t, store, Role{Name: "ADMIN", ParentRoles: []string{"SUPER_ADMIN"}})
	mustPutRole(t, store, Role{Name: "MANAGER", ParentRoles: []string{"ADMIN"}})
	mustPutRole(t, store, Role{Name: "TECHNICIAN", ParentRoles: []string{"MANAGER"}})

	resolver := NewResolver(store)
	ancestors, err := resolver.AncestorsOf(context.Background(), "TECHNICIAN")
	require.NoError(t, err)
	require.Equal(t, []string{"ADMIN", "MANAGER", "SUPER_ADMIN"}, ancestors)

	ancestors, err = resolver.AncestorsOf(context.Background(), "SUPER_ADMIN")
	require.NoError(t, err)
	require.Empty(t, ancestors)
}

func TestAncestorsOfMissingRole(t *testing.T) {
	resolver := NewResolver(NewMemoryStore())
	_, err := resolver.AncestorsOf(context.Background(), "GHOST")
	require.ErrorIs(t, err, ErrRoleNotFound)
}

func TestAncestorsOfTerminatesOnCycle(t *testing.T) {
	// Cycles are rejected at write time; the resolver still has to survive
	// one planted directly in the store.
	store := NewMemoryStore()
	mustPutRole(t, store, Role{Name: "A", Permissions: []string{"users.read"}, ParentRoles: []string{"B"}})
	mustPutRole(t, store, Role{Name: "B", Permissions: []string{"bookings.read"}, ParentRoles: []string{"A"}})

	resolver := NewResolver(store)
	ancestors, err := resolver.AncestorsOf(context.Background(), "A")
	require.NoError(t, err)
	require.Equal(t, []string{"B"}, ancestors, "a role is never its own ancestor")

	perms, err := resolver.EffectivePermissionsOfRole(context.Background(), "A")
	require.NoError(t, err)
	require.Equal(t, []string{"bookings.read", "users.read"}, perms)
}

func TestAncestorsOfDiamond(t *testing.T) {
	// D inherits B and C, both of which inherit A. Whatever order the edges
	// are walked in, A must be found exactly once.
	store := NewMemoryStore()
	mustPutRole(t, store, Role{Name: "A", Permissions: []string{"system.admin"}})
	mustPutRole(t, store, Role{Name: "B", Permissions: []string{"users.read"}, ParentRoles: []string{"A"}})
	mustPutRole(t, store, Role{Name: "C", Permissions: []string{"pricing.read"}, ParentRoles: []string{"A"}})
	mustPutRole(t, store, Role{Name: "D", Permissions: []string{"bookings.read"}, ParentRoles: []string{"B", "C"}})

	resolver := NewResolver(store)
	ancestors, err := resolver.AncestorsOf(context.Background(), "D")
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, ancestors)

	perms, err := resolver.EffectivePermissionsOfRole(context.Background(), "D")
	require.NoError(t, err)
	require.Equal(t, []string{"bookings.read", "pricing.read", "system.admin", "users.read"}, perms)
}

func TestEffectivePermissionsCoverage(t *testing.T) {
	store := NewMemoryStore()
	mustPutRole(t, store, Role{Name: "PARENT", Permissions: []string{"analytics.read", "analytics.export"}})
	mustPutRole(t, store, Role{Name: "CHILD", Permissions: []string{"bookings.read"}, ParentRoles: []string{"PARENT"}})

	resolver := NewResolver(store)
	child, err := resolver.EffectivePermissionsOfRole(context.Background(), "CHILD")
	require.NoError(t, err)
	parent, err := resolver.EffectivePermissionsOfRole(context.Background(), "PARENT")
	require.NoError(t, err)

	childSet := make(map[string]struct{}, len(child))
	for _, p := range child {
		childSet[p] = struct{}{}
	}
	for _, p := range []string{"bookings.read"} {
		require.Contains(t, childSet, p, "effective set covers the role's own permissions")
	}
	for _, p := range parent {
		require.Contains(t, childSet, p, "effective set covers every parent's effective set")
	}
}

func TestEffectivePermissionsDeadParentEdge(t *testing.T) {
	store := NewMemoryStore()
	mustPutRole(t, store, Role{Name: "ORPHANED", Permissions: []string{"bookings.read"}, ParentRoles: []string{"DELETED_ROLE"}})

	resolver := NewResolver(store)
	perms, err := resolver.EffectivePermissionsOfRole(context.Background(), "ORPHANED")
	require.NoError(t, err)
	require.Equal(t, []string{"bookings.read"}, perms)
}

func TestEffectivePermissionsOfUser(t *testing.T) {
	store := NewMemoryStore()
	mustPutRole(t, store, Role{Name: "CUSTOMER", Permissions: []string{"bookings.read", "bookings.create", "devices.read"}})
	mustPutRole(t, store, Role{Name: "TECHNICIAN", Permissions: []string{"bookings.read", "bookings.update", "devices.read", "pricing.read"}})

	_, err := store.CreateAssignment(context.Background(), 7, "CUSTOMER", nil)
	require.NoError(t, err)
	_, err = store.CreateAssignment(context.Background(), 7, "TECHNICIAN", nil)
	require.NoError(t, err)

	resolver := NewResolver(store)
	perms, err := resolver.EffectivePermissionsOfUser(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, []string{"bookings.create", "bookings.read", "bookings.update", "devices.read", "pricing.read"}, perms)

	perms, err = resolver.EffectivePermissionsOfUser(context.Background(), 99)
	require.NoError(t, err)
	require.Empty(t, perms, "user with no assignments has no permissions")
}
