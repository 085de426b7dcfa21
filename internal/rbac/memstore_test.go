package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/fixflow/fixflow/testing"
)

func TestMemoryStorePutRolePreservesCreatedAt(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.PutRole(ctx, Role{Name: "TECHNICIAN", Permissions: []string{"bookings.read"}})
	require.NoError(t, err)

	second, err := store.PutRole(ctx, Role{Name: "technician", Permissions: []string{"bookings.read", "devices.read"}})
	require.NoError(t, err)
	require.Equal(t, first.CreatedAt, second.CreatedAt)
	require.Equal(t, "TECHNICIAN", second.Name)
	require.Equal(t, []string{"bookings.read", "devices.read"}, second.Permissions)
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.PutRole(ctx, Role{Name: "TECHNICIAN", Permissions: []string{"bookings.read"}})
	require.NoError(t, err)

	role, err := store.GetRole(ctx, "TECHNICIAN")
	require.NoError(t, err)
	role.Permissions[0] = "mutated"

	again, err := store.GetRole(ctx, "TECHNICIAN")
	require.NoError(t, err)
	require.Equal(t, []string{"bookings.read"}, again.Permissions, "callers get copies, not shared slices")
}

func TestMemoryStoreListRolesSorted(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for _, name := range []string{"ZETA", "ALPHA", "MID"} {
		_, err := store.PutRole(ctx, Role{Name: name})
		require.NoError(t, err)
	}

	roles, err := store.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	require.Equal(t, "ALPHA", roles[0].Name)
	require.Equal(t, "MID", roles[1].Name)
	require.Equal(t, "ZETA", roles[2].Name)
}

func TestMemoryStoreAssignments(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_, err := store.PutRole(ctx, Role{Name: "TECHNICIAN"})
	require.NoError(t, err)

	a, err := store.CreateAssignment(ctx, 42, "technician", nil)
	require.NoError(t, err)
	require.Equal(t, "TECHNICIAN", a.RoleName)
	require.NotEqual(t, "", a.ID.String())

	_, err = store.CreateAssignment(ctx, 42, "TECHNICIAN", nil)
	require.ErrorIs(t, err, ErrDuplicateAssignment)

	names, err := store.ListRolesOf(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, []string{"TECHNICIAN"}, names)

	removed, err := store.DeleteAssignment(ctx, 42, "TECHNICIAN")
	require.NoError(t, err)
	require.Equal(t, a.ID, removed.ID)

	_, err = store.DeleteAssignment(ctx, 42, "TECHNICIAN")
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}
