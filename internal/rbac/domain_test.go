package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/fixflow/fixflow/testing"
)

func TestNormalizeRoleName(t *testing.T) {
	require.Equal(t, "SUPER_ADMIN", NormalizeRoleName("  super_admin "))
	require.Equal(t, "TECHNICIAN", NormalizeRoleName("Technician"))
	require.Equal(t, "", NormalizeRoleName("   "))
}

func TestNormalizePermission(t *testing.T) {
	require.Equal(t, "bookings.read", NormalizePermission(" Bookings.Read "))
}

func TestNormalizePermissionsDedupes(t *testing.T) {
	got := normalizePermissions([]string{"bookings.read", "BOOKINGS.READ", " devices.read", ""})
	require.Equal(t, []string{"bookings.read", "devices.read"}, got)
}

func TestNormalizeRoleNamesDedupes(t *testing.T) {
	got := normalizeRoleNames([]string{"admin", "ADMIN", " manager ", ""})
	require.Equal(t, []string{"ADMIN", "MANAGER"}, got)
}
