package rbac

import "context"

// SystemRoles returns the seeded role hierarchy. TECHNICIAN inherits MANAGER,
// MANAGER inherits ADMIN, ADMIN inherits SUPER_ADMIN: a technician effectively
// holds every ancestor permission. CUSTOMER stands alone.
func SystemRoles(catalog *Catalog) []Role {
	all := catalog.List()
	allNames := make([]string, 0, len(all))
	for _, p := range all {
		allNames = append(allNames, p.Name)
	}
	return []Role{
		{
			Name:        "SUPER_ADMIN",
			DisplayName: "Super Administrator",
			Description: "Unrestricted access to every shop operation",
			Permissions: allNames,
			IsSystem:    true,
		},
		{
			Name:        "ADMIN",
			DisplayName: "Administrator",
			Description: "Day-to-day shop administration",
			Permissions: []string{
				"users.read", "users.create", "users.update",
				"bookings.read", "bookings.create", "bookings.update", "bookings.delete",
				"devices.read", "devices.create", "devices.update",
				"pricing.read", "pricing.update",
				"analytics.read", "email.send",
			},
			ParentRoles: []string{"SUPER_ADMIN"},
			IsSystem:    true,
		},
		{
			Name:        "MANAGER",
			DisplayName: "Shop Manager",
			Description: "Scheduling and staff oversight",
			Permissions: []string{
				"users.read",
				"bookings.read", "bookings.create", "bookings.update",
				"devices.read", "pricing.read", "analytics.read",
			},
			ParentRoles: []string{"ADMIN"},
			IsSystem:    true,
		},
		{
			Name:        "TECHNICIAN",
			DisplayName: "Repair Technician",
			Description: "Workbench access to assigned repairs",
			Permissions: []string{
				"bookings.read", "bookings.update",
				"devices.read", "pricing.read",
			},
			ParentRoles: []string{"MANAGER"},
			IsSystem:    true,
		},
		{
			Name:        "CUSTOMER",
			DisplayName: "Customer",
			Description: "Self-service booking portal",
			Permissions: []string{
				"bookings.read", "bookings.create", "devices.read",
			},
			IsSystem:    true,
		},
	}
}

// Seed upserts the system roles. It runs at process start and is idempotent;
// system roles are never deleted.
func Seed(ctx context.Context, store Store, catalog *Catalog) error {
	// Parents reference roles seeded in the same pass, so write SUPER_ADMIN
	// first; SystemRoles lists roles in dependency order.
	for _, role := range SystemRoles(catalog) {
		if existing, err := store.GetRole(ctx, role.Name); err == nil {
			role.CreatedAt = existing.CreatedAt
		}
		if _, err := store.PutRole(ctx, role); err != nil {
			return err
		}
	}
	return nil
}
