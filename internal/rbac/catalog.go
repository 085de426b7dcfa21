package rbac

import "sort"

// Catalog is the read-only registry of valid permission identifiers.
// It validates identifiers without interpreting them.
type Catalog struct {
	entries map[string]string
}

// NewCatalog builds a catalog from identifier → description pairs.
func NewCatalog(entries map[string]string) *Catalog {
	normalized := make(map[string]string, len(entries))
	for name, desc := range entries {
		normalized[NormalizePermission(name)] = desc
	}
	return &Catalog{entries: normalized}
}

// DefaultCatalog returns the permission set the FixFlow application defines.
func DefaultCatalog() *Catalog {
	return NewCatalog(map[string]string{
		"users.read":       "View customer and staff accounts",
		"users.create":     "Create customer and staff accounts",
		"users.update":     "Edit customer and staff accounts",
		"users.delete":     "Deactivate customer and staff accounts",
		"bookings.read":    "View repair bookings",
		"bookings.create":  "Create repair bookings",
		"bookings.update":  "Reschedule or edit repair bookings",
		"bookings.delete":  "Cancel repair bookings",
		"devices.read":     "View the device inventory",
		"devices.create":   "Register devices in inventory",
		"devices.update":   "Edit device inventory records",
		"devices.delete":   "Remove devices from inventory",
		"pricing.read":     "View repair pricing",
		"pricing.update":   "Edit repair pricing",
		"analytics.read":   "View shop analytics dashboards",
		"analytics.export": "Export analytics reports",
		"system.admin":     "Administer roles and assignments",
		"system.settings":  "Edit shop-wide settings",
		"email.send":       "Send customer emails",
		"email.templates":  "Edit email templates",
	})
}

// Exists reports whether the identifier is registered.
func (c *Catalog) Exists(perm string) bool {
	_, ok := c.entries[NormalizePermission(perm)]
	return ok
}

// Describe returns the human-readable description for an identifier.
func (c *Catalog) Describe(perm string) (string, bool) {
	desc, ok := c.entries[NormalizePermission(perm)]
	return desc, ok
}

// List returns every registered permission ordered by name.
func (c *Catalog) List() []Permission {
	perms := make([]Permission, 0, len(c.entries))
	for name, desc := range c.entries {
		perms = append(perms, Permission{Name: name, Description: desc})
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].Name < perms[j].Name })
	return perms
}

// Missing returns the subset of perms absent from the catalog, preserving order.
func (c *Catalog) Missing(perms []string) []string {
	var missing []string
	for _, p := range perms {
		if !c.Exists(p) {
			missing = append(missing, NormalizePermission(p))
		}
	}
	return missing
}
