package rbac

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Permission is a catalog entry naming one allowed operation.
type Permission struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Role is a named bundle of permissions, optionally inheriting from parent roles.
type Role struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	ParentRoles []string  `json:"parent_roles"`
	IsSystem    bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Assignment binds a role to a user.
type Assignment struct {
	ID         uuid.UUID `json:"id"`
	UserID     int64     `json:"user_id"`
	RoleName   string    `json:"role_name"`
	AssignedBy *int64    `json:"assigned_by,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
}

// NormalizeRoleName canonicalizes a role name. Names are upper-case by convention.
func NormalizeRoleName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// NormalizePermission canonicalizes a permission identifier.
func NormalizePermission(perm string) string {
	return strings.ToLower(strings.TrimSpace(perm))
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	ordered := make([]string, 0, len(perms))
	for _, p := range perms {
		p = NormalizePermission(p)
		if p == "" {
			continue
		}
		if _, ok := unique[p]; ok {
			continue
		}
		unique[p] = struct{}{}
		ordered = append(ordered, p)
	}
	return ordered
}

func normalizeRoleNames(names []string) []string {
	unique := make(map[string]struct{}, len(names))
	ordered := make([]string, 0, len(names))
	for _, n := range names {
		n = NormalizeRoleName(n)
		if n == "" {
			continue
		}
		if _, ok := unique[n]; ok {
			continue
		}
		unique[n] = struct{}{}
		ordered = append(ordered, n)
	}
	return ordered
}
