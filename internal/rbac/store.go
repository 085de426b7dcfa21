package rbac

import "context"

// Store persists role definitions and role assignments. Implementations must
// make assignment creation and removal atomic so that concurrent resolutions
// never observe a partial write, and must enforce (user, role) uniqueness.
type Store interface {
	// GetRole returns the role by canonical name, or ErrRoleNotFound.
	GetRole(ctx context.Context, name string) (Role, error)
	// ListRoles returns all roles ordered by name.
	ListRoles(ctx context.Context) ([]Role, error)
	// PutRole creates or updates a role definition.
	PutRole(ctx context.Context, role Role) (Role, error)
	// DeleteRole removes a role and its assignments, or ErrRoleNotFound.
	DeleteRole(ctx context.Context, name string) error
	// ListRolesOf returns the names of roles currently assigned to the user.
	ListRolesOf(ctx context.Context, userID int64) ([]string, error)
	// ListAssignments returns every binding, ordered by user then role.
	ListAssignments(ctx context.Context) ([]Assignment, error)
	// CreateAssignment records a binding, or ErrDuplicateAssignment if it exists.
	CreateAssignment(ctx context.Context, userID int64, roleName string, assignedBy *int64) (Assignment, error)
	// DeleteAssignment removes and returns a binding, or ErrAssignmentNotFound.
	DeleteAssignment(ctx context.Context, userID int64, roleName string) (Assignment, error)
}
