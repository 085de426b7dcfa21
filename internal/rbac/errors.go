package rbac

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRoleNotFound indicates a referenced role name does not exist in the store.
	ErrRoleNotFound = errors.New("rbac: role not found")
	// ErrDuplicateRole indicates a create would reuse an existing role name.
	ErrDuplicateRole = errors.New("rbac: duplicate role")
	// ErrDuplicateAssignment indicates the (user, role) binding already exists.
	ErrDuplicateAssignment = errors.New("rbac: duplicate assignment")
	// ErrAssignmentNotFound indicates a revoke targeted a binding that does not exist.
	ErrAssignmentNotFound = errors.New("rbac: assignment not found")
	// ErrCyclicInheritance indicates a role write would introduce an inheritance cycle.
	ErrCyclicInheritance = errors.New("rbac: cyclic inheritance")
	// ErrSystemRoleImmutable indicates an attempt to rename or delete a system role.
	ErrSystemRoleImmutable = errors.New("rbac: system role is immutable")
	// ErrCheckFailed indicates the store or cache failed while resolving permissions.
	// The decision point maps it to denial, never to a silent allow.
	ErrCheckFailed = errors.New("rbac: permission check failed")
)

// InvalidPermissionError reports every requested permission identifier that is
// not present in the catalog.
type InvalidPermissionError struct {
	Permissions []string
}

func (e *InvalidPermissionError) Error() string {
	return fmt.Sprintf("rbac: invalid permissions: %s", strings.Join(e.Permissions, ", "))
}
