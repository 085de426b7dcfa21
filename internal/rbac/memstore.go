package rbac

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and single-node setups.
type MemoryStore struct {
	mu          sync.RWMutex
	roles       map[string]Role
	assignments map[string]Assignment
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		roles:       make(map[string]Role),
		assignments: make(map[string]Assignment),
	}
}

func assignmentKey(userID int64, roleName string) string {
	return fmt.Sprintf("%d:%s", userID, roleName)
}

// GetRole returns the role by canonical name.
func (s *MemoryStore) GetRole(ctx context.Context, name string) (Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[NormalizeRoleName(name)]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return cloneRole(role), nil
}

// ListRoles returns all roles ordered by name.
func (s *MemoryStore) ListRoles(ctx context.Context) ([]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roles := make([]Role, 0, len(s.roles))
	for _, role := range s.roles {
		roles = append(roles, cloneRole(role))
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

// PutRole creates or updates a role definition.
func (s *MemoryStore) PutRole(ctx context.Context, role Role) (Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role.Name = NormalizeRoleName(role.Name)
	now := time.Now().UTC()
	if existing, ok := s.roles[role.Name]; ok {
		role.CreatedAt = existing.CreatedAt
	} else {
		role.CreatedAt = now
	}
	role.UpdatedAt = now
	s.roles[role.Name] = cloneRole(role)
	return cloneRole(role), nil
}

// DeleteRole removes a role and every assignment bound to it.
func (s *MemoryStore) DeleteRole(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = NormalizeRoleName(name)
	if _, ok := s.roles[name]; !ok {
		return ErrRoleNotFound
	}
	delete(s.roles, name)
	for key, a := range s.assignments {
		if a.RoleName == name {
			delete(s.assignments, key)
		}
	}
	return nil
}

// ListRolesOf returns the role names assigned to the user, ordered by name.
func (s *MemoryStore) ListRolesOf(ctx context.Context, userID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for _, a := range s.assignments {
		if a.UserID == userID {
			names = append(names, a.RoleName)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListAssignments returns every binding ordered by user then role.
func (s *MemoryStore) ListAssignments(ctx context.Context) ([]Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].RoleName < out[j].RoleName
	})
	return out, nil
}

// CreateAssignment records a binding, enforcing (user, role) uniqueness.
func (s *MemoryStore) CreateAssignment(ctx context.Context, userID int64, roleName string, assignedBy *int64) (Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roleName = NormalizeRoleName(roleName)
	key := assignmentKey(userID, roleName)
	if _, ok := s.assignments[key]; ok {
		return Assignment{}, ErrDuplicateAssignment
	}
	a := Assignment{
		ID:         uuid.New(),
		UserID:     userID,
		RoleName:   roleName,
		AssignedBy: assignedBy,
		AssignedAt: time.Now().UTC(),
	}
	s.assignments[key] = a
	return a, nil
}

// DeleteAssignment removes and returns a binding.
func (s *MemoryStore) DeleteAssignment(ctx context.Context, userID int64, roleName string) (Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := assignmentKey(userID, NormalizeRoleName(roleName))
	a, ok := s.assignments[key]
	if !ok {
		return Assignment{}, ErrAssignmentNotFound
	}
	delete(s.assignments, key)
	return a, nil
}

func cloneRole(role Role) Role {
	out := role
	out.Permissions = append([]string(nil), role.Permissions...)
	out.ParentRoles = append([]string(nil), role.ParentRoles...)
	return out
}
