package rbac

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Resolver walks the role-inheritance graph and computes effective permission
// sets. It is a pure reader of Store state and safe for concurrent use.
type Resolver struct {
	store Store
}

// NewResolver constructs a Resolver backed by the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// walk returns every role reachable from the given names over parent edges,
// the start roles included. Each node is expanded exactly once: its role is
// fetched and all its parent edges pushed before it enters the expanded set,
// so reconverging paths cannot cause an ancestor to be skipped and cycles
// cannot cause re-descent. Terminates in O(V+E) over the role graph.
// Parent names that do not resolve are dead edges and contribute nothing;
// role writes validate parents so this only happens on out-of-band deletes.
func (r *Resolver) walk(ctx context.Context, names ...string) (map[string]Role, error) {
	expanded := make(map[string]Role)
	stack := make([]string, 0, len(names))
	for _, n := range names {
		stack = append(stack, NormalizeRoleName(n))
	}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := expanded[name]; ok {
			continue
		}
		role, err := r.store.GetRole(ctx, name)
		if errors.Is(err, ErrRoleNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("rbac: resolve %s: %w", name, err)
		}
		expanded[name] = role
		for _, parent := range role.ParentRoles {
			stack = append(stack, NormalizeRoleName(parent))
		}
	}
	return expanded, nil
}

// AncestorsOf returns the transitive set of ancestor role names, sorted.
// The role itself is never part of the result, even when the graph cycles
// back to it. Returns ErrRoleNotFound when the role does not exist.
func (r *Resolver) AncestorsOf(ctx context.Context, roleName string) ([]string, error) {
	roleName = NormalizeRoleName(roleName)
	role, err := r.store.GetRole(ctx, roleName)
	if err != nil {
		return nil, err
	}
	reached, err := r.walk(ctx, role.ParentRoles...)
	if err != nil {
		return nil, err
	}
	ancestors := make([]string, 0, len(reached))
	for name := range reached {
		if name == roleName {
			continue
		}
		ancestors = append(ancestors, name)
	}
	sort.Strings(ancestors)
	return ancestors, nil
}

// EffectivePermissionsOfRole unions the role's own permissions with those of
// every ancestor. Returns ErrRoleNotFound when the role does not exist.
func (r *Resolver) EffectivePermissionsOfRole(ctx context.Context, roleName string) ([]string, error) {
	roleName = NormalizeRoleName(roleName)
	if _, err := r.store.GetRole(ctx, roleName); err != nil {
		return nil, err
	}
	reached, err := r.walk(ctx, roleName)
	if err != nil {
		return nil, err
	}
	return unionPermissions(reached), nil
}

// EffectivePermissionsOfUser unions the effective permission sets of every
// role assigned to the user. Assigned roles that no longer resolve are
// skipped; the assignment audit job reports them.
func (r *Resolver) EffectivePermissionsOfUser(ctx context.Context, userID int64) ([]string, error) {
	assigned, err := r.store.ListRolesOf(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: list roles of user %d: %w", userID, err)
	}
	reached, err := r.walk(ctx, assigned...)
	if err != nil {
		return nil, err
	}
	return unionPermissions(reached), nil
}

func unionPermissions(roles map[string]Role) []string {
	set := make(map[string]struct{})
	for _, role := range roles {
		for _, p := range role.Permissions {
			set[NormalizePermission(p)] = struct{}{}
		}
	}
	perms := make([]string, 0, len(set))
	for p := range set {
		perms = append(perms, p)
	}
	sort.Strings(perms)
	return perms
}
