package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Service orchestrates role and assignment lifecycle plus cached permission
// resolution. It holds no mutable state of its own; all state lives in the
// Store and the optional Cache.
type Service struct {
	catalog  *Catalog
	store    Store
	cache    *Cache
	resolver *Resolver
	logger   *slog.Logger
	group    singleflight.Group
}

// NewService constructs a Service. cache may be nil.
func NewService(catalog *Catalog, store Store, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		catalog:  catalog,
		store:    store,
		cache:    cache,
		resolver: NewResolver(store),
		logger:   logger,
	}
}

// Catalog exposes the permission catalog.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// ListPermissions returns the catalog entries for admin presentation.
func (s *Service) ListPermissions() []Permission {
	return s.catalog.List()
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.store.ListRoles(ctx)
}

// GetRole fetches a role by name.
func (s *Service) GetRole(ctx context.Context, name string) (Role, error) {
	return s.store.GetRole(ctx, name)
}

// CreateRoleInput carries the fields for a new custom role.
type CreateRoleInput struct {
	Name        string
	DisplayName string
	Description string
	Permissions []string
	ParentRoles []string
}

// CreateRole creates a custom role. Validation order: every permission must
// exist in the catalog (InvalidPermissionError names all offenders), the name
// must be free (ErrDuplicateRole), every parent must exist (ErrRoleNotFound),
// and the parent links must not introduce a cycle (ErrCyclicInheritance).
func (s *Service) CreateRole(ctx context.Context, in CreateRoleInput) (Role, error) {
	name := NormalizeRoleName(in.Name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	perms := normalizePermissions(in.Permissions)
	if missing := s.catalog.Missing(perms); len(missing) > 0 {
		return Role{}, &InvalidPermissionError{Permissions: missing}
	}
	if _, err := s.store.GetRole(ctx, name); err == nil {
		return Role{}, fmt.Errorf("%w: %s", ErrDuplicateRole, name)
	} else if !errors.Is(err, ErrRoleNotFound) {
		return Role{}, err
	}
	parents := normalizeRoleNames(in.ParentRoles)
	if err := s.validateParents(ctx, name, parents); err != nil {
		return Role{}, err
	}
	role := Role{
		Name:        name,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Description: strings.TrimSpace(in.Description),
		Permissions: perms,
		ParentRoles: parents,
		IsSystem:    false,
	}
	if role.DisplayName == "" {
		role.DisplayName = displayNameFor(name)
	}
	created, err := s.store.PutRole(ctx, role)
	if err != nil {
		return Role{}, err
	}
	if err := s.invalidate(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// UpdateRoleInput patches mutable role fields. Nil fields are left unchanged.
// Name and IsSystem are immutable.
type UpdateRoleInput struct {
	DisplayName *string
	Description *string
	Permissions *[]string
	ParentRoles *[]string
}

// UpdateRole updates an existing role in place.
func (s *Service) UpdateRole(ctx context.Context, name string, in UpdateRoleInput) (Role, error) {
	name = NormalizeRoleName(name)
	role, err := s.store.GetRole(ctx, name)
	if err != nil {
		return Role{}, err
	}
	if in.DisplayName != nil {
		role.DisplayName = strings.TrimSpace(*in.DisplayName)
	}
	if in.Description != nil {
		role.Description = strings.TrimSpace(*in.Description)
	}
	if in.Permissions != nil {
		perms := normalizePermissions(*in.Permissions)
		if missing := s.catalog.Missing(perms); len(missing) > 0 {
			return Role{}, &InvalidPermissionError{Permissions: missing}
		}
		role.Permissions = perms
	}
	if in.ParentRoles != nil {
		parents := normalizeRoleNames(*in.ParentRoles)
		if err := s.validateParents(ctx, name, parents); err != nil {
			return Role{}, err
		}
		role.ParentRoles = parents
	}
	updated, err := s.store.PutRole(ctx, role)
	if err != nil {
		return Role{}, err
	}
	if err := s.invalidate(ctx); err != nil {
		return updated, err
	}
	return updated, nil
}

// DeleteRole removes a custom role along with its assignments. System roles
// are seeded infrastructure and can never be deleted.
func (s *Service) DeleteRole(ctx context.Context, name string) error {
	name = NormalizeRoleName(name)
	role, err := s.store.GetRole(ctx, name)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return fmt.Errorf("%w: %s", ErrSystemRoleImmutable, name)
	}
	if err := s.store.DeleteRole(ctx, name); err != nil {
		return err
	}
	return s.invalidate(ctx)
}

// Assign binds a role to a user. assignedBy is the acting administrator, if known.
func (s *Service) Assign(ctx context.Context, userID int64, roleName string, assignedBy *int64) (Assignment, error) {
	roleName = NormalizeRoleName(roleName)
	if _, err := s.store.GetRole(ctx, roleName); err != nil {
		return Assignment{}, err
	}
	a, err := s.store.CreateAssignment(ctx, userID, roleName, assignedBy)
	if err != nil {
		return Assignment{}, err
	}
	if err := s.invalidate(ctx); err != nil {
		return a, err
	}
	return a, nil
}

// Revoke removes a user's role binding and returns it.
func (s *Service) Revoke(ctx context.Context, userID int64, roleName string) (Assignment, error) {
	roleName = NormalizeRoleName(roleName)
	if _, err := s.store.GetRole(ctx, roleName); err != nil {
		return Assignment{}, err
	}
	a, err := s.store.DeleteAssignment(ctx, userID, roleName)
	if err != nil {
		return Assignment{}, err
	}
	if err := s.invalidate(ctx); err != nil {
		return a, err
	}
	return a, nil
}

// AncestorsOf returns the transitive ancestors of a role.
func (s *Service) AncestorsOf(ctx context.Context, roleName string) ([]string, error) {
	return s.resolver.AncestorsOf(ctx, roleName)
}

// RolePermissions returns the effective permission set of a single role.
func (s *Service) RolePermissions(ctx context.Context, roleName string) ([]string, error) {
	return s.resolver.EffectivePermissionsOfRole(ctx, roleName)
}

// EffectivePermissions returns the user's effective permission set, sorted.
// Cache hits short-circuit; misses resolve against the store with concurrent
// resolutions for the same user collapsed into one.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	perms, ok, err := s.cache.GetUser(ctx, userID)
	if err != nil {
		// The store is the authority; a broken cache degrades to a direct read.
		s.logger.Warn("rbac cache read", slog.Int64("user_id", userID), slog.Any("error", err))
	} else if ok {
		return perms, nil
	}
	v, err, _ := s.group.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		resolved, err := s.resolver.EffectivePermissionsOfUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetUser(ctx, userID, resolved); err != nil {
			s.logger.Warn("rbac cache write", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return resolved, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// invalidate bumps the permission cache synchronously with a mutation. A bump
// failure is surfaced so the caller does not proceed on a stale grant window.
func (s *Service) invalidate(ctx context.Context) error {
	if err := s.cache.Bump(ctx); err != nil {
		return fmt.Errorf("rbac: invalidate cache: %w", err)
	}
	return nil
}

// validateParents checks that every parent exists and that adding the edges
// would not make roleName reachable from itself. The resolver keeps its own
// runtime cycle guard as a backstop.
func (s *Service) validateParents(ctx context.Context, roleName string, parents []string) error {
	for _, parent := range parents {
		if parent == roleName {
			return fmt.Errorf("%w: %s inherits itself", ErrCyclicInheritance, roleName)
		}
		if _, err := s.store.GetRole(ctx, parent); err != nil {
			if errors.Is(err, ErrRoleNotFound) {
				return fmt.Errorf("%w: parent %s", ErrRoleNotFound, parent)
			}
			return err
		}
	}
	reached, err := s.resolver.walk(ctx, parents...)
	if err != nil {
		return err
	}
	if _, ok := reached[roleName]; ok {
		return fmt.Errorf("%w: %s reachable from its parents", ErrCyclicInheritance, roleName)
	}
	return nil
}

func displayNameFor(name string) string {
	words := strings.ReplaceAll(strings.ToLower(name), "_", " ")
	return cases.Title(language.English).String(words)
}
