package rbac

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for roles and
// assignments. Uniqueness of (user_id, role_name) is enforced by a database
// constraint, not by engine-side locking.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// GetRole fetches a role by canonical name.
func (r *Repository) GetRole(ctx context.Context, name string) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT name, display_name, description, permissions, parent_roles, is_system, created_at, updated_at FROM rbac_roles WHERE name = $1`, NormalizeRoleName(name))
	var role Role
	err := row.Scan(&role.Name, &role.DisplayName, &role.Description, &role.Permissions, &role.ParentRoles, &role.IsSystem, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrRoleNotFound
	}
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// ListRoles returns all roles ordered by name.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, display_name, description, permissions, parent_roles, is_system, created_at, updated_at FROM rbac_roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.Name, &role.DisplayName, &role.Description, &role.Permissions, &role.ParentRoles, &role.IsSystem, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// PutRole creates or updates a role definition.
func (r *Repository) PutRole(ctx context.Context, role Role) (Role, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO rbac_roles (name, display_name, description, permissions, parent_roles, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (name) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			description = EXCLUDED.description,
			permissions = EXCLUDED.permissions,
			parent_roles = EXCLUDED.parent_roles,
			updated_at = now()
		RETURNING name, display_name, description, permissions, parent_roles, is_system, created_at, updated_at`,
		NormalizeRoleName(role.Name), role.DisplayName, role.Description, role.Permissions, role.ParentRoles, role.IsSystem)
	var saved Role
	if err := row.Scan(&saved.Name, &saved.DisplayName, &saved.Description, &saved.Permissions, &saved.ParentRoles, &saved.IsSystem, &saved.CreatedAt, &saved.UpdatedAt); err != nil {
		return Role{}, err
	}
	return saved, nil
}

// DeleteRole removes a role; assignments cascade at the constraint level.
func (r *Repository) DeleteRole(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rbac_roles WHERE name = $1`, NormalizeRoleName(name))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// ListRolesOf returns the role names assigned to the user.
func (r *Repository) ListRolesOf(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT role_name FROM rbac_assignments WHERE user_id = $1 ORDER BY role_name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListAssignments returns every binding ordered by user then role.
func (r *Repository) ListAssignments(ctx context.Context) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, role_name, assigned_by, assigned_at FROM rbac_assignments ORDER BY user_id, role_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.RoleName, &a.AssignedBy, &a.AssignedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateAssignment records a binding; the unique constraint maps to
// ErrDuplicateAssignment.
func (r *Repository) CreateAssignment(ctx context.Context, userID int64, roleName string, assignedBy *int64) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO rbac_assignments (id, user_id, role_name, assigned_by, assigned_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, user_id, role_name, assigned_by, assigned_at`,
		uuid.New(), userID, NormalizeRoleName(roleName), assignedBy)
	var a Assignment
	if err := row.Scan(&a.ID, &a.UserID, &a.RoleName, &a.AssignedBy, &a.AssignedAt); err != nil {
		if isUniqueViolation(err) {
			return Assignment{}, ErrDuplicateAssignment
		}
		return Assignment{}, err
	}
	return a, nil
}

// DeleteAssignment removes and returns a binding.
func (r *Repository) DeleteAssignment(ctx context.Context, userID int64, roleName string) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM rbac_assignments WHERE user_id = $1 AND role_name = $2
		RETURNING id, user_id, role_name, assigned_by, assigned_at`,
		userID, NormalizeRoleName(roleName))
	var a Assignment
	if err := row.Scan(&a.ID, &a.UserID, &a.RoleName, &a.AssignedBy, &a.AssignedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, ErrAssignmentNotFound
		}
		return Assignment{}, err
	}
	return a, nil
}
