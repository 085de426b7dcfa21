package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/fixflow/fixflow/internal/platform/httpx"
	"github.com/fixflow/fixflow/internal/shared"
)

// Handler exposes the administrative surface: the permission catalog, role
// management, and the assignment lifecycle.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    Middleware
	validate *validator.Validate

	// Warm, when set, schedules a permission cache refresh for the given
	// users after an assignment mutation. Best effort; the synchronous
	// cache bump already happened.
	Warm func(ctx context.Context, userIDs ...int64)
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		guard:    guard,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers the RBAC admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/permissions", h.listPermissions)
	r.Get("/roles", h.listRoles)
	r.Get("/roles/{name}", h.getRole)
	r.Get("/roles/{name}/permissions", h.rolePermissions)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny("system.admin"))
		r.Use(httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(principalKey)))
		r.Post("/roles", h.createRole)
		r.Put("/roles/{name}", h.updateRole)
		r.Delete("/roles/{name}", h.deleteRole)
		r.Get("/users/{userID}/permissions", h.userPermissions)
		r.Post("/users/{userID}/roles", h.assignRole)
		r.Delete("/users/{userID}/roles/{name}", h.revokeRole)
	})
}

func principalKey(r *http.Request) (string, error) {
	if p := shared.PrincipalFromContext(r.Context()); p != nil {
		return strconv.FormatInt(p.UserID, 10), nil
	}
	return r.RemoteAddr, nil
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": h.service.ListPermissions()})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.GetRole(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) rolePermissions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	perms, err := h.service.RolePermissions(r.Context(), name)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": NormalizeRoleName(name), "permissions": perms})
}

type createRoleRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=64"`
	DisplayName string   `json:"display_name" validate:"max=128"`
	Description string   `json:"description" validate:"max=512"`
	Permissions []string `json:"permissions" validate:"dive,required"`
	ParentRoles []string `json:"parent_roles" validate:"dive,required"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.CreateRole(r.Context(), CreateRoleInput{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Permissions: req.Permissions,
		ParentRoles: req.ParentRoles,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

type updateRoleRequest struct {
	DisplayName *string   `json:"display_name" validate:"omitempty,max=128"`
	Description *string   `json:"description" validate:"omitempty,max=512"`
	Permissions *[]string `json:"permissions" validate:"omitempty,dive,required"`
	ParentRoles *[]string `json:"parent_roles" validate:"omitempty,dive,required"`
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.UpdateRole(r.Context(), chi.URLParam(r, "name"), UpdateRoleInput{
		DisplayName: req.DisplayName,
		Description: req.Description,
		Permissions: req.Permissions,
		ParentRoles: req.ParentRoles,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRole(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) userPermissions(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "user id must be numeric")
		return
	}
	perms, err := h.service.EffectivePermissions(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user_id": userID, "permissions": perms})
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required,min=2,max=64"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "user id must be numeric")
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var assignedBy *int64
	if p := shared.PrincipalFromContext(r.Context()); p != nil {
		assignedBy = &p.UserID
	}
	assignment, err := h.service.Assign(r.Context(), userID, req.Role, assignedBy)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if h.Warm != nil {
		h.Warm(r.Context(), userID)
	}
	httpx.JSON(w, http.StatusCreated, assignment)
}

func (h *Handler) revokeRole(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "user id must be numeric")
		return
	}
	assignment, err := h.service.Revoke(r.Context(), userID, chi.URLParam(r, "name"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if h.Warm != nil {
		h.Warm(r.Context(), userID)
	}
	httpx.JSON(w, http.StatusOK, assignment)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var invalid *InvalidPermissionError
	switch {
	case errors.As(err, &invalid):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Permissions", invalid.Error())
	case errors.Is(err, ErrRoleNotFound), errors.Is(err, ErrAssignmentNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicateRole), errors.Is(err, ErrDuplicateAssignment):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrCyclicInheritance):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Cyclic Inheritance", err.Error())
	case errors.Is(err, ErrSystemRoleImmutable):
		httpx.Problem(w, http.StatusForbidden, "System Role", err.Error())
	case errors.Is(err, ErrCheckFailed):
		httpx.Problem(w, http.StatusServiceUnavailable, "Authorization Unavailable", "")
	default:
		if h.logger != nil {
			h.logger.Error("rbac handler", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
