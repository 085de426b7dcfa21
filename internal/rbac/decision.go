package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Reason explains a decision outcome.
type Reason string

const (
	// ReasonAllowed marks a granted check.
	ReasonAllowed Reason = "allowed"
	// ReasonMissingPermission marks a policy denial.
	ReasonMissingPermission Reason = "missing_permission"
	// ReasonCheckFailed marks a denial caused by an infrastructure failure.
	// The caller can distinguish "denied by policy" from "authz unavailable".
	ReasonCheckFailed Reason = "check_failed"
)

// Decision is the result of an authorization query.
type Decision struct {
	Allowed bool
	Reason  Reason
	Err     error
}

// CombineMode selects how multiple required permissions combine.
type CombineMode string

const (
	// CombineAny grants when at least one required permission is held.
	CombineAny CombineMode = "any"
	// CombineAll grants only when every required permission is held.
	CombineAll CombineMode = "all"
)

// Guard is a reusable authorization check produced by Require.
type Guard func(ctx context.Context, userID int64) Decision

// DecisionMetrics records decision outcomes. Implemented by observability.Metrics.
type DecisionMetrics interface {
	ObserveDecision(allowed bool, reason string)
}

// DecisionPoint answers "may this user do X" queries. Every internal failure
// maps to a denial, never to a silent allow.
type DecisionPoint struct {
	service *Service
	logger  *slog.Logger
	metrics DecisionMetrics
}

// NewDecisionPoint constructs a DecisionPoint. metrics may be nil.
func NewDecisionPoint(service *Service, logger *slog.Logger, metrics DecisionMetrics) *DecisionPoint {
	if logger == nil {
		logger = slog.Default()
	}
	return &DecisionPoint{service: service, logger: logger, metrics: metrics}
}

// HasPermission reports whether the user's effective set contains perm.
// On resolution failure it returns false and an error wrapping ErrCheckFailed.
func (d *DecisionPoint) HasPermission(ctx context.Context, userID int64, perm string) (bool, error) {
	return d.HasAnyPermission(ctx, userID, []string{perm})
}

// HasAnyPermission reports whether the user's effective set intersects perms.
// An empty requirement is never satisfied.
func (d *DecisionPoint) HasAnyPermission(ctx context.Context, userID int64, perms []string) (bool, error) {
	required := normalizePermissions(perms)
	if len(required) == 0 {
		return false, nil
	}
	granted, err := d.grantedSet(ctx, userID, required)
	if err != nil {
		return false, err
	}
	for _, p := range required {
		if _, ok := granted[p]; ok {
			return true, nil
		}
	}
	return false, nil
}

// HasAllPermissions reports whether the user's effective set is a superset of
// perms. An empty requirement is vacuously true.
func (d *DecisionPoint) HasAllPermissions(ctx context.Context, userID int64, perms []string) (bool, error) {
	required := normalizePermissions(perms)
	if len(required) == 0 {
		return true, nil
	}
	granted, err := d.grantedSet(ctx, userID, required)
	if err != nil {
		return false, err
	}
	for _, p := range required {
		if _, ok := granted[p]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// Check evaluates the required permissions under the given mode and returns a
// full Decision, failing closed on resolution errors.
func (d *DecisionPoint) Check(ctx context.Context, userID int64, mode CombineMode, perms ...string) Decision {
	var (
		allowed bool
		err     error
	)
	switch mode {
	case CombineAll:
		allowed, err = d.HasAllPermissions(ctx, userID, perms)
	default:
		allowed, err = d.HasAnyPermission(ctx, userID, perms)
	}
	decision := Decision{Allowed: allowed, Reason: ReasonAllowed}
	if err != nil {
		decision = Decision{Allowed: false, Reason: ReasonCheckFailed, Err: err}
	} else if !allowed {
		decision.Reason = ReasonMissingPermission
	}
	if d.metrics != nil {
		d.metrics.ObserveDecision(decision.Allowed, string(decision.Reason))
	}
	return decision
}

// Require builds a reusable guard for the given permissions and mode.
func (d *DecisionPoint) Require(mode CombineMode, perms ...string) Guard {
	return func(ctx context.Context, userID int64) Decision {
		return d.Check(ctx, userID, mode, perms...)
	}
}

func (d *DecisionPoint) grantedSet(ctx context.Context, userID int64, required []string) (map[string]struct{}, error) {
	perms, err := d.service.EffectivePermissions(ctx, userID)
	if err != nil {
		d.logger.Error("rbac permission check",
			slog.Int64("user_id", userID),
			slog.String("permissions", strings.Join(required, ",")),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrCheckFailed, err)
	}
	granted := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		granted[p] = struct{}{}
	}
	return granted, nil
}
