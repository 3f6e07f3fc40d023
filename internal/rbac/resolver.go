package rbac

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/uniportal/uniportal-rbac/internal/db/models"
)

// Grant is one (role, assignment) pair contributing to a resolution.
type Grant struct {
	Role       models.Role           `json:"role"`
	Assignment models.RoleAssignment `json:"assignment"`
}

// Resolution is the effective permission set of a user at one instant,
// together with the grants that explain it. It is never persisted.
type Resolution struct {
	UserID      string    `json:"user_id"`
	At          time.Time `json:"at"`
	Permissions []string  `json:"permissions"`
	Grants      []Grant   `json:"grants"`

	set map[string][]int
}

func newResolution(userID string, at time.Time, grants []Grant) *Resolution {
	res := &Resolution{
		UserID:      userID,
		At:          at,
		Permissions: []string{},
		Grants:      grants,
		set:         map[string][]int{},
	}

	// permissions carry no weight and there is no deny, so the union decides
	for i, g := range grants {
		for _, p := range g.Role.PermissionIDs() {
			if _, ok := res.set[p]; !ok {
				res.Permissions = append(res.Permissions, p)
			}

			res.set[p] = append(res.set[p], i)
		}
	}

	sort.Strings(res.Permissions)

	return res
}

// Has reports whether the permission is in the effective set.
func (r *Resolution) Has(permissionID string) bool {
	_, ok := r.set[permissionID]
	return ok
}

// GrantsFor returns the grants contributing permissionID.
func (r *Resolution) GrantsFor(permissionID string) []Grant {
	idx := r.set[permissionID]
	out := make([]Grant, 0, len(idx))

	for _, i := range idx {
		out = append(out, r.Grants[i])
	}

	return out
}

// Empty reports whether the user holds no permission at all.
func (r *Resolution) Empty() bool {
	return len(r.Permissions) == 0
}

// ValidUntil returns the earliest expiry among the grants, nil if none expires.
// Past that instant the resolution no longer describes the user.
func (r *Resolution) ValidUntil() *time.Time {
	var earliest *time.Time

	for _, g := range r.Grants {
		exp := g.Assignment.ExpiresAt
		if exp != nil && (earliest == nil || exp.Before(*earliest)) {
			earliest = exp
		}
	}

	return earliest
}

// Resolver computes effective permission sets. It never mutates anything.
type Resolver struct {
	*core
}

// Resolve computes the effective permission set of userID at instant at from
// the current state of the registry and ledger. Expiry is evaluated against at.
// Store failures are reported as ErrResolutionUnavailable.
func (r *Resolver) Resolve(ctx context.Context, userID string, at time.Time) (*Resolution, error) {
	start := time.Now()
	defer func() { resolutionSeconds.WithLabelValues(modeCurrent).Observe(time.Since(start).Seconds()) }()

	at = at.UTC()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var grants []Grant

	// one snapshot gives a consistent view of assignments and roles
	err := r.store.Snapshot(ctx, func(tx Store) error {
		assignments, err := tx.ListAssignments(ctx, AssignmentFilter{UserID: userID})
		if err != nil {
			return err
		}

		roles := map[string]*models.Role{}

		for _, a := range assignments {
			if !a.InEffect(at) {
				continue
			}

			role, err := lookupRole(ctx, tx, roles, a.RoleID)
			if err != nil {
				return err
			}

			if role == nil || !role.IsActive {
				continue
			}

			grants = append(grants, Grant{Role: *role, Assignment: a})
		}

		return nil
	})
	if err != nil {
		return nil, &UnavailableError{UserID: userID, Err: err}
	}

	return newResolution(userID, at, collapse(grants)), nil
}

// ResolveNow resolves userID at the current instant, serving from the cache
// when a still valid resolution is available.
func (r *Resolver) ResolveNow(ctx context.Context, userID string) (*Resolution, error) {
	now := r.clock()

	if res, ok := r.cache.get(userID, now); ok {
		return res, nil
	}

	gen := r.cache.Generation()

	res, err := r.Resolve(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	r.cache.put(userID, res, gen)

	return res, nil
}

// ResolveHistorical answers which permissions userID held at a past instant.
// Role and assignment states are replayed from the audit log snapshots, so
// later edits, deactivations and deletions do not leak into the answer.
// Records without audit history fall back to their current state.
func (r *Resolver) ResolveHistorical(ctx context.Context, userID string, at time.Time) (*Resolution, error) {
	start := time.Now()
	defer func() { resolutionSeconds.WithLabelValues(modeHistorical).Observe(time.Since(start).Seconds()) }()

	at = at.UTC()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var grants []Grant

	err := r.store.Snapshot(ctx, func(tx Store) error {
		assignments, err := tx.ListAssignments(ctx, AssignmentFilter{UserID: userID, IncludeInactive: true})
		if err != nil {
			return err
		}

		roles := map[string]*models.Role{}

		for _, current := range assignments {
			if current.AssignedAt.After(at) {
				continue
			}

			var a models.RoleAssignment

			found, deleted, err := stateAt(ctx, tx, models.AuditTargetAssignment, current.ID, at, &a)
			if err != nil {
				return err
			}

			if !found {
				a = current
			}

			if deleted || !a.InEffect(at) {
				continue
			}

			role, ok := roles[a.RoleID]
			if !ok {
				role, err = roleAt(ctx, tx, a.RoleID, at)
				if err != nil {
					return err
				}

				roles[a.RoleID] = role
			}

			if role == nil || !role.IsActive {
				continue
			}

			grants = append(grants, Grant{Role: *role, Assignment: a})
		}

		return nil
	})
	if err != nil {
		return nil, &UnavailableError{UserID: userID, Err: err}
	}

	return newResolution(userID, at, collapse(grants)), nil
}

func lookupRole(ctx context.Context, tx Store, seen map[string]*models.Role, id string) (*models.Role, error) {
	if role, ok := seen[id]; ok {
		return role, nil
	}

	role, err := tx.GetRole(ctx, id)
	if errors.Is(err, ErrRoleNotFound) {
		log.Warn().Str("role_id", id).Msg("assignment references a missing role, ignoring it")

		role, err = nil, nil
	}

	if err != nil {
		return nil, err
	}

	seen[id] = role

	return role, nil
}

func roleAt(ctx context.Context, tx Store, id string, at time.Time) (*models.Role, error) {
	var role models.Role

	found, deleted, err := stateAt(ctx, tx, models.AuditTargetRole, id, at, &role)
	if err != nil {
		return nil, err
	}

	if deleted {
		return nil, nil
	}

	if found {
		return &role, nil
	}

	current, err := tx.GetRole(ctx, id)
	if errors.Is(err, ErrRoleNotFound) {
		return nil, nil
	}

	return current, err
}

// collapse removes duplicate grants of the same role and scope, keeping the
// one that lasts longest, and orders the result deterministically.
func collapse(grants []Grant) []Grant {
	best := map[string]int{}
	out := make([]Grant, 0, len(grants))

	for _, g := range grants {
		key := g.Role.ID + "|" + g.Assignment.Scope.String()

		i, ok := best[key]
		if !ok {
			best[key] = len(out)
			out = append(out, g)

			continue
		}

		if outlasts(g.Assignment, out[i].Assignment) {
			out[i] = g
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]

		switch {
		case a.Role.Name != b.Role.Name:
			return a.Role.Name < b.Role.Name
		case a.Assignment.Scope.String() != b.Assignment.Scope.String():
			return a.Assignment.Scope.String() < b.Assignment.Scope.String()
		default:
			return a.Assignment.ID < b.Assignment.ID
		}
	})

	return out
}

// outlasts reports whether a stays in effect longer than b.
func outlasts(a, b models.RoleAssignment) bool {
	switch {
	case a.ExpiresAt == nil && b.ExpiresAt == nil:
		return a.AssignedAt.Before(b.AssignedAt)
	case a.ExpiresAt == nil:
		return true
	case b.ExpiresAt == nil:
		return false
	default:
		return a.ExpiresAt.After(*b.ExpiresAt)
	}
}
