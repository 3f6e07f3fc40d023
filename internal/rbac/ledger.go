package rbac

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/uniportal/uniportal-rbac/internal/db/models"
)

// AssignRequest grants one or more roles to a user.
type AssignRequest struct {
	UserID     string       `json:"user_id" validate:"required,max=100"`
	RoleIDs    []string     `json:"role_ids" validate:"required,min=1,dive,required"`
	AssignedBy string       `json:"assigned_by" validate:"required,max=100"`
	ExpiresAt  *time.Time   `json:"expires_at,omitempty"`
	Scope      models.Scope `json:"scope,omitempty" validate:"omitempty,dive,keys,required,endkeys,required"`
}

// AssignmentPatch lists the assignment fields to change. Nil fields stay untouched.
type AssignmentPatch struct {
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// ClearExpiry removes the expiry, making the assignment open ended.
	ClearExpiry bool          `json:"clear_expiry,omitempty"`
	Scope       *models.Scope `json:"scope,omitempty" validate:"omitnil,dive,keys,required,endkeys,required"`
	IsActive    *bool         `json:"is_active,omitempty"`
}

func (p AssignmentPatch) onlyDeactivates() bool {
	return p.IsActive != nil && !*p.IsActive && !p.touchesGrant()
}

// touchesGrant reports whether the patch changes what or how long the assignment grants.
func (p AssignmentPatch) touchesGrant() bool {
	return p.ExpiresAt != nil || p.ClearExpiry || p.Scope != nil
}

// AssignmentListOptions narrow assignment listings.
type AssignmentListOptions struct {
	IncludeInactive bool
	// InEffectAt keeps only assignments that are active and unexpired at that instant.
	InEffectAt *time.Time
}

// Ledger owns the role assignment lifecycle.
type Ledger struct {
	*core
}

// AssignRole creates one assignment per role of req.
// Either every assignment is created or none is.
func (l *Ledger) AssignRole(ctx context.Context, req AssignRequest) ([]models.RoleAssignment, error) {
	return l.assign(ctx, []AssignRequest{req}, func(int) string { return "" })
}

// BulkAssignRoles processes several requests as one all-or-nothing batch.
// Any failing request aborts the whole batch.
func (l *Ledger) BulkAssignRoles(ctx context.Context, reqs []AssignRequest) ([]models.RoleAssignment, error) {
	if len(reqs) == 0 {
		verr := &ValidationError{}
		verr.Add("requests", "must contain at least 1 item(s)")

		return nil, verr
	}

	return l.assign(ctx, reqs, func(i int) string { return fmt.Sprintf("requests[%d].", i) })
}

func (l *Ledger) assign(ctx context.Context, reqs []AssignRequest, prefix func(int) string) ([]models.RoleAssignment, error) {
	now := l.clock()
	verr := &ValidationError{}

	for i := range reqs {
		reqs[i].UserID = strings.TrimSpace(reqs[i].UserID)
		reqs[i].AssignedBy = strings.TrimSpace(reqs[i].AssignedBy)
		l.collect(reqs[i], prefix(i), verr)
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	for i, req := range reqs {
		if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
			return nil, fmt.Errorf("%w: %sexpires_at %s is not after %s",
				ErrInvalidExpiry, prefix(i), req.ExpiresAt.UTC().Format(time.RFC3339), now.Format(time.RFC3339))
		}
	}

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	var (
		created []models.RoleAssignment
		users   []string
		audit   *auditTx
	)

	err := l.store.Transaction(ctx, func(tx Store) error {
		// every request of the batch shares one audit transaction
		audit = newAuditTx(tx, reqs[0].AssignedBy, now)
		roles := map[string]*models.Role{}

		for _, req := range reqs {
			for _, roleID := range dedupe(req.RoleIDs) {
				role, ok := roles[roleID]
				if !ok {
					var err error

					role, err = tx.GetRole(ctx, roleID)
					if err != nil {
						return fmt.Errorf("%w: %s", err, roleID)
					}

					roles[roleID] = role
				}

				if !role.IsActive {
					return fmt.Errorf("%w: %s", ErrRoleInactive, role.Name)
				}

				a := models.RoleAssignment{
					ID:         newID(),
					UserID:     req.UserID,
					RoleID:     roleID,
					AssignedBy: req.AssignedBy,
					AssignedAt: now,
					ExpiresAt:  utcPtr(req.ExpiresAt),
					Scope:      req.Scope,
					IsActive:   true,
					UpdatedAt:  now,
				}

				if err := tx.CreateAssignment(ctx, &a); err != nil {
					return err
				}

				audit.actor = req.AssignedBy
				if err := audit.record(ctx, models.AuditAssignmentCreate, models.AuditTargetAssignment, a.ID, nil, a); err != nil {
					return err
				}

				created = append(created, a)
			}

			users = append(users, req.UserID)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.committed()
	l.cache.InvalidateUser(users...)

	for _, a := range created {
		log.Info().Str("assignment_id", a.ID).Str("user_id", a.UserID).Str("role_id", a.RoleID).
			Str("assigned_by", a.AssignedBy).Str("scope", a.Scope.String()).Msg("role assigned")
	}

	return created, nil
}

// UpdateAssignment changes expiry, scope or the active flag of an assignment.
// Deactivation and expiry are terminal: a deactivated assignment accepts no
// further change and an expired one can only be deactivated.
func (l *Ledger) UpdateAssignment(ctx context.Context, actor, id string, patch AssignmentPatch) (*models.RoleAssignment, error) {
	verr := &ValidationError{}
	l.collect(patch, "", verr)

	if patch.ClearExpiry && patch.ExpiresAt != nil {
		verr.Add("expires_at", "cannot be set together with clear_expiry")
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	now := l.clock()

	var (
		a     *models.RoleAssignment
		audit *auditTx
	)

	err := l.store.Transaction(ctx, func(tx Store) error {
		var err error

		a, err = tx.GetAssignment(ctx, id)
		if err != nil {
			return err
		}

		if !a.IsActive {
			if patch.onlyDeactivates() {
				return nil // already removed
			}

			verr.Add("is_active", "assignment is deactivated; create a new assignment instead")

			return verr
		}

		if a.Expired(now) && patch.touchesGrant() {
			verr.Add("expires_at", "assignment has expired; create a new assignment instead")

			return verr
		}

		before := *a
		changed := false

		if patch.ExpiresAt != nil {
			exp := patch.ExpiresAt.UTC()
			if !exp.After(a.AssignedAt) || !exp.After(now) {
				return fmt.Errorf("%w: expires_at %s", ErrInvalidExpiry, exp.Format(time.RFC3339))
			}

			if a.ExpiresAt == nil || !a.ExpiresAt.Equal(exp) {
				a.ExpiresAt = &exp
				changed = true
			}
		}

		if patch.ClearExpiry && a.ExpiresAt != nil {
			a.ExpiresAt = nil
			changed = true
		}

		if patch.Scope != nil && !patch.Scope.Equal(a.Scope) {
			a.Scope = *patch.Scope
			changed = true
		}

		action := models.AuditAssignmentUpdate

		if patch.IsActive != nil && !*patch.IsActive {
			a.IsActive = false
			action = models.AuditAssignmentDeactivate
			changed = true
		}

		if !changed {
			return nil
		}

		a.UpdatedAt = now
		if err = tx.UpdateAssignment(ctx, a); err != nil {
			return err
		}

		audit = newAuditTx(tx, actor, now)

		return audit.record(ctx, action, models.AuditTargetAssignment, a.ID, before, a)
	})
	if err != nil {
		return nil, err
	}

	if audit != nil {
		audit.committed()
		l.cache.InvalidateUser(a.UserID)
		log.Info().Str("assignment_id", a.ID).Str("user_id", a.UserID).Str("state", string(a.State(now))).
			Str("actor", actor).Msg("assignment updated")
	}

	return a, nil
}

// RemoveAssignment deactivates an assignment. The record is kept for audits.
// Removing an already deactivated assignment is a no-op.
func (l *Ledger) RemoveAssignment(ctx context.Context, actor, id string) (*models.RoleAssignment, error) {
	inactive := false

	return l.UpdateAssignment(ctx, actor, id, AssignmentPatch{IsActive: &inactive})
}

// ListAssignmentsForUser returns the assignments of a user, oldest first.
func (l *Ledger) ListAssignmentsForUser(ctx context.Context, userID string, opts AssignmentListOptions) ([]models.RoleAssignment, error) {
	return l.list(ctx, AssignmentFilter{UserID: userID, IncludeInactive: opts.IncludeInactive}, opts)
}

// ListAssignmentsForRole returns the assignments of a role, oldest first.
func (l *Ledger) ListAssignmentsForRole(ctx context.Context, roleID string, opts AssignmentListOptions) ([]models.RoleAssignment, error) {
	return l.list(ctx, AssignmentFilter{RoleID: roleID, IncludeInactive: opts.IncludeInactive}, opts)
}

// GetAssignment returns one assignment or ErrAssignmentNotFound.
func (l *Ledger) GetAssignment(ctx context.Context, id string) (*models.RoleAssignment, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	return l.store.GetAssignment(ctx, id)
}

func (l *Ledger) list(ctx context.Context, filter AssignmentFilter, opts AssignmentListOptions) ([]models.RoleAssignment, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	assignments, err := l.store.ListAssignments(ctx, filter)
	if err != nil {
		return nil, err
	}

	if opts.InEffectAt == nil {
		return assignments, nil
	}

	out := assignments[:0]

	for _, a := range assignments {
		if a.InEffect(*opts.InEffectAt) {
			out = append(out, a)
		}
	}

	return out, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	u := t.UTC()

	return &u
}
