package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/uniportal/uniportal-rbac/internal/db/models"
)

// PermissionSpec describes a permission to create.
type PermissionSpec struct {
	ID          string          `json:"id" validate:"required,max=100,permid"`
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=255"`
	Category    models.Category `json:"category" validate:"required,category"`
}

func (s *PermissionSpec) normalize() {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	s.Description = strings.TrimSpace(s.Description)
}

// PermissionPatch lists the permission fields to change. Nil fields stay untouched.
type PermissionPatch struct {
	Name        *string          `json:"name,omitempty" validate:"omitnil,min=1,max=100"`
	Description *string          `json:"description,omitempty" validate:"omitnil,max=255"`
	Category    *models.Category `json:"category,omitempty" validate:"omitnil,category"`
}

// Catalog owns the universe of permissions.
type Catalog struct {
	*core
}

// ListPermissions returns the permissions matching filter ordered by id.
func (c *Catalog) ListPermissions(ctx context.Context, filter PermissionFilter) ([]models.Permission, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	filter.Search = strings.TrimSpace(filter.Search)

	return c.store.ListPermissions(ctx, filter)
}

// GetPermission returns one permission or ErrPermissionNotFound.
func (c *Catalog) GetPermission(ctx context.Context, id string) (*models.Permission, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	return c.store.GetPermission(ctx, id)
}

// CreatePermission adds a permission to the catalog.
func (c *Catalog) CreatePermission(ctx context.Context, actor string, spec PermissionSpec) (*models.Permission, error) {
	spec.normalize()

	verr := &ValidationError{}
	c.collect(spec, "", verr)

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var (
		perm  *models.Permission
		audit *auditTx
	)

	err := c.store.Transaction(ctx, func(tx Store) error {
		var err error

		audit = newAuditTx(tx, actor, c.clock())
		perm, err = createPermission(ctx, tx, audit, spec)

		return err
	})
	if err != nil {
		return nil, err
	}

	audit.committed()
	log.Info().Str("permission", perm.ID).Str("actor", actor).Msg("permission created")

	return perm, nil
}

// EnsurePermissions creates every permission of specs that does not exist yet.
// Existing permissions are left untouched. It returns the created permissions.
func (c *Catalog) EnsurePermissions(ctx context.Context, actor string, specs []PermissionSpec) ([]models.Permission, error) {
	verr := &ValidationError{}

	for i := range specs {
		specs[i].normalize()
		c.collect(specs[i], fmt.Sprintf("permissions[%d].", i), verr)
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var (
		created []models.Permission
		audit   *auditTx
	)

	err := c.store.Transaction(ctx, func(tx Store) error {
		audit = newAuditTx(tx, actor, c.clock())

		for _, spec := range specs {
			_, err := tx.GetPermission(ctx, spec.ID)
			if err == nil {
				continue
			}

			if !errors.Is(err, ErrPermissionNotFound) {
				return err
			}

			perm, err := createPermission(ctx, tx, audit, spec)
			if err != nil {
				return err
			}

			created = append(created, *perm)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.committed()

	return created, nil
}

func createPermission(ctx context.Context, tx Store, audit *auditTx, spec PermissionSpec) (*models.Permission, error) {
	_, err := tx.GetPermission(ctx, spec.ID)
	if err == nil {
		return nil, fmt.Errorf("%w: permission %s", ErrDuplicateIdentifier, spec.ID)
	}

	if !errors.Is(err, ErrPermissionNotFound) {
		return nil, err
	}

	perm := &models.Permission{
		ID:          spec.ID,
		Name:        spec.Name,
		Description: spec.Description,
		Category:    spec.Category,
		Version:     1,
		CreatedAt:   audit.at,
		UpdatedAt:   audit.at,
	}

	if err = tx.CreatePermission(ctx, perm); err != nil {
		return nil, err
	}

	if err = audit.record(ctx, models.AuditPermissionCreate, models.AuditTargetPermission, perm.ID, nil, perm); err != nil {
		return nil, err
	}

	return perm, nil
}

// UpdatePermission applies patch to a permission.
// The category of a permission referenced by any role cannot change, since
// bulk category toggles on those roles rely on it.
func (c *Catalog) UpdatePermission(ctx context.Context, actor, id string, patch PermissionPatch) (*models.Permission, error) {
	patch.Name = trimmed(patch.Name)
	patch.Description = trimmed(patch.Description)

	verr := &ValidationError{}
	c.collect(patch, "", verr)

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var (
		perm  *models.Permission
		audit *auditTx
	)

	err := c.store.Transaction(ctx, func(tx Store) error {
		var err error

		perm, err = tx.GetPermission(ctx, id)
		if err != nil {
			return err
		}

		before := *perm
		changed := false

		if patch.Category != nil && *patch.Category != perm.Category {
			roles, err := tx.RolesReferencingPermission(ctx, id)
			if err != nil {
				return err
			}

			if len(roles) > 0 {
				return &ConflictError{Target: "permission " + id, Blocking: references("role", roles)}
			}

			perm.Category = *patch.Category
			changed = true
		}

		if patch.Name != nil && *patch.Name != perm.Name {
			perm.Name = *patch.Name
			changed = true
		}

		if patch.Description != nil && *patch.Description != perm.Description {
			perm.Description = *patch.Description
			changed = true
		}

		if !changed {
			return nil
		}

		audit = newAuditTx(tx, actor, c.clock())
		perm.Version++
		perm.UpdatedAt = audit.at

		if err = tx.UpdatePermission(ctx, perm); err != nil {
			return err
		}

		return audit.record(ctx, models.AuditPermissionUpdate, models.AuditTargetPermission, id, before, perm)
	})
	if err != nil {
		return nil, err
	}

	if audit != nil {
		audit.committed()
		log.Info().Str("permission", id).Str("actor", actor).Int("version", perm.Version).Msg("permission updated")
	}

	return perm, nil
}

// DeletePermission removes a permission no role references.
func (c *Catalog) DeletePermission(ctx context.Context, actor, id string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var audit *auditTx

	err := c.store.Transaction(ctx, func(tx Store) error {
		perm, err := tx.GetPermission(ctx, id)
		if err != nil {
			return err
		}

		roles, err := tx.RolesReferencingPermission(ctx, id)
		if err != nil {
			return err
		}

		if len(roles) > 0 {
			return &ConflictError{Target: "permission " + id, Blocking: references("role", roles)}
		}

		if err = tx.DeletePermission(ctx, id); err != nil {
			return err
		}

		audit = newAuditTx(tx, actor, c.clock())

		return audit.record(ctx, models.AuditPermissionDelete, models.AuditTargetPermission, id, perm, nil)
	})
	if err != nil {
		return err
	}

	audit.committed()
	log.Info().Str("permission", id).Str("actor", actor).Msg("permission deleted")

	return nil
}

func references(kind string, ids []string) []Reference {
	refs := make([]Reference, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, Reference{Kind: kind, ID: id})
	}

	return refs
}
