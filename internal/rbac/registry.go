package rbac

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/uniportal/uniportal-rbac/internal/db/models"
)

// RoleSpec describes a role to create.
type RoleSpec struct {
	Name          string          `json:"name" validate:"required,max=100"`
	Description   string          `json:"description" validate:"max=255"`
	Category      models.Category `json:"category" validate:"required,category"`
	Level         int             `json:"level"`
	PermissionIDs []string        `json:"permissions" validate:"dive,required"`
}

func (s *RoleSpec) normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Description = strings.TrimSpace(s.Description)
}

// RolePatch lists the role fields to change. Nil fields stay untouched.
// On system roles only IsActive may differ from the stored value.
type RolePatch struct {
	Name          *string          `json:"name,omitempty" validate:"omitnil,min=1,max=100"`
	Description   *string          `json:"description,omitempty" validate:"omitnil,max=255"`
	Category      *models.Category `json:"category,omitempty" validate:"omitnil,category"`
	Level         *int             `json:"level,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
	PermissionIDs *[]string        `json:"permissions,omitempty" validate:"omitnil,dive,required"`
}

// RoleTemplate is a predefined role blueprint.
type RoleTemplate struct {
	Key           string
	Name          string
	Description   string
	Category      models.Category
	Level         int
	PermissionIDs []string
}

// Spec converts the template into a RoleSpec, optionally under another name.
func (t RoleTemplate) Spec(name string) RoleSpec {
	if strings.TrimSpace(name) == "" {
		name = t.Name
	}

	return RoleSpec{
		Name:          name,
		Description:   t.Description,
		Category:      t.Category,
		Level:         t.Level,
		PermissionIDs: slices.Clone(t.PermissionIDs),
	}
}

// Registry owns the role lifecycle.
type Registry struct {
	*core
}

// ListRoles returns the roles matching filter ordered by name.
func (r *Registry) ListRoles(ctx context.Context, filter RoleFilter) ([]models.Role, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	filter.Search = strings.TrimSpace(filter.Search)

	return r.store.ListRoles(ctx, filter)
}

// GetRole returns one role or ErrRoleNotFound.
func (r *Registry) GetRole(ctx context.Context, id string) (*models.Role, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.store.GetRole(ctx, id)
}

// CreateRole validates spec and stores a new custom role.
// Every violated field is reported at once.
func (r *Registry) CreateRole(ctx context.Context, actor string, spec RoleSpec) (*models.Role, error) {
	return r.create(ctx, actor, spec, false, models.AuditRoleCreate)
}

// InstantiateTemplate creates a custom role from tpl, named name or the template name.
func (r *Registry) InstantiateTemplate(ctx context.Context, actor string, tpl RoleTemplate, name string) (*models.Role, error) {
	return r.create(ctx, actor, tpl.Spec(name), false, models.AuditRoleCreate)
}

// SeedSystemRoles installs the given templates as protected system roles.
// Roles whose name already exists are left untouched. It returns the created roles.
func (r *Registry) SeedSystemRoles(ctx context.Context, actor string, templates []RoleTemplate) ([]models.Role, error) {
	var created []models.Role

	for _, tpl := range templates {
		ctxGet, cancel := r.withTimeout(ctx)
		_, err := r.store.GetRoleByName(ctxGet, tpl.Name)

		cancel()

		if err == nil {
			continue
		}

		if !errors.Is(err, ErrRoleNotFound) {
			return created, err
		}

		role, err := r.create(ctx, actor, tpl.Spec(""), true, models.AuditRoleCreate)
		if err != nil {
			return created, fmt.Errorf("seed role %s: %w", tpl.Name, err)
		}

		created = append(created, *role)
	}

	return created, nil
}

func (r *Registry) create(
	ctx context.Context,
	actor string,
	spec RoleSpec,
	system bool,
	action models.AuditAction,
) (*models.Role, error) {
	spec.normalize()

	verr := &ValidationError{}
	r.collect(spec, "", verr)
	r.checkLevel(spec.Level, "level", verr)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		role  *models.Role
		audit *auditTx
	)

	err := r.store.Transaction(ctx, func(tx Store) error {
		if err := checkPermissions(ctx, tx, spec.PermissionIDs, "permissions", verr); err != nil {
			return err
		}

		if err := verr.OrNil(); err != nil {
			return err
		}

		if err := ensureNameFree(ctx, tx, spec.Name, ""); err != nil {
			return err
		}

		audit = newAuditTx(tx, actor, r.clock())
		role = &models.Role{
			ID:          newID(),
			Name:        spec.Name,
			Description: spec.Description,
			Category:    spec.Category,
			Level:       spec.Level,
			IsActive:    true,
			IsSystem:    system,
			Version:     1,
			CreatedAt:   audit.at,
			UpdatedAt:   audit.at,
		}
		role.SetPermissionIDs(spec.PermissionIDs)

		if err := tx.CreateRole(ctx, role); err != nil {
			return err
		}

		return audit.record(ctx, action, models.AuditTargetRole, role.ID, nil, role)
	})
	if err != nil {
		return nil, err
	}

	audit.committed()
	log.Info().Str("role_id", role.ID).Str("role", role.Name).Bool("system", system).Str("actor", actor).
		Msg("role created")

	return role, nil
}

// UpdateRole applies patch to a role.
// A system role only accepts changes of IsActive; anything else fails with
// ErrSystemRoleImmutable and leaves the role untouched.
func (r *Registry) UpdateRole(ctx context.Context, actor, id string, patch RolePatch) (*models.Role, error) {
	patch.Name = trimmed(patch.Name)
	patch.Description = trimmed(patch.Description)

	verr := &ValidationError{}
	r.collect(patch, "", verr)

	if patch.Level != nil {
		r.checkLevel(*patch.Level, "level", verr)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		role  *models.Role
		audit *auditTx
	)

	err := r.store.Transaction(ctx, func(tx Store) error {
		var err error

		role, err = tx.GetRole(ctx, id)
		if err != nil {
			return err
		}

		if role.IsSystem && touchesProtected(role, patch) {
			return fmt.Errorf("%w: %s", ErrSystemRoleImmutable, role.Name)
		}

		if patch.PermissionIDs != nil {
			if err = checkPermissions(ctx, tx, *patch.PermissionIDs, "permissions", verr); err != nil {
				return err
			}
		}

		if err = verr.OrNil(); err != nil {
			return err
		}

		if patch.Name != nil && *patch.Name != role.Name {
			if err = ensureNameFree(ctx, tx, *patch.Name, role.ID); err != nil {
				return err
			}
		}

		before := cloneRole(role)
		if !applyPatch(role, patch) {
			return nil
		}

		audit = newAuditTx(tx, actor, r.clock())

		return r.save(ctx, tx, audit, models.AuditRoleUpdate, before, role)
	})
	if err != nil {
		return nil, err
	}

	if audit != nil {
		audit.committed()
		r.cache.InvalidateAll()
		log.Info().Str("role_id", role.ID).Str("role", role.Name).Bool("active", role.IsActive).
			Int("version", role.Version).Str("actor", actor).Msg("role updated")
	}

	return role, nil
}

// DeleteRole removes a custom role.
// The deletion is refused while any assignment still marked active references
// the role; the caller has to remove those assignments first.
func (r *Registry) DeleteRole(ctx context.Context, actor, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var audit *auditTx

	err := r.store.Transaction(ctx, func(tx Store) error {
		role, err := tx.GetRole(ctx, id)
		if err != nil {
			return err
		}

		if role.IsSystem {
			return fmt.Errorf("%w: %s cannot be deleted", ErrSystemRoleImmutable, role.Name)
		}

		assignments, err := tx.ListAssignments(ctx, AssignmentFilter{RoleID: id})
		if err != nil {
			return err
		}

		if len(assignments) > 0 {
			ids := make([]string, 0, len(assignments))
			for _, a := range assignments {
				ids = append(ids, a.ID)
			}

			return &ConflictError{Target: "role " + role.Name, Blocking: references("assignment", ids)}
		}

		if err = tx.DeleteRole(ctx, id); err != nil {
			return err
		}

		audit = newAuditTx(tx, actor, r.clock())

		return audit.record(ctx, models.AuditRoleDelete, models.AuditTargetRole, id, role, nil)
	})
	if err != nil {
		return err
	}

	audit.committed()
	r.cache.InvalidateAll()
	log.Info().Str("role_id", id).Str("actor", actor).Msg("role deleted")

	return nil
}

// CloneRole copies a role's permission set, category, level and description
// into a new custom role named newName.
func (r *Registry) CloneRole(ctx context.Context, actor, id, newName string) (*models.Role, error) {
	newName = strings.TrimSpace(newName)

	verr := &ValidationError{}
	if newName == "" {
		verr.Add("name", "is required")
	} else if len(newName) > 100 { //nolint:mnd
		verr.Add("name", "must be at most 100 characters")
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		clone *models.Role
		audit *auditTx
	)

	err := r.store.Transaction(ctx, func(tx Store) error {
		src, err := tx.GetRole(ctx, id)
		if err != nil {
			return err
		}

		if err = ensureNameFree(ctx, tx, newName, ""); err != nil {
			return err
		}

		audit = newAuditTx(tx, actor, r.clock())
		clone = &models.Role{
			ID:          newID(),
			Name:        newName,
			Description: src.Description,
			Category:    src.Category,
			Level:       src.Level,
			IsActive:    true,
			IsSystem:    false,
			Version:     1,
			CreatedAt:   audit.at,
			UpdatedAt:   audit.at,
		}
		clone.SetPermissionIDs(src.PermissionIDs())

		if err = tx.CreateRole(ctx, clone); err != nil {
			return err
		}

		// the source snapshot goes into Before so the origin of the clone stays traceable
		return audit.record(ctx, models.AuditRoleClone, models.AuditTargetRole, clone.ID, src, clone)
	})
	if err != nil {
		return nil, err
	}

	audit.committed()
	log.Info().Str("role_id", clone.ID).Str("source_id", id).Str("role", clone.Name).Str("actor", actor).
		Msg("role cloned")

	return clone, nil
}

// ToggleCategoryPermissions adds (selected) or removes every catalog permission
// of category to or from the role in one atomic update.
// Permissions already in the desired state are left alone, so repeating the
// call is a no-op. System roles are refused.
func (r *Registry) ToggleCategoryPermissions(
	ctx context.Context,
	actor, roleID string,
	category models.Category,
	selected bool,
) (*models.Role, error) {
	if !category.Valid() {
		verr := &ValidationError{}
		verr.Add("category", "must be one of "+categoryList())

		return nil, verr
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		role  *models.Role
		audit *auditTx
	)

	err := r.store.Transaction(ctx, func(tx Store) error {
		var err error

		role, err = tx.GetRole(ctx, roleID)
		if err != nil {
			return err
		}

		if role.IsSystem {
			return fmt.Errorf("%w: %s", ErrSystemRoleImmutable, role.Name)
		}

		perms, err := tx.ListPermissions(ctx, PermissionFilter{Category: category})
		if err != nil {
			return err
		}

		current := role.PermissionIDs()
		next := toggle(current, perms, selected)

		if slices.Equal(current, next) {
			return nil
		}

		before := cloneRole(role)
		role.SetPermissionIDs(next)

		audit = newAuditTx(tx, actor, r.clock())

		return r.save(ctx, tx, audit, models.AuditRoleToggle, before, role)
	})
	if err != nil {
		return nil, err
	}

	if audit != nil {
		audit.committed()
		r.cache.InvalidateAll()
		log.Info().Str("role_id", role.ID).Str("category", string(category)).Bool("selected", selected).
			Str("actor", actor).Msg("role category permissions toggled")
	}

	return role, nil
}

func (r *Registry) save(
	ctx context.Context,
	tx Store,
	audit *auditTx,
	action models.AuditAction,
	before, role *models.Role,
) error {
	role.Version = before.Version + 1
	role.UpdatedAt = audit.at

	if err := tx.UpdateRole(ctx, role, before.Version); err != nil {
		return err
	}

	return audit.record(ctx, action, models.AuditTargetRole, role.ID, before, role)
}

func toggle(current []string, perms []models.Permission, selected bool) []string {
	inCategory := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		inCategory[p.ID] = struct{}{}
	}

	if !selected {
		return slices.DeleteFunc(slices.Clone(current), func(id string) bool {
			_, ok := inCategory[id]
			return ok
		})
	}

	next := slices.Clone(current)

	for _, p := range perms {
		if !slices.Contains(next, p.ID) {
			next = append(next, p.ID)
		}
	}

	return next
}

func touchesProtected(role *models.Role, patch RolePatch) bool {
	switch {
	case patch.Name != nil && *patch.Name != role.Name:
		return true
	case patch.Description != nil && *patch.Description != role.Description:
		return true
	case patch.Category != nil && *patch.Category != role.Category:
		return true
	case patch.Level != nil && *patch.Level != role.Level:
		return true
	case patch.PermissionIDs != nil && !slices.Equal(dedupe(*patch.PermissionIDs), role.PermissionIDs()):
		return true
	default:
		return false
	}
}

// applyPatch writes patch into role and reports whether anything changed.
func applyPatch(role *models.Role, patch RolePatch) bool {
	changed := false

	if patch.Name != nil && *patch.Name != role.Name {
		role.Name = *patch.Name
		changed = true
	}

	if patch.Description != nil && *patch.Description != role.Description {
		role.Description = *patch.Description
		changed = true
	}

	if patch.Category != nil && *patch.Category != role.Category {
		role.Category = *patch.Category
		changed = true
	}

	if patch.Level != nil && *patch.Level != role.Level {
		role.Level = *patch.Level
		changed = true
	}

	if patch.IsActive != nil && *patch.IsActive != role.IsActive {
		role.IsActive = *patch.IsActive
		changed = true
	}

	if patch.PermissionIDs != nil {
		next := dedupe(*patch.PermissionIDs)
		if !slices.Equal(next, role.PermissionIDs()) {
			role.SetPermissionIDs(next)
			changed = true
		}
	}

	return changed
}

func checkPermissions(ctx context.Context, tx Store, ids []string, field string, verr *ValidationError) error {
	for i, id := range ids {
		if id == "" {
			continue // reported by struct validation
		}

		_, err := tx.GetPermission(ctx, id)
		if errors.Is(err, ErrPermissionNotFound) {
			verr.Add(fmt.Sprintf("%s[%d]", field, i), "unknown permission "+id)
			continue
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func ensureNameFree(ctx context.Context, tx Store, name, selfID string) error {
	existing, err := tx.GetRoleByName(ctx, name)
	if errors.Is(err, ErrRoleNotFound) {
		return nil
	}

	if err != nil {
		return err
	}

	if existing.ID == selfID {
		return nil
	}

	return fmt.Errorf("%w: role name %q is taken", ErrDuplicateIdentifier, name)
}

func cloneRole(role *models.Role) *models.Role {
	c := *role
	c.Permissions = slices.Clone(role.Permissions)

	return &c
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}

	t := strings.TrimSpace(*s)

	return &t
}
