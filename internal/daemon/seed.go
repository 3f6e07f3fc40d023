package daemon

import (
	"context"
	"slices"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/uniportal/uniportal-rbac/internal/auth"
	"github.com/uniportal/uniportal-rbac/internal/config"
	"github.com/uniportal/uniportal-rbac/internal/db/models"
	"github.com/uniportal/uniportal-rbac/internal/rbac"
)

// Seed installs the permission catalog and the system roles and grants the
// Administrator role to the configured administrators. Running it again
// changes nothing.
func Seed(cfg *config.Config, svc *rbac.Service) error {
	ctx := context.Background()
	actor := cfg.Seed.Actor

	if _, err := svc.Catalog.EnsurePermissions(ctx, actor, auth.Permissions()); err != nil {
		return errors.Wrap(err, "seed permissions")
	}

	created, err := svc.Roles.SeedSystemRoles(ctx, actor, auth.SystemRoles())
	if err != nil {
		return errors.Wrap(err, "seed system roles")
	}

	for _, r := range created {
		log.Info().Str("role_id", r.ID).Str("role", r.Name).Msg("system role installed")
	}

	if len(cfg.Seed.Administrators) == 0 {
		return nil
	}

	adminRole, err := findRole(ctx, svc, auth.RoleAdministrator)
	if err != nil {
		return err
	}

	for _, userID := range cfg.Seed.Administrators {
		current, err := svc.Assignments.ListAssignmentsForUser(ctx, userID, rbac.AssignmentListOptions{})
		if err != nil {
			return errors.Wrapf(err, "list assignments of %s", userID)
		}

		if slices.ContainsFunc(current, func(a models.RoleAssignment) bool {
			return a.RoleID == adminRole && a.Scope.IsEmpty() && a.ExpiresAt == nil
		}) {
			continue
		}

		if _, err = svc.Assignments.AssignRole(ctx, rbac.AssignRequest{
			UserID:     userID,
			RoleIDs:    []string{adminRole},
			AssignedBy: actor,
		}); err != nil {
			return errors.Wrapf(err, "grant %s to %s", auth.RoleAdministrator, userID)
		}

		log.Info().Str("user_id", userID).Msg("administrator seeded")
	}

	return nil
}

func findRole(ctx context.Context, svc *rbac.Service, name string) (string, error) {
	roles, err := svc.Roles.ListRoles(ctx, rbac.RoleFilter{Search: name})
	if err != nil {
		return "", errors.Wrap(err, "list roles")
	}

	for _, r := range roles {
		if r.Name == name {
			return r.ID, nil
		}
	}

	return "", errors.Wrap(rbac.ErrRoleNotFound, name)
}
