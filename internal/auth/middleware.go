package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/uniportal/uniportal-rbac/internal/db/models"
	"github.com/uniportal/uniportal-rbac/internal/rbac"
)

// Keys used in fiber locals.
const (
	LocalsUserID      = "user_id"
	LocalsDecision    = "rbac_decision"
	LocalsPermissions = "permissions"
)

// DefaultUserHeader carries the authenticated user id set by the upstream gateway.
const DefaultUserHeader = "X-User-ID"

const msgForbidden = "Forbidden: You don't have permission to access this resource"

// Checker is the part of the gate the middleware depends on. *rbac.Gate implements it.
type Checker interface {
	HasPermission(ctx context.Context, userID, permissionID string, cc *rbac.CheckContext) rbac.Decision
	HasAnyPermission(ctx context.Context, userID string, permissionIDs []string, cc *rbac.CheckContext) rbac.Decision
	HasAllPermissions(ctx context.Context, userID string, permissionIDs []string, cc *rbac.CheckContext) rbac.Decision
	EffectivePermissions(ctx context.Context, userID string) ([]string, error)
}

// ScopeFunc extracts the scope a request acts in.
type ScopeFunc func(c *fiber.Ctx) models.Scope

// Identity copies the user id from header into locals. Requests without it pass
// through unauthenticated; the guards reject them.
func Identity(header string) fiber.Handler {
	if header == "" {
		header = DefaultUserHeader
	}

	return func(c *fiber.Ctx) error {
		if id := strings.TrimSpace(c.Get(header)); id != "" {
			c.Locals(LocalsUserID, id)
		}

		return c.Next()
	}
}

// UserID returns the user id placed in locals by Identity or an upstream handler.
func UserID(c *fiber.Ctx) (string, error) {
	id, ok := c.Locals(LocalsUserID).(string)
	if !ok || id == "" {
		return "", ErrNoIdentity
	}

	return id, nil
}

// DecisionFromContext returns the decision stored by the guard that admitted the request.
func DecisionFromContext(c *fiber.Ctx) (rbac.Decision, bool) {
	d, ok := c.Locals(LocalsDecision).(rbac.Decision)
	return d, ok
}

// ScopeFromQuery builds a ScopeFunc reading the given query parameters.
func ScopeFromQuery(keys ...string) ScopeFunc {
	return func(c *fiber.Ctx) models.Scope {
		var s models.Scope

		for _, k := range keys {
			if v := c.Query(k); v != "" {
				if s == nil {
					s = models.Scope{}
				}

				s[k] = v
			}
		}

		return s
	}
}

// RequirePermission admits the request only if the user holds permission.
func RequirePermission(gate Checker, permission string) fiber.Handler {
	return RequireScopedPermission(gate, permission, nil)
}

// RequireScopedPermission admits the request only if the user holds permission
// through an assignment whose scope matches the one scope extracts.
func RequireScopedPermission(gate Checker, permission string, scope ScopeFunc) fiber.Handler {
	return guard(scope, func(ctx context.Context, userID string, cc *rbac.CheckContext) rbac.Decision {
		return gate.HasPermission(ctx, userID, permission, cc)
	})
}

// RequireAnyPermission admits the request if the user holds at least one of permissions.
func RequireAnyPermission(gate Checker, permissions ...string) fiber.Handler {
	return guard(nil, func(ctx context.Context, userID string, cc *rbac.CheckContext) rbac.Decision {
		return gate.HasAnyPermission(ctx, userID, permissions, cc)
	})
}

// RequireAllPermissions admits the request only if the user holds every one of permissions.
func RequireAllPermissions(gate Checker, permissions ...string) fiber.Handler {
	return guard(nil, func(ctx context.Context, userID string, cc *rbac.CheckContext) rbac.Decision {
		return gate.HasAllPermissions(ctx, userID, permissions, cc)
	})
}

// RequireAuthenticated only checks that a user id is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := UserID(c); err != nil {
			return unauthorized(c)
		}

		return c.Next()
	}
}

// AddPermissionsToLocals stores the effective permissions of the user in locals
// for handlers rendering UI state. Failures leave the list empty.
func AddPermissionsToLocals(gate Checker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return c.Next()
		}

		perms, err := gate.EffectivePermissions(c.UserContext(), userID)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("could not load permissions for request")

			perms = []string{}
		}

		c.Locals(LocalsPermissions, perms)

		return c.Next()
	}
}

// HasPermissionInContext reports whether permission is among the ones stored by AddPermissionsToLocals.
func HasPermissionInContext(c *fiber.Ctx, permission string) bool {
	perms, ok := c.Locals(LocalsPermissions).([]string)
	if !ok {
		return false
	}

	for _, p := range perms {
		if p == permission {
			return true
		}
	}

	return false
}

type decideFunc func(ctx context.Context, userID string, cc *rbac.CheckContext) rbac.Decision

func guard(scope ScopeFunc, decide decideFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return unauthorized(c)
		}

		var cc *rbac.CheckContext
		if scope != nil {
			cc = &rbac.CheckContext{Scope: scope(c)}
		}

		d := decide(c.UserContext(), userID, cc)
		c.Locals(LocalsDecision, d)

		if !d.Granted {
			log.Warn().Str("user_id", userID).Str("permission", d.Permission).Str("reason", d.Reason).
				Str("path", c.Path()).Msg("access denied")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":      msgForbidden,
				"permission": d.Permission,
				"reason":     d.Reason,
			})
		}

		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrNoIdentity.Error()})
}
