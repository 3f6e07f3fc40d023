// Package check answers permission checks for other services and the UI.
package check

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/uniportal/uniportal-rbac/internal/auth"
	"github.com/uniportal/uniportal-rbac/internal/rbac"
	"github.com/uniportal/uniportal-rbac/internal/web/handler"
)

// Path of the check endpoint.
const Path = "/check"

// Request is the body of a batch check.
type Request struct {
	UserID      string            `json:"user_id"`
	Permissions []string          `json:"permissions"`
	Mode        string            `json:"mode"` // "any" or "all"
	Scope       map[string]string `json:"scope,omitempty"`
}

// Service is the check handler service.
type Service struct {
	handler.Service
	svc *rbac.Service
}

var (
	// Handler is the check handler.
	Handler = Service{}
)

// Init registers the check routes.
func (s *Service) Init(router fiber.Router, svc *rbac.Service) {
	if router == nil || svc == nil {
		log.Fatal().Msg(handler.ErrNilFatalLogMsg)
		return
	}

	s.svc = svc

	guard := auth.RequirePermission(svc.Gate, auth.PermAccessCheck)

	router.Get(Path, guard, s.Get)
	router.Post(Path, guard, s.Post)
}

// Get decides a single permission: ?user_id=&permission=&scope=key=value.
// A denied decision is still a 200 response; the body tells the outcome.
func (s *Service) Get(c *fiber.Ctx) error {
	userID, perm := c.Query("user_id"), c.Query("permission")
	if userID == "" || perm == "" {
		return handler.BadRequest("user_id and permission are required")
	}

	scope, err := handler.QueryScope(c, "scope")
	if err != nil {
		return err
	}

	var cc *rbac.CheckContext
	if !scope.IsEmpty() {
		cc = &rbac.CheckContext{Scope: scope}
	}

	return c.JSON(s.svc.Gate.HasPermission(c.UserContext(), userID, perm, cc))
}

// Post decides whether a user holds any or all of several permissions.
func (s *Service) Post(c *fiber.Ctx) error {
	var req Request
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	if req.UserID == "" || len(req.Permissions) == 0 {
		return handler.BadRequest("user_id and permissions are required")
	}

	var cc *rbac.CheckContext
	if len(req.Scope) > 0 {
		cc = &rbac.CheckContext{Scope: req.Scope}
	}

	switch req.Mode {
	case "", "all":
		return c.JSON(s.svc.Gate.HasAllPermissions(c.UserContext(), req.UserID, req.Permissions, cc))
	case "any":
		return c.JSON(s.svc.Gate.HasAnyPermission(c.UserContext(), req.UserID, req.Permissions, cc))
	default:
		return handler.BadRequest("mode must be any or all")
	}
}
