// Package user serves per-user views: assignments and effective permissions.
package user

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/uniportal/uniportal-rbac/internal/auth"
	"github.com/uniportal/uniportal-rbac/internal/rbac"
	"github.com/uniportal/uniportal-rbac/internal/web/handler"
)

const (
	// Path is the base path of the user endpoints.
	Path = "/users"

	// MePath returns the permissions of the caller.
	MePath = "/me/permissions"
)

// Service is the user handler service.
type Service struct {
	handler.Service
	svc *rbac.Service
	now func() time.Time
}

var (
	// Handler is the user handler.
	Handler = Service{}
)

// Init registers the user routes.
func (s *Service) Init(router fiber.Router, svc *rbac.Service) {
	if router == nil || svc == nil {
		log.Fatal().Msg(handler.ErrNilFatalLogMsg)
		return
	}

	s.svc = svc
	if s.now == nil {
		s.now = time.Now
	}

	router.Get(Path+"/:id/assignments",
		auth.RequirePermission(svc.Gate, auth.PermAssignmentsView), s.Assignments)
	router.Get(Path+"/:id/permissions",
		auth.RequirePermission(svc.Gate, auth.PermAccessCheck), s.Permissions)
	router.Get(MePath, auth.RequireAuthenticated(), s.Me)
}

// Assignments lists the assignments of a user.
func (s *Service) Assignments(c *fiber.Ctx) error {
	list, err := s.svc.Assignments.ListAssignmentsForUser(c.UserContext(), c.Params("id"), rbac.AssignmentListOptions{
		IncludeInactive: c.QueryBool("include_inactive"),
	})
	if err != nil {
		return err
	}

	return c.JSON(handler.Paginate(c, list))
}

// Permissions resolves the effective permissions of a user, now or at the
// time given by the at query parameter. Past times are answered from the audit log.
func (s *Service) Permissions(c *fiber.Ctx) error {
	at, err := handler.QueryTime(c, "at")
	if err != nil {
		return err
	}

	return s.resolve(c, c.Params("id"), at)
}

// Me resolves the effective permissions of the caller.
func (s *Service) Me(c *fiber.Ctx) error {
	userID, err := handler.Actor(c)
	if err != nil {
		return err
	}

	return s.resolve(c, userID, nil)
}

func (s *Service) resolve(c *fiber.Ctx, userID string, at *time.Time) error {
	var (
		res *rbac.Resolution
		err error
	)

	switch {
	case at == nil:
		res, err = s.svc.Resolver.ResolveNow(c.UserContext(), userID)
	case at.Before(s.now()):
		res, err = s.svc.Resolver.ResolveHistorical(c.UserContext(), userID, *at)
	default:
		res, err = s.svc.Resolver.Resolve(c.UserContext(), userID, *at)
	}

	if err != nil {
		return err
	}

	return c.JSON(res)
}
