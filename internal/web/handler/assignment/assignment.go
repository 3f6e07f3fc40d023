// Package assignment serves the role assignment ledger.
package assignment

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/uniportal/uniportal-rbac/internal/auth"
	"github.com/uniportal/uniportal-rbac/internal/rbac"
	"github.com/uniportal/uniportal-rbac/internal/web/handler"
)

// Path is the base path of the assignment endpoints.
const Path = "/assignments"

// Service is the assignment handler service.
type Service struct {
	handler.Service
	svc *rbac.Service
}

var (
	// Handler is the assignment handler.
	Handler = Service{}
)

// Init registers the assignment routes.
func (s *Service) Init(router fiber.Router, svc *rbac.Service) {
	if router == nil || svc == nil {
		log.Fatal().Msg(handler.ErrNilFatalLogMsg)
		return
	}

	s.svc = svc

	manage := auth.RequirePermission(svc.Gate, auth.PermAssignmentsManage)

	router.Post(Path, manage, s.Assign)
	router.Post(Path+"/bulk", manage, s.BulkAssign)
	router.Get(Path+"/:id", auth.RequirePermission(svc.Gate, auth.PermAssignmentsView), s.Get)
	router.Patch(Path+"/:id", manage, s.Update)
	router.Delete(Path+"/:id", manage, s.Remove)
}

// Assign grants one or more roles to a user. The caller is recorded as AssignedBy.
func (s *Service) Assign(c *fiber.Ctx) error {
	actor, err := handler.Actor(c)
	if err != nil {
		return err
	}

	var req rbac.AssignRequest
	if err = handler.Bind(c, &req); err != nil {
		return err
	}

	req.AssignedBy = actor

	created, err := s.svc.Assignments.AssignRole(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// BulkAssign applies several assign requests atomically.
func (s *Service) BulkAssign(c *fiber.Ctx) error {
	actor, err := handler.Actor(c)
	if err != nil {
		return err
	}

	var reqs []rbac.AssignRequest
	if err = handler.Bind(c, &reqs); err != nil {
		return err
	}

	for i := range reqs {
		reqs[i].AssignedBy = actor
	}

	created, err := s.svc.Assignments.BulkAssignRoles(c.UserContext(), reqs)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// Get returns one assignment.
func (s *Service) Get(c *fiber.Ctx) error {
	a, err := s.svc.Assignments.GetAssignment(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(a)
}

// Update changes expiry or scope of an assignment, or deactivates it.
func (s *Service) Update(c *fiber.Ctx) error {
	actor, err := handler.Actor(c)
	if err != nil {
		return err
	}

	var patch rbac.AssignmentPatch
	if err = handler.Bind(c, &patch); err != nil {
		return err
	}

	a, err := s.svc.Assignments.UpdateAssignment(c.UserContext(), actor, c.Params("id"), patch)
	if err != nil {
		return err
	}

	return c.JSON(a)
}

// Remove deactivates an assignment.
func (s *Service) Remove(c *fiber.Ctx) error {
	actor, err := handler.Actor(c)
	if err != nil {
		return err
	}

	a, err := s.svc.Assignments.RemoveAssignment(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(a)
}
