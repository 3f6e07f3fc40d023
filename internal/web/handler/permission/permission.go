// Package permission serves the permission catalog.
package permission

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/uniportal/uniportal-rbac/internal/auth"
	"github.com/uniportal/uniportal-rbac/internal/rbac"
	"github.com/uniportal/uniportal-rbac/internal/web/handler"
)

// Path is the base path of the permission endpoints.
const Path = "/permissions"

// Service is the permission handler service.
type Service struct {
	handler.Service
	svc *rbac.Service
}

var (
	// Handler is the permission handler.
	Handler = Service{}
)

// Init registers the permission routes.
func (s *Service) Init(router fiber.Router, svc *rbac.Service) {
	if router == nil || svc == nil {
		log.Fatal().Msg(handler.ErrNilFatalLogMsg)
		return
	}

	s.svc = svc

	view := auth.RequirePermission(svc.Gate, auth.PermPermissionsView)
	manage := auth.RequirePermission(svc.Gate, auth.PermPermissionsManage)

	router.Get(Path, view, s.List)
	router.Get(Path+"/:id", view, s.Get)
	router.Post(Path, manage, s.Create)
	router.Patch(Path+"/:id", manage, s.Update)
	router.Delete(Path+"/:id", manage, s.Delete)
}

// List returns the catalog, filtered by category and search and paginated.
func (s *Service) List(c *fiber.Ctx) error {
	category, err := handler.QueryCategory(c, "category")
	if err != nil {
		return err
	}

	perms, err := s.svc.Catalog.ListPermissions(c.UserContext(), rbac.PermissionFilter{
		Category: category,
		Search:   c.Query("search"),
	})
	if err != nil {
		return err
	}

	return c.JSON(handler.Paginate(c, perms))
}

// Get returns one permission.
func (s *Service) Get(c *fiber.Ctx) error {
	perm, err := s.svc.Catalog.GetPermission(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(perm)
}

// Create adds a permission to the catalog.
func (s *Service) Create(c *fiber.Ctx) error {
	actor, err := handler.Actor(c)
	if err != nil {
		return err
	}

	var spec rbac.PermissionSpec
	if err = handler.Bind(c, &spec); err != nil {
		return err
	}

	perm, err := s.svc.Catalog.CreatePermission(c.UserContext(), actor, spec)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(perm)
}

// Update edits name, description or category of a permission.
func (s *Service) Update(c *fiber.Ctx) error {
	actor, err := handler.Actor(c)
	if err != nil {
		return err
	}

	var patch rbac.PermissionPatch
	if err = handler.Bind(c, &patch); err != nil {
		return err
	}

	perm, err := s.svc.Catalog.UpdatePermission(c.UserContext(), actor, c.Params("id"), patch)
	if err != nil {
		return err
	}

	return c.JSON(perm)
}

// Delete removes a permission no role references.
func (s *Service) Delete(c *fiber.Ctx) error {
	actor, err := handler.Actor(c)
	if err != nil {
		return err
	}

	if err = s.svc.Catalog.DeletePermission(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
