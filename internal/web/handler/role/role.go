// Package role serves the role registry.
package role

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/uniportal/uniportal-rbac/internal/auth"
	"github.com/uniportal/uniportal-rbac/internal/db/models"
	"github.com/uniportal/uniportal-rbac/internal/rbac"
	"github.com/uniportal/uniportal-rbac/internal/web/handler"
)

// Path is the base path of the role endpoints.
const Path = "/roles"

// Service is the role handler service.
type Service struct {
	handler.Service
	svc *rbac.Service
}

var (
	// Handler is the role handler.
	Handler = Service{}
)

// Init registers the role routes.
func (s *Service) Init(router fiber.Router, svc *rbac.Service) {
	if router == nil || svc == nil {
		log.Fatal().Msg(handler.ErrNilFatalLogMsg)
		return
	}

	s.svc = svc

	view := auth.RequirePermission(svc.Gate, auth.PermRolesView)
	manage := auth.RequirePermission(svc.Gate, auth.PermRolesManage)

	router.Get(Path, view, s.List)
	router.Get(Path+"/templates", view, s.Templates)
	router.Post(Path+"/templates/:key", manage, s.Instantiate)
	router.Get(Path+"/:id", view, s.Get)
	router.Post(Path, manage, s.Create)
	router.Patch(Path+"/:id", manage, s.Update)
	router.Delete(Path+"/:id", manage, s.Delete)
	router.Post(Path+"/:id/clone", manage, s.Clone)
	router.Put(Path+"/:id/categories/:category", manage, s.ToggleCategory)
	router.Get(Path+"/:id/assignments",
		auth.RequirePermission(svc.Gate, auth.PermAssignmentsView), s.Assignments)
}

// List returns roles filtered by category, active flag and search.
func (s *Service) List(c *fiber.Ctx) error {
	category, err := handler.QueryCategory(c, "category")
	if err != nil {
		return err
	}

	active, err := handler.QueryBool(c, "active")
	if err != nil {
		return err
	}

	roles, err := s.svc.Roles.ListRoles(c.UserContext(), rbac.RoleFilter{
		Category: category,
		Active:   active,
		Search:   c.Query("search"),
	})
	if err != nil {
		return err
	}

	return c.JSON(handler.Paginate(c, roles))
}

// Get returns one role with its ordered permissions.
func (s *Service) Get(c *fiber.Ctx) error {
	role, err := s.svc.Roles.GetRole(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(role)
}

// Create adds a custom role.
func (s *Service) Create(c *fiber.Ctx) error {
	actor, err := handler.Actor(c)
	if err != nil {
		return err
	}

	var spec rbac.RoleSpec
	if err = handler.Bind(c, &spec); err != nil {
		return err
	}

	role, err := s.svc.Roles.CreateRole(c.UserContext(), actor, spec)
	if err != nil {
		return err
	}

	log.Info().Str("role_id", role.ID).Str("actor", actor).Msg("role created")

	return c.Status(fiber.StatusCreated).JSON(role)
}

// Update applies a partial change to a role.
func (s *Service) Update(c *fiber.Ctx) error {
	actor, err := handler.Actor(c)
	if err != nil {
		return err
	}

	var patch rbac.RolePatch
	if err = handler.Bind(c, &patch); err != nil {
		return err
	}

	role, err := s.svc.Roles.UpdateRole(c.UserContext(), actor, c.Params("id"), patch)
	if err != nil {
		return err
	}

	return c.JSON(role)
}

// Delete removes a custom role nobody holds.
func (s *Service) Delete(c *fiber.Ctx) error {
	actor, err := handler.Actor(c)
	if err != nil {
		return err
	}

	if err = s.svc.Roles.DeleteRole(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Clone copies a role under a new name.
func (s *Service) Clone(c *fiber.Ctx) error {
	actor, err := handler.Actor(c)
	if err != nil {
		return err
	}

	var req CloneRequest
	if err = handler.Bind(c, &req); err != nil {
		return err
	}

	role, err := s.svc.Roles.CloneRole(c.UserContext(), actor, c.Params("id"), req.Name)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(role)
}

// ToggleCategory adds or removes every permission of a category.
func (s *Service) ToggleCategory(c *fiber.Ctx) error {
	actor, err := handler.Actor(c)
	if err != nil {
		return err
	}

	category, err := models.ParseCategory(c.Params("category"))
	if err != nil {
		return handler.BadRequest("category: " + err.Error())
	}

	var req ToggleRequest
	if err = handler.Bind(c, &req); err != nil {
		return err
	}

	role, err := s.svc.Roles.ToggleCategoryPermissions(c.UserContext(), actor, c.Params("id"), category, req.Selected)
	if err != nil {
		return err
	}

	return c.JSON(role)
}

// Templates lists the blueprints for custom roles.
func (s *Service) Templates(c *fiber.Ctx) error {
	tpls := auth.Templates()
	out := make([]Template, 0, len(tpls))

	for _, t := range tpls {
		out = append(out, newTemplate(t))
	}

	return c.JSON(out)
}

// Instantiate creates a custom role from a template.
func (s *Service) Instantiate(c *fiber.Ctx) error {
	actor, err := handler.Actor(c)
	if err != nil {
		return err
	}

	tpl, ok := auth.TemplateByKey(c.Params("key"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown template "+c.Params("key"))
	}

	var req TemplateRequest
	if err = handler.Bind(c, &req); err != nil {
		return err
	}

	role, err := s.svc.Roles.InstantiateTemplate(c.UserContext(), actor, tpl, req.Name)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(role)
}

// Assignments lists who holds a role, optionally only those in effect at a time.
func (s *Service) Assignments(c *fiber.Ctx) error {
	at, err := handler.QueryTime(c, "at")
	if err != nil {
		return err
	}

	list, err := s.svc.Assignments.ListAssignmentsForRole(c.UserContext(), c.Params("id"), rbac.AssignmentListOptions{
		IncludeInactive: c.QueryBool("include_inactive"),
		InEffectAt:      at,
	})
	if err != nil {
		return err
	}

	return c.JSON(handler.Paginate(c, list))
}
