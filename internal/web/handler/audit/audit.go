// Package audit serves the audit log.
package audit

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/uniportal/uniportal-rbac/internal/auth"
	"github.com/uniportal/uniportal-rbac/internal/db/models"
	"github.com/uniportal/uniportal-rbac/internal/rbac"
	"github.com/uniportal/uniportal-rbac/internal/web/handler"
)

const (
	// Path of the audit endpoint.
	Path = "/audit"

	// DefaultLimit caps the entries fetched when no limit is given.
	DefaultLimit = 1000
)

// Service is the audit handler service.
type Service struct {
	handler.Service
	svc *rbac.Service
}

var (
	// Handler is the audit handler.
	Handler = Service{}
)

// Init registers the audit routes.
func (s *Service) Init(router fiber.Router, svc *rbac.Service) {
	if router == nil || svc == nil {
		log.Fatal().Msg(handler.ErrNilFatalLogMsg)
		return
	}

	s.svc = svc

	router.Get(Path, auth.RequirePermission(svc.Gate, auth.PermAuditView), s.List)
}

// List returns audit entries, oldest first, filtered by the query parameters
// actor, action, target_kind, target_id, tx_id, from, to and limit.
func (s *Service) List(c *fiber.Ctx) error {
	from, err := handler.QueryTime(c, "from")
	if err != nil {
		return err
	}

	to, err := handler.QueryTime(c, "to")
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", DefaultLimit)
	if limit < 1 {
		limit = DefaultLimit
	}

	entries, err := s.svc.Audit.History(c.UserContext(), rbac.AuditFilter{
		Actor:      c.Query("actor"),
		Action:     models.AuditAction(c.Query("action")),
		TargetKind: models.AuditTarget(c.Query("target_kind")),
		TargetID:   c.Query("target_id"),
		TxID:       c.Query("tx_id"),
		From:       from,
		To:         to,
		Limit:      limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(handler.Paginate(c, entries))
}
