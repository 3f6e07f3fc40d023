package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/uniportal/uniportal-rbac/internal/rbac"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(router fiber.Router, svc *rbac.Service)
}
