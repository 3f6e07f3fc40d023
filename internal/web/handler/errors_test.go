package handler

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/uniportal/uniportal-rbac/internal/rbac"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		kind rbac.Kind
		want int
	}{
		{rbac.KindValidation, fiber.StatusUnprocessableEntity},
		{rbac.KindInvalidExpiry, fiber.StatusUnprocessableEntity},
		{rbac.KindRoleInactive, fiber.StatusUnprocessableEntity},
		{rbac.KindNotFound, fiber.StatusNotFound},
		{rbac.KindDuplicateIdentifier, fiber.StatusConflict},
		{rbac.KindReferentialConflict, fiber.StatusConflict},
		{rbac.KindConcurrentUpdate, fiber.StatusConflict},
		{rbac.KindSystemRoleImmutable, fiber.StatusForbidden},
		{rbac.KindResolutionUnavailable, fiber.StatusServiceUnavailable},
		{rbac.KindUnknown, fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.kind))
		})
	}
}
