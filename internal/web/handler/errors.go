package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/uniportal/uniportal-rbac/internal/rbac"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error    string            `json:"error"`
	Kind     rbac.Kind         `json:"kind,omitempty"`
	Fields   []rbac.FieldError `json:"fields,omitempty"`
	Blocking []rbac.Reference  `json:"blocking,omitempty"`
}

// StatusOf maps an error kind to a HTTP status code.
func StatusOf(kind rbac.Kind) int {
	switch kind {
	case rbac.KindValidation, rbac.KindInvalidExpiry, rbac.KindRoleInactive:
		return fiber.StatusUnprocessableEntity
	case rbac.KindNotFound:
		return fiber.StatusNotFound
	case rbac.KindDuplicateIdentifier, rbac.KindReferentialConflict, rbac.KindConcurrentUpdate:
		return fiber.StatusConflict
	case rbac.KindSystemRoleImmutable:
		return fiber.StatusForbidden
	case rbac.KindResolutionUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders errors returned by handlers as ErrorResponse.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{Error: fe.Message})
	}

	kind := rbac.KindOf(err)
	status := StatusOf(kind)
	resp := ErrorResponse{Error: err.Error(), Kind: kind}

	var verr *rbac.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}

	var cerr *rbac.ConflictError
	if errors.As(err, &cerr) {
		resp.Blocking = cerr.Blocking
	}

	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")

		resp = ErrorResponse{Error: "internal server error", Kind: rbac.KindUnknown}
	}

	return c.Status(status).JSON(resp)
}

// BadRequest wraps a malformed input into a 400 error.
func BadRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}
