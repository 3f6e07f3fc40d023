package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/uniportal/uniportal-rbac/internal/auth"
	"github.com/uniportal/uniportal-rbac/internal/db/models"
)

// Actor returns the user id of the caller, used as actor of audited mutations.
func Actor(c *fiber.Ctx) (string, error) {
	id, err := auth.UserID(c)
	if err != nil {
		return "", fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	return id, nil
}

// Bind parses the JSON body into out.
func Bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return BadRequest("malformed request body: " + err.Error())
	}

	return nil
}

// QueryTime parses an optional RFC 3339 query parameter.
func QueryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil //nolint:nilnil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, BadRequest(key + " must be an RFC 3339 timestamp")
	}

	t = t.UTC()

	return &t, nil
}

// QueryBool parses an optional boolean query parameter.
func QueryBool(c *fiber.Ctx, key string) (*bool, error) {
	if c.Query(key) == "" {
		return nil, nil //nolint:nilnil
	}

	switch c.Query(key) {
	case "true", "1":
		v := true
		return &v, nil
	case "false", "0":
		v := false
		return &v, nil
	default:
		return nil, BadRequest(key + " must be true or false")
	}
}

// QueryCategory parses an optional category query parameter.
func QueryCategory(c *fiber.Ctx, key string) (models.Category, error) {
	raw := c.Query(key)
	if raw == "" {
		return "", nil
	}

	cat, err := models.ParseCategory(raw)
	if err != nil {
		return "", BadRequest(key + ": " + err.Error())
	}

	return cat, nil
}

// QueryScope parses an optional "key=value,key=value" scope query parameter.
func QueryScope(c *fiber.Ctx, key string) (models.Scope, error) {
	s, err := models.ParseScope(c.Query(key))
	if err != nil {
		return nil, BadRequest(err.Error())
	}

	return s, nil
}
