package models

import (
	"errors"
	"strings"
)

// Category groups permissions and roles by functional area of the portal.
type Category string

const (
	// CategoryAcademic covers courses, grades and enrollment.
	CategoryAcademic Category = "academic"
	// CategoryAdministrative covers staff, departments and records management.
	CategoryAdministrative Category = "administrative"
	// CategoryFinancial covers tuition, payments and refunds.
	CategoryFinancial Category = "financial"
	// CategorySystem covers roles, permissions and platform settings.
	CategorySystem Category = "system"
	// CategoryCommunication covers announcements, messages and support tickets.
	CategoryCommunication Category = "communication"
)

// ErrUnknownCategory is returned when a string does not name a known category.
var ErrUnknownCategory = errors.New("unknown category")

// Categories returns every known category in display order.
func Categories() []Category {
	return []Category{
		CategoryAcademic,
		CategoryAdministrative,
		CategoryFinancial,
		CategorySystem,
		CategoryCommunication,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}

	return false
}

// ParseCategory converts s into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrUnknownCategory
	}

	return c, nil
}
