package rbac

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/uniportal/uniportal-rbac/internal/db/models"
)

// permissionIDPattern accepts ids like "grades:edit" or "finance.refunds:approve".
var permissionIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_.-]*:[a-z][a-z0-9_.-]*$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names so a UI can map errors to its form fields
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}

		return name
	})

	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.Category(fl.Field().String()).Valid()
	})

	_ = v.RegisterValidation("permid", func(fl validator.FieldLevel) bool {
		return permissionIDPattern.MatchString(fl.Field().String())
	})

	return v
}

// collect validates s and appends every violation to verr, prefixing field names.
func (c *core) collect(s any, prefix string, verr *ValidationError) {
	err := c.validate.Struct(s)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add(prefix+"request", err.Error())
		return
	}

	for _, fe := range fieldErrs {
		verr.Add(prefix+fe.Field(), describe(fe))
	}
}

func (c *core) checkLevel(level int, field string, verr *ValidationError) {
	if level < c.minLevel || level > c.maxLevel {
		verr.Add(field, fmt.Sprintf("must be between %d and %d", c.minLevel, c.maxLevel))
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " item(s)"
		}

		return "must not be empty"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "category":
		return "must be one of " + categoryList()
	case "permid":
		return "must look like resource:action (lowercase)"
	default:
		return "failed on " + fe.Tag()
	}
}

func categoryList() string {
	names := make([]string, 0, len(models.Categories()))
	for _, c := range models.Categories() {
		names = append(names, string(c))
	}

	return strings.Join(names, ", ")
}
