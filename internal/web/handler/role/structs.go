package role

import "github.com/uniportal/uniportal-rbac/internal/rbac"

// CloneRequest is the body of the clone endpoint.
type CloneRequest struct {
	Name string `json:"name"`
}

// ToggleRequest is the body of the category toggle endpoint.
type ToggleRequest struct {
	Selected bool `json:"selected"`
}

// TemplateRequest is the body of the template instantiation endpoint.
type TemplateRequest struct {
	Name string `json:"name"`
}

// Template describes a role blueprint offered on role creation.
type Template struct {
	Key           string   `json:"key"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Level         int      `json:"level"`
	PermissionIDs []string `json:"permissions"`
}

func newTemplate(t rbac.RoleTemplate) Template {
	return Template{
		Key:           t.Key,
		Name:          t.Name,
		Description:   t.Description,
		Category:      string(t.Category),
		Level:         t.Level,
		PermissionIDs: t.PermissionIDs,
	}
}
