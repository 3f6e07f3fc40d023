package auth

import (
	"github.com/uniportal/uniportal-rbac/internal/db/models"
	"github.com/uniportal/uniportal-rbac/internal/rbac"
)

// Names of the system roles.
const (
	RoleAdministrator = "Administrator"
	RoleRegistrar     = "Registrar"
	RoleBursar        = "Bursar"
	RoleLecturer      = "Lecturer"
	RoleStudent       = "Student"
	RoleSupport       = "Support Agent"
)

// SystemRoles returns the protected roles installed by migrate.
func SystemRoles() []rbac.RoleTemplate {
	return []rbac.RoleTemplate{
		{
			Key:           "administrator",
			Name:          RoleAdministrator,
			Description:   "Full access to the portal",
			Category:      models.CategorySystem,
			Level:         10, //nolint:mnd
			PermissionIDs: PermissionIDs(),
		},
		{
			Key:         "registrar",
			Name:        RoleRegistrar,
			Description: "Maintains courses, enrollment, grades and transcripts",
			Category:    models.CategoryAcademic,
			Level:       7, //nolint:mnd
			PermissionIDs: []string{
				PermCoursesView, PermCoursesManage, PermEnrollmentManage,
				PermGradesView, PermGradesEdit, PermTranscriptsIssue, PermStudentsView,
			},
		},
		{
			Key:         "bursar",
			Name:        RoleBursar,
			Description: "Handles tuition, fees and refunds",
			Category:    models.CategoryFinancial,
			Level:       7, //nolint:mnd
			PermissionIDs: []string{
				PermPaymentsView, PermPaymentsProcess, PermPaymentsRefund,
				PermFeesManage, PermScholarshipsManage, PermStudentsView,
			},
		},
		{
			Key:           "lecturer",
			Name:          RoleLecturer,
			Description:   "Teaches courses and grades students",
			Category:      models.CategoryAcademic,
			Level:         5, //nolint:mnd
			PermissionIDs: []string{PermCoursesView, PermGradesView, PermGradesEdit, PermMessagesSend},
		},
		{
			Key:           "student",
			Name:          RoleStudent,
			Description:   "Enrolled student",
			Category:      models.CategoryAcademic,
			Level:         1,
			PermissionIDs: []string{PermCoursesView, PermGradesView, PermPaymentsView},
		},
		{
			Key:           "support",
			Name:          RoleSupport,
			Description:   "Answers support tickets",
			Category:      models.CategoryCommunication,
			Level:         3, //nolint:mnd
			PermissionIDs: []string{PermTicketsView, PermTicketsRespond, PermAnnouncementsPublish, PermStudentsView},
		},
	}
}

// Templates returns blueprints for custom roles the UI offers on role creation.
func Templates() []rbac.RoleTemplate {
	return []rbac.RoleTemplate{
		{
			Key:           "teaching-assistant",
			Name:          "Teaching Assistant",
			Description:   "Helps lecturers with grading",
			Category:      models.CategoryAcademic,
			Level:         3, //nolint:mnd
			PermissionIDs: []string{PermCoursesView, PermGradesView, PermGradesEdit},
		},
		{
			Key:         "department-head",
			Name:        "Department Head",
			Description: "Oversees a department",
			Category:    models.CategoryAdministrative,
			Level:       8, //nolint:mnd
			PermissionIDs: []string{
				PermCoursesView, PermCoursesManage, PermGradesView, PermStaffManage,
				PermReportsView, PermAssignmentsView, PermAnnouncementsPublish,
			},
		},
		{
			Key:           "auditor",
			Name:          "Auditor",
			Description:   "Read only access to roles, assignments and the audit log",
			Category:      models.CategorySystem,
			Level:         6, //nolint:mnd
			PermissionIDs: []string{PermPermissionsView, PermRolesView, PermAssignmentsView, PermAuditView, PermAccessCheck},
		},
	}
}

// TemplateByKey looks a template up among Templates and SystemRoles.
func TemplateByKey(key string) (rbac.RoleTemplate, bool) {
	for _, tpl := range append(Templates(), SystemRoles()...) {
		if tpl.Key == key {
			return tpl, true
		}
	}

	return rbac.RoleTemplate{}, false
}
