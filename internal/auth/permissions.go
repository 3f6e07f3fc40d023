package auth

import (
	"github.com/uniportal/uniportal-rbac/internal/db/models"
	"github.com/uniportal/uniportal-rbac/internal/rbac"
)

// Permission constants of the university portal.
// Route guards and UI code refer to these instead of string literals.
const (
	// PermCoursesView allows browsing the course catalog and schedules.
	PermCoursesView = "courses:view"
	// PermCoursesManage allows creating and editing courses and sections.
	PermCoursesManage = "courses:manage"
	// PermEnrollmentManage allows enrolling and dropping students.
	PermEnrollmentManage = "enrollment:manage"
	// PermGradesView allows viewing grades.
	PermGradesView = "grades:view"
	// PermGradesEdit allows entering and changing grades.
	PermGradesEdit = "grades:edit"
	// PermTranscriptsIssue allows issuing official transcripts.
	PermTranscriptsIssue = "transcripts:issue"

	// PermStudentsView allows viewing student records.
	PermStudentsView = "students:view"
	// PermStudentsManage allows editing student records.
	PermStudentsManage = "students:manage"
	// PermStaffManage allows managing staff and departments.
	PermStaffManage = "staff:manage"
	// PermReportsView allows viewing administrative reports.
	PermReportsView = "reports:view"

	// PermPaymentsView allows viewing tuition payments.
	PermPaymentsView = "payments:view"
	// PermPaymentsProcess allows recording payments.
	PermPaymentsProcess = "payments:process"
	// PermPaymentsRefund allows issuing refunds.
	PermPaymentsRefund = "payments:refund"
	// PermFeesManage allows editing fee schedules.
	PermFeesManage = "fees:manage"
	// PermScholarshipsManage allows granting scholarships.
	PermScholarshipsManage = "scholarships:manage"

	// PermPermissionsView allows viewing the permission catalog.
	PermPermissionsView = "permissions:view"
	// PermPermissionsManage allows editing the permission catalog.
	PermPermissionsManage = "permissions:manage"
	// PermRolesView allows viewing roles.
	PermRolesView = "roles:view"
	// PermRolesManage allows creating, editing, cloning and deleting roles.
	PermRolesManage = "roles:manage"
	// PermAssignmentsView allows viewing who holds which role.
	PermAssignmentsView = "assignments:view"
	// PermAssignmentsManage allows granting and removing roles.
	PermAssignmentsManage = "assignments:manage"
	// PermAuditView allows reading the audit log.
	PermAuditView = "audit:view"
	// PermAccessCheck allows checking the permissions of other users.
	PermAccessCheck = "access:check"

	// PermAnnouncementsPublish allows publishing announcements.
	PermAnnouncementsPublish = "announcements:publish"
	// PermMessagesSend allows messaging students and staff.
	PermMessagesSend = "messages:send"
	// PermTicketsView allows viewing support tickets.
	PermTicketsView = "tickets:view"
	// PermTicketsRespond allows answering support tickets.
	PermTicketsRespond = "tickets:respond"
)

// Permissions returns the catalog entries the portal ships with.
func Permissions() []rbac.PermissionSpec {
	academic := models.CategoryAcademic
	admin := models.CategoryAdministrative
	finance := models.CategoryFinancial
	system := models.CategorySystem
	comm := models.CategoryCommunication

	return []rbac.PermissionSpec{
		{ID: PermCoursesView, Name: "View courses", Description: "Browse the course catalog and schedules", Category: academic},
		{ID: PermCoursesManage, Name: "Manage courses", Description: "Create and edit courses and sections", Category: academic},
		{ID: PermEnrollmentManage, Name: "Manage enrollment", Description: "Enroll and drop students", Category: academic},
		{ID: PermGradesView, Name: "View grades", Description: "View grades", Category: academic},
		{ID: PermGradesEdit, Name: "Edit grades", Description: "Enter and change grades", Category: academic},
		{ID: PermTranscriptsIssue, Name: "Issue transcripts", Description: "Issue official transcripts", Category: academic},

		{ID: PermStudentsView, Name: "View students", Description: "View student records", Category: admin},
		{ID: PermStudentsManage, Name: "Manage students", Description: "Edit student records", Category: admin},
		{ID: PermStaffManage, Name: "Manage staff", Description: "Manage staff and departments", Category: admin},
		{ID: PermReportsView, Name: "View reports", Description: "View administrative reports", Category: admin},

		{ID: PermPaymentsView, Name: "View payments", Description: "View tuition payments", Category: finance},
		{ID: PermPaymentsProcess, Name: "Process payments", Description: "Record payments", Category: finance},
		{ID: PermPaymentsRefund, Name: "Refund payments", Description: "Issue refunds", Category: finance},
		{ID: PermFeesManage, Name: "Manage fees", Description: "Edit fee schedules", Category: finance},
		{ID: PermScholarshipsManage, Name: "Manage scholarships", Description: "Grant scholarships", Category: finance},

		{ID: PermPermissionsView, Name: "View permissions", Description: "View the permission catalog", Category: system},
		{ID: PermPermissionsManage, Name: "Manage permissions", Description: "Edit the permission catalog", Category: system},
		{ID: PermRolesView, Name: "View roles", Description: "View roles", Category: system},
		{ID: PermRolesManage, Name: "Manage roles", Description: "Create, edit, clone and delete roles", Category: system},
		{ID: PermAssignmentsView, Name: "View assignments", Description: "See who holds which role", Category: system},
		{ID: PermAssignmentsManage, Name: "Manage assignments", Description: "Grant and remove roles", Category: system},
		{ID: PermAuditView, Name: "View audit log", Description: "Read the audit log", Category: system},
		{ID: PermAccessCheck, Name: "Check access", Description: "Check the permissions of other users", Category: system},

		{ID: PermAnnouncementsPublish, Name: "Publish announcements", Description: "Publish announcements", Category: comm},
		{ID: PermMessagesSend, Name: "Send messages", Description: "Message students and staff", Category: comm},
		{ID: PermTicketsView, Name: "View tickets", Description: "View support tickets", Category: comm},
		{ID: PermTicketsRespond, Name: "Respond to tickets", Description: "Answer support tickets", Category: comm},
	}
}

// PermissionIDs returns the identifiers of Permissions.
func PermissionIDs() []string {
	specs := Permissions()
	ids := make([]string, 0, len(specs))

	for _, s := range specs {
		ids = append(ids, s.ID)
	}

	return ids
}
