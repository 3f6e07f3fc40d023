// Package auth connects the authorization core to HTTP routes.
//
// The portal's permission identifiers, its protected system roles and the
// custom role templates live here, next to the fiber middleware that guards
// routes with an rbac.Gate.
//
// # Identity
//
// Authentication happens upstream. The gateway forwards the user id in a
// header (X-User-ID by default); Identity copies it into fiber locals where
// the guards read it. This package never reads sessions or cookies.
//
// # Guards
//
//   - RequirePermission: one permission
//   - RequireScopedPermission: one permission within a request scope
//   - RequireAnyPermission: at least one of several permissions
//   - RequireAllPermissions: every one of several permissions
//
// A missing identity yields 401. A denied decision, including one caused by a
// failed resolution, yields 403.
//
// Example:
//
//	app.Use(auth.Identity(cfg.Webserver.UserHeader))
//	app.Post("/grades", auth.RequireScopedPermission(svc.Gate, auth.PermGradesEdit,
//		auth.ScopeFromQuery("department")), handler)
package auth
