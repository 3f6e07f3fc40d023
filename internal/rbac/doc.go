// Package rbac implements the authorization core of the university portal.
//
// The core is made of six components sharing one Store:
//   - Catalog: the universe of permissions, each tagged with a category
//   - Registry: roles bundling permissions, with system role protection
//   - Ledger: time bounded, optionally scoped role assignments of users
//   - Resolver: computes the effective permission set of a user at an instant
//   - Gate: answers permission checks and fails closed
//   - AuditLog: append-only history of every mutation
//
// # Resolution
//
// An assignment is in effect at T when it is active, not expired at T and its
// role is active. The effective permission set is the plain union of the
// permissions of every role referenced by an in-effect assignment. There is
// no deny and no precedence. Expiry and role deactivation are evaluated at
// resolution time, so revocation needs no background job.
//
// # Consistency
//
// Every mutation runs inside Store.Transaction and writes its audit entries in
// the same transaction. Resolutions read inside a transaction as well. Cached
// resolutions are invalidated before a mutating call returns.
//
// Example usage:
//
//	svc := rbac.NewService(store.New(db), rbac.DefaultOptions())
//
//	d := svc.Gate.HasPermission(ctx, userID, "grades:edit", &rbac.CheckContext{
//	    Scope: models.Scope{"department": "Computer Science"},
//	})
//	if !d.Granted {
//	    return fiber.ErrForbidden
//	}
package rbac
