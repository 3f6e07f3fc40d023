package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies errors returned by the authorization core.
type Kind string

const (
	KindUnknown               Kind = "unknown"
	KindValidation            Kind = "validation"
	KindNotFound              Kind = "not_found"
	KindDuplicateIdentifier   Kind = "duplicate_identifier"
	KindSystemRoleImmutable   Kind = "system_role_immutable"
	KindReferentialConflict   Kind = "referential_conflict"
	KindInvalidExpiry         Kind = "invalid_expiry"
	KindRoleInactive          Kind = "role_inactive"
	KindConcurrentUpdate      Kind = "concurrent_update"
	KindResolutionUnavailable Kind = "resolution_unavailable"
)

var (
	// ErrValidation is the base error of every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an identifier does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrPermissionNotFound is returned when a permission id is unknown to the catalog.
	ErrPermissionNotFound = fmt.Errorf("permission %w", ErrNotFound)

	// ErrRoleNotFound is returned when a role id is unknown to the registry.
	ErrRoleNotFound = fmt.Errorf("role %w", ErrNotFound)

	// ErrAssignmentNotFound is returned when an assignment id is unknown to the ledger.
	ErrAssignmentNotFound = fmt.Errorf("assignment %w", ErrNotFound)

	// ErrDuplicateIdentifier is returned when a create or clone collides with an existing id or name.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrSystemRoleImmutable is returned on attempts to edit or delete a protected system role.
	ErrSystemRoleImmutable = errors.New("this is a protected system role")

	// ErrReferentialConflict is the base error of every ConflictError.
	ErrReferentialConflict = errors.New("referential conflict")

	// ErrInvalidExpiry is returned when an expiry is not strictly in the future.
	ErrInvalidExpiry = errors.New("expiry must be after the assignment time and in the future")

	// ErrRoleInactive is returned when assigning a deactivated role.
	ErrRoleInactive = errors.New("role is inactive")

	// ErrConcurrentModification is returned when a compare-and-set write lost a race.
	ErrConcurrentModification = errors.New("record was modified concurrently")

	// ErrResolutionUnavailable is returned when effective permissions cannot be computed.
	ErrResolutionUnavailable = errors.New("resolution unavailable")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of a request, not just the first.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Add appends a field violation.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Empty reports whether no violation was recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns e as an error if it holds violations, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}

	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}

	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Reference points at a record blocking a delete or edit.
type Reference struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// ConflictError is returned when live references block an operation.
// Blocking lists every reference so the caller can cascade or abort.
type ConflictError struct {
	Target   string      `json:"target"`
	Blocking []Reference `json:"blocking"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s is referenced by %d record(s)", ErrReferentialConflict, e.Target, len(e.Blocking))
}

// Unwrap returns ErrReferentialConflict.
func (e *ConflictError) Unwrap() error {
	return ErrReferentialConflict
}

// UnavailableError wraps the store failure that prevented a resolution.
type UnavailableError struct {
	UserID string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s for user %s: %v", ErrResolutionUnavailable, e.UserID, e.Err)
}

// Is matches ErrResolutionUnavailable.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrResolutionUnavailable
}

// Unwrap returns the underlying store error.
func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// KindOf classifies err. Errors not produced by this package yield KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrResolutionUnavailable):
		return KindResolutionUnavailable
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicateIdentifier):
		return KindDuplicateIdentifier
	case errors.Is(err, ErrSystemRoleImmutable):
		return KindSystemRoleImmutable
	case errors.Is(err, ErrReferentialConflict):
		return KindReferentialConflict
	case errors.Is(err, ErrInvalidExpiry):
		return KindInvalidExpiry
	case errors.Is(err, ErrRoleInactive):
		return KindRoleInactive
	case errors.Is(err, ErrConcurrentModification):
		return KindConcurrentUpdate
	default:
		return KindUnknown
	}
}
