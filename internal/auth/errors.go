package auth

import "errors"

// ErrNoIdentity is returned when a request carries no authenticated user id.
var ErrNoIdentity = errors.New("unauthorized: no user identity on request")
