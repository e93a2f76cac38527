package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// ErrCheckFailed is the fail-closed outcome when policy evaluation hits an
	// unexpected internal error. It maps to a generic 5xx, distinct from the
	// forbidden responses carried by policy denials.
	ErrCheckFailed = errors.New("security check failed")
)
