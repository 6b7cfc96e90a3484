package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. It carries no detail
	// about which field failed or whether the account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccessDenied indicates the authorization engine denied an operation.
	ErrAccessDenied = errors.New("access denied")
	// ErrProtectedEntity indicates an attempt to mutate or delete a
	// system-protected role or the default super-admin account.
	ErrProtectedEntity = errors.New("protected entity")
	// ErrSelfDeletion indicates a caller tried to delete its own account.
	ErrSelfDeletion = errors.New("self deletion")
	// ErrConflict indicates a uniqueness violation (duplicate username or id).
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates the request payload failed input validation.
	ErrValidation = errors.New("validation failed")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
