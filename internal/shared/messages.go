package shared

import "errors"

// UserSafeMessage maps an internal error to a message that can be shown to a
// client without leaking implementation detail. Authorization failures name
// the denied capability category at the call site via DeniedMessage; this
// fallback covers everything else.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, ErrSelfDeletion):
		return "You cannot delete your own account"
	case errors.Is(err, ErrProtectedEntity):
		return "This record is system-protected and cannot be changed"
	case errors.Is(err, ErrAccessDenied):
		return "Access Denied"
	case errors.Is(err, ErrNotFound):
		return "Record not found"
	case errors.Is(err, ErrConflict):
		return "A record with that identifier already exists"
	case errors.Is(err, ErrValidation):
		return "The submitted data is invalid"
	default:
		return "The operation could not be completed"
	}
}

// DeniedMessage builds the user-facing text for an authorization denial,
// naming the missing capability category rather than the raw permission key.
func DeniedMessage(what string) string {
	return "Access Denied: you do not have permission to " + what
}
