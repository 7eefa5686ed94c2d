package session

import "errors"

var (
	// ErrInvalidCredentials is returned when the backend rejects a login.
	// Recoverable; the user retries their credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionExpired is returned when a refresh fails or no refresh
	// token exists for an authenticated call. Not locally recoverable:
	// the session has been cleared and the user must re-authenticate.
	ErrSessionExpired = errors.New("session expired")
)

// ValidationError is a registration payload the backend rejected. Reason is
// the backend-supplied human-readable message (e.g. a duplicate email).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
