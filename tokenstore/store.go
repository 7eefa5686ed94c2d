package tokenstore

import (
	"github.com/jrsteele09/go-session-client/users"
	"github.com/pkg/errors"
)

// Logical keys for the persisted session fields.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserData     = "userData"
)

var (
	IncompleteSessionErr = errors.New("access and refresh tokens must be saved together")
	NoActiveSessionErr   = errors.New("no active session")
)

// Session is the authenticated state: both tokens plus an optional cached
// user snapshot. The tokens are either both present (active) or both absent
// (anonymous); the snapshot may be absent even when tokens are present but
// never the other way around.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *users.Profile
}

// Active reports whether the session holds a token pair.
func (s Session) Active() bool {
	return s.AccessToken != "" && s.RefreshToken != ""
}

// Store is durable, synchronous-read key/value storage for the session
// fields. Reads have no error path; absence is a valid state. Every
// mutating operation publishes exactly one event on the bus the store was
// constructed with.
type Store interface {
	// Get returns the raw value stored under one of the Key constants.
	Get(key string) (string, bool)

	AccessToken() (string, bool)
	RefreshToken() (string, bool)
	User() (*users.Profile, bool)

	// SaveSession writes both tokens and the optional user snapshot
	// together. Returns IncompleteSessionErr if either token is empty.
	SaveSession(session Session) error

	// SaveAccessToken overwrites the access token after a refresh.
	// Returns NoActiveSessionErr when no refresh token is stored, so a
	// lone access token can never be persisted.
	SaveAccessToken(token string) error

	// SaveUser overwrites the cached user snapshot. Returns
	// NoActiveSessionErr when no token pair is stored.
	SaveUser(profile *users.Profile) error

	// Clear removes all three keys unconditionally. Idempotent.
	Clear() error
}
