package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-session-client/users"
)

// Backend endpoint paths.
const (
	RouteLogin    = "/auth/login"
	RouteRefresh  = "/auth/refresh"
	RouteLogout   = "/auth/logout"
	RouteMe       = "/auth/me"
	RouteRegister = "/clients"
)

// Credentials is the login request payload.
type Credentials struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// LoginResponse is the successful login payload. User may be omitted by the
// backend; the session service then fetches the profile separately.
type LoginResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         *users.Profile `json:"user,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RegisterRequest is the full profile plus credential payload submitted to
// the registration endpoint.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
	Password string `json:"password"`
}

type errorBody struct {
	Error string `json:"error"`
}

// StatusError is a response the backend answered with a non-2xx status.
// Reason carries the backend-supplied human-readable message when the body
// held one. Transport failures are never reported as a StatusError.
type StatusError struct {
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Reason)
}

// Unauthorized reports whether the status is the authorization class,
// meaning the credential was invalid or expired.
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Request describes a single HTTP-style call against the backend. Body and
// Header are kept so the request can be replayed byte-identical after a
// token refresh.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Header http.Header
}

// Clone returns a copy whose header can be mutated without affecting the
// original.
func (r *Request) Clone() *Request {
	clone := &Request{
		Method: r.Method,
		Path:   r.Path,
		Body:   r.Body,
		Header: make(http.Header, len(r.Header)),
	}
	for key, values := range r.Header {
		clone.Header[key] = append([]string(nil), values...)
	}
	return clone
}

// SetBearer attaches the access token as a bearer credential.
func (r *Request) SetBearer(token string) {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set("Authorization", "Bearer "+token)
}

// Response is the outcome of a Request the backend actually answered.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is in the 2xx class.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Unauthorized reports whether the status is the authorization class.
func (r *Response) Unauthorized() bool {
	return r.StatusCode == http.StatusUnauthorized
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}
