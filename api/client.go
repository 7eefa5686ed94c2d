package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultTimeout = 30 * time.Second

// Client issues calls against the auth backend. It knows nothing about
// stored sessions; credentials are passed in explicitly by the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// ClientOption modifies the Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily to set
// timeouts or inject a test transport).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = logger
	}
}

// New creates a backend client rooted at baseURL.
func New(baseURL string, options ...ClientOption) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log.Logger,
	}
	for _, opt := range options {
		opt(client)
	}
	return client
}

// Do performs a single request and returns the backend's answer whatever
// its status. The returned error is non-nil only for transport failures
// (unreachable backend, timeout, cancelled context).
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Do] http.NewRequestWithContext")
	}
	for key, values := range req.Header {
		httpReq.Header[key] = values
	}
	if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("X-Request-ID", uuid.New().String())

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.Do] %s %s", req.Method, req.Path)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.Do] reading %s %s response", req.Method, req.Path)
	}

	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", httpResp.StatusCode).
		Msg("backend call")

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, identifier, secret string) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.postJSON(ctx, RouteLogin, Credentials{Identifier: identifier, Secret: secret}, &out); err != nil {
		return nil, errors.Wrap(err, "[Client.Login]")
	}
	return &out, nil
}

// Refresh exchanges the refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var out refreshResponse
	if err := c.postJSON(ctx, RouteRefresh, refreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return "", errors.Wrap(err, "[Client.Refresh]")
	}
	return out.AccessToken, nil
}

// Logout asks the backend to invalidate the refresh token server-side.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	if err := c.postJSON(ctx, RouteLogout, logoutRequest{RefreshToken: refreshToken}, nil); err != nil {
		return errors.Wrap(err, "[Client.Logout]")
	}
	return nil
}

// Register submits a new profile with credentials. No tokens are issued by
// registration alone.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*users.Profile, error) {
	var out users.Profile
	if err := c.postJSON(ctx, RouteRegister, req, &out); err != nil {
		return nil, errors.Wrap(err, "[Client.Register]")
	}
	return &out, nil
}

// Me fetches the profile of the user the access token belongs to.
func (c *Client) Me(ctx context.Context, accessToken string) (*users.Profile, error) {
	req := &Request{Method: http.MethodGet, Path: RouteMe}
	req.SetBearer(accessToken)

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Me]")
	}
	if !resp.OK() {
		return nil, errors.Wrap(statusError(resp), "[Client.Me]")
	}
	var out users.Profile
	if err := resp.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "[Client.Me] decode")
	}
	return &out, nil
}

// postJSON posts payload to path and decodes a 2xx body into out (out may
// be nil). Non-2xx answers come back as a *StatusError.
func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "json.Marshal")
	}

	resp, err := c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// statusError builds a StatusError from a non-2xx response, preferring the
// backend-supplied {"error": ...} message.
func statusError(resp *Response) *StatusError {
	var body errorBody
	reason := http.StatusText(resp.StatusCode)
	if err := resp.Decode(&body); err == nil && body.Error != "" {
		reason = body.Error
	}
	return &StatusError{StatusCode: resp.StatusCode, Reason: reason}
}
