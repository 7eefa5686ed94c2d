package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/tokenstore"
	"github.com/jrsteele09/go-session-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Service holds, renews and surfaces the tokens issued by the auth backend.
// There is at most one session per Service: login establishes it, refresh
// renews the access token in place, and logout, an unrecoverable refresh
// failure or a fatal authorization failure destroys it.
type Service struct {
	store        tokenstore.Store
	api          *api.Client
	log          zerolog.Logger
	nowTime      func() time.Time
	refreshGroup singleflight.Group
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithLogger replaces the default logger.
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = logger
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// New initializes a Service with its required dependencies.
func New(store tokenstore.Store, client *api.Client, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("[session.New] store is required")
	}
	if client == nil {
		return nil, errors.New("[session.New] api client is required")
	}

	service := &Service{
		store:   store,
		api:     client,
		log:     log.Logger,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(service)
	}
	return service, nil
}

// Register submits identity and credential data to the backend. On success
// the created profile is returned but no session is established; callers
// chain a Login afterward. A rejected payload comes back as a
// *ValidationError carrying the backend's reason.
func (s *Service) Register(ctx context.Context, req api.RegisterRequest) (*users.Profile, error) {
	profile, err := s.api.Register(ctx, req)
	if err != nil {
		var statusErr *api.StatusError
		if errors.As(err, &statusErr) {
			return nil, &ValidationError{Reason: statusErr.Reason}
		}
		return nil, errors.Wrap(err, "[Service.Register]")
	}
	return profile, nil
}

// Login exchanges credentials for a session. The token pair is written
// together with a best-effort user snapshot; a failed snapshot fetch never
// fails the login. Exactly one session event is published on success, none
// on failure.
func (s *Service) Login(ctx context.Context, identifier, secret string) (*tokenstore.Session, error) {
	resp, err := s.api.Login(ctx, identifier, secret)
	if err != nil {
		var statusErr *api.StatusError
		if errors.As(err, &statusErr) {
			return nil, errors.Wrap(ErrInvalidCredentials, statusErr.Reason)
		}
		return nil, errors.Wrap(err, "[Service.Login]")
	}

	sess := tokenstore.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         resp.User,
	}
	if sess.User == nil {
		profile, err := s.api.Me(ctx, resp.AccessToken)
		if err != nil {
			s.log.Warn().Err(err).Msg("profile snapshot fetch failed, logging in without it")
		} else {
			sess.User = profile
		}
	}

	if err := s.store.SaveSession(sess); err != nil {
		return nil, errors.Wrap(err, "[Service.Login] SaveSession")
	}
	return &sess, nil
}

// Logout best-effort-notifies the backend, then clears the local session.
// It always succeeds from the caller's point of view: local clearing is
// never blocked by backend unavailability, and repeated calls converge to
// the same anonymous state.
func (s *Service) Logout(ctx context.Context) error {
	if refreshToken, ok := s.store.RefreshToken(); ok {
		if err := s.api.Logout(ctx, refreshToken); err != nil {
			s.log.Warn().Err(err).Msg("backend logout notification failed")
		}
	}
	if err := s.store.Clear(); err != nil {
		return errors.Wrap(err, "[Service.Logout] Clear")
	}
	return nil
}

// Refresh exchanges the stored refresh token for a new access token and
// persists it. A backend rejection clears the entire session and returns
// ErrSessionExpired; a transport failure leaves the session untouched.
// Concurrent callers share a single in-flight refresh.
func (s *Service) Refresh(ctx context.Context) (string, error) {
	token, err, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (s *Service) refresh(ctx context.Context) (string, error) {
	refreshToken, ok := s.store.RefreshToken()
	if !ok {
		if err := s.store.Clear(); err != nil {
			s.log.Warn().Err(err).Msg("clearing session without refresh token")
		}
		return "", errors.Wrap(ErrSessionExpired, "no refresh token stored")
	}

	accessToken, err := s.api.Refresh(ctx, refreshToken)
	if err != nil {
		var statusErr *api.StatusError
		if !errors.As(err, &statusErr) {
			return "", errors.Wrap(err, "[Service.Refresh]")
		}
		if err := s.store.Clear(); err != nil {
			s.log.Warn().Err(err).Msg("clearing session after refresh rejection")
		}
		return "", errors.Wrap(ErrSessionExpired, statusErr.Reason)
	}

	if err := s.store.SaveAccessToken(accessToken); err != nil {
		return "", errors.Wrap(err, "[Service.Refresh] SaveAccessToken")
	}
	return accessToken, nil
}

// IsAuthenticated reports whether an access token is currently stored.
// A pure read, no network.
func (s *Service) IsAuthenticated() bool {
	_, ok := s.store.AccessToken()
	return ok
}

// CurrentUser returns the cached user snapshot. A pure read, no network.
func (s *Service) CurrentUser() (*users.Profile, bool) {
	return s.store.User()
}

// AccessTokenExpiresAt reads the exp claim of the stored access token
// without verifying its signature (the client holds no keys). Returns false
// when no token is stored or it carries no parseable expiry.
func (s *Service) AccessTokenExpiresAt() (time.Time, bool) {
	raw, ok := s.store.AccessToken()
	if !ok {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// AccessTokenExpired reports whether the stored access token carries an exp
// claim in the past. Opaque tokens report false; the backend stays the
// authority either way.
func (s *Service) AccessTokenExpired() bool {
	expiry, ok := s.AccessTokenExpiresAt()
	if !ok {
		return false
	}
	return expiry.Before(s.nowTime())
}

// Executor returns the authenticated-call entry point bound to this
// service's store and refresh path.
func (s *Service) Executor() *Executor {
	return &Executor{
		store:     s.store,
		api:       s.api,
		refresher: s,
		log:       s.log,
	}
}
