package session

import (
	"context"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/tokenstore"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Refresher renews the access token. Implemented by Service; a fatal
// failure clears the session before the error is returned.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Executor performs a single request against the backend, attaching the
// stored bearer token and transparently handling access-token expiry
// exactly once per logical call: attempt, maybe refresh, replay once.
type Executor struct {
	store     tokenstore.Store
	api       *api.Client
	refresher Refresher
	log       zerolog.Logger
}

// NewExecutor wires an executor from its parts. Most callers use
// Service.Executor instead.
func NewExecutor(store tokenstore.Store, client *api.Client, refresher Refresher) (*Executor, error) {
	if store == nil {
		return nil, errors.New("[NewExecutor] store is required")
	}
	if client == nil {
		return nil, errors.New("[NewExecutor] api client is required")
	}
	if refresher == nil {
		return nil, errors.New("[NewExecutor] refresher is required")
	}
	return &Executor{store: store, api: client, refresher: refresher, log: log.Logger}, nil
}

// Do executes req with the stored access token attached. A response with
// any status other than unauthorized is terminal and returned as-is, as is
// an unauthorized response when no token was attached. An unauthorized
// response with a token attached triggers one refresh and one replay of the
// original request with the new token; the second response is returned
// whatever its outcome. Transport failures propagate without touching the
// session.
func (ex *Executor) Do(ctx context.Context, req *api.Request) (*api.Response, error) {
	accessToken, attached := ex.store.AccessToken()

	attempt := req.Clone()
	if attached {
		attempt.SetBearer(accessToken)
	}

	resp, err := ex.api.Do(ctx, attempt)
	if err != nil {
		return nil, err
	}
	if !resp.Unauthorized() || !attached {
		return resp, nil
	}

	ex.log.Debug().Str("path", req.Path).Msg("access token rejected, refreshing")
	newToken, err := ex.refresher.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	retry := req.Clone()
	retry.SetBearer(newToken)
	return ex.api.Do(ctx, retry)
}
