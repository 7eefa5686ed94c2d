package storefakes

import (
	"encoding/json"
	"sync"

	"github.com/jrsteele09/go-session-client/events"
	"github.com/jrsteele09/go-session-client/tokenstore"
	"github.com/jrsteele09/go-session-client/users"
	"github.com/pkg/errors"
)

var _ tokenstore.Store = (*FakeStore)(nil)

// FakeStore is an in-memory Store for tests and for callers that want a
// session scoped to the process lifetime.
type FakeStore struct {
	bus    *events.Bus
	lock   sync.RWMutex
	values map[string]string
}

func NewFakeStore(bus *events.Bus) *FakeStore {
	return &FakeStore{
		bus:    bus,
		values: make(map[string]string),
	}
}

func (fs *FakeStore) Get(key string) (string, bool) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	value, ok := fs.values[key]
	return value, ok
}

func (fs *FakeStore) AccessToken() (string, bool) {
	return fs.Get(tokenstore.KeyAccessToken)
}

func (fs *FakeStore) RefreshToken() (string, bool) {
	return fs.Get(tokenstore.KeyRefreshToken)
}

func (fs *FakeStore) User() (*users.Profile, bool) {
	raw, ok := fs.Get(tokenstore.KeyUserData)
	if !ok {
		return nil, false
	}
	var profile users.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, false
	}
	return &profile, true
}

func (fs *FakeStore) SaveSession(session tokenstore.Session) error {
	if !session.Active() {
		return tokenstore.IncompleteSessionErr
	}

	fs.lock.Lock()
	fs.values[tokenstore.KeyAccessToken] = session.AccessToken
	fs.values[tokenstore.KeyRefreshToken] = session.RefreshToken
	delete(fs.values, tokenstore.KeyUserData)
	if session.User != nil {
		raw, err := json.Marshal(session.User)
		if err != nil {
			fs.lock.Unlock()
			return errors.Wrap(err, "[FakeStore.SaveSession] json.Marshal user")
		}
		fs.values[tokenstore.KeyUserData] = string(raw)
	}
	fs.lock.Unlock()

	fs.publish(events.KindSessionSaved)
	return nil
}

func (fs *FakeStore) SaveAccessToken(token string) error {
	fs.lock.Lock()
	if _, ok := fs.values[tokenstore.KeyRefreshToken]; !ok {
		fs.lock.Unlock()
		return tokenstore.NoActiveSessionErr
	}
	fs.values[tokenstore.KeyAccessToken] = token
	fs.lock.Unlock()

	fs.publish(events.KindAccessTokenUpdated)
	return nil
}

func (fs *FakeStore) SaveUser(profile *users.Profile) error {
	fs.lock.Lock()
	_, hasAccess := fs.values[tokenstore.KeyAccessToken]
	_, hasRefresh := fs.values[tokenstore.KeyRefreshToken]
	if !hasAccess || !hasRefresh {
		fs.lock.Unlock()
		return tokenstore.NoActiveSessionErr
	}
	if profile == nil {
		delete(fs.values, tokenstore.KeyUserData)
	} else {
		raw, err := json.Marshal(profile)
		if err != nil {
			fs.lock.Unlock()
			return errors.Wrap(err, "[FakeStore.SaveUser] json.Marshal")
		}
		fs.values[tokenstore.KeyUserData] = string(raw)
	}
	fs.lock.Unlock()

	fs.publish(events.KindUserUpdated)
	return nil
}

func (fs *FakeStore) Clear() error {
	fs.lock.Lock()
	delete(fs.values, tokenstore.KeyAccessToken)
	delete(fs.values, tokenstore.KeyRefreshToken)
	delete(fs.values, tokenstore.KeyUserData)
	fs.lock.Unlock()

	fs.publish(events.KindSessionCleared)
	return nil
}

func (fs *FakeStore) publish(kind events.Kind) {
	if fs.bus == nil {
		return
	}
	fs.bus.Publish(events.Event{Kind: kind})
}
