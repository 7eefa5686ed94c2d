package tokenstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-session-client/events"
	"github.com/jrsteele09/go-session-client/users"
	"github.com/pkg/errors"
)

var _ Store = (*FileStore)(nil)

// FileStore persists the session fields as a single JSON file so the
// session survives process restarts. Reads are served synchronously from an
// in-memory copy loaded when the store is opened; writes go through a
// temp-file rename so a crashed write never leaves a torn file behind.
type FileStore struct {
	path   string
	bus    *events.Bus
	lock   sync.RWMutex
	values map[string]string
}

// NewFileStore opens the store at path, loading any previously persisted
// session. A missing file is the anonymous state, not an error. The bus may
// be nil when no observer needs change notifications.
func NewFileStore(path string, bus *events.Bus) (*FileStore, error) {
	fs := &FileStore{
		path:   path,
		bus:    bus,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fs, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[NewFileStore] os.ReadFile")
	}
	if err := json.Unmarshal(data, &fs.values); err != nil {
		return nil, errors.Wrap(err, "[NewFileStore] json.Unmarshal")
	}
	return fs, nil
}

func (fs *FileStore) Get(key string) (string, bool) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	value, ok := fs.values[key]
	return value, ok
}

func (fs *FileStore) AccessToken() (string, bool) {
	return fs.Get(KeyAccessToken)
}

func (fs *FileStore) RefreshToken() (string, bool) {
	return fs.Get(KeyRefreshToken)
}

func (fs *FileStore) User() (*users.Profile, bool) {
	raw, ok := fs.Get(KeyUserData)
	if !ok {
		return nil, false
	}
	var profile users.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, false
	}
	return &profile, true
}

func (fs *FileStore) SaveSession(session Session) error {
	if !session.Active() {
		return IncompleteSessionErr
	}

	fs.lock.Lock()
	fs.values[KeyAccessToken] = session.AccessToken
	fs.values[KeyRefreshToken] = session.RefreshToken
	delete(fs.values, KeyUserData)
	if session.User != nil {
		raw, err := json.Marshal(session.User)
		if err != nil {
			fs.lock.Unlock()
			return errors.Wrap(err, "[FileStore.SaveSession] json.Marshal user")
		}
		fs.values[KeyUserData] = string(raw)
	}
	err := fs.persist()
	fs.lock.Unlock()

	if err != nil {
		return errors.Wrap(err, "[FileStore.SaveSession] persist")
	}
	fs.publish(events.KindSessionSaved)
	return nil
}

func (fs *FileStore) SaveAccessToken(token string) error {
	fs.lock.Lock()
	if _, ok := fs.values[KeyRefreshToken]; !ok {
		fs.lock.Unlock()
		return NoActiveSessionErr
	}
	fs.values[KeyAccessToken] = token
	err := fs.persist()
	fs.lock.Unlock()

	if err != nil {
		return errors.Wrap(err, "[FileStore.SaveAccessToken] persist")
	}
	fs.publish(events.KindAccessTokenUpdated)
	return nil
}

func (fs *FileStore) SaveUser(profile *users.Profile) error {
	fs.lock.Lock()
	_, hasAccess := fs.values[KeyAccessToken]
	_, hasRefresh := fs.values[KeyRefreshToken]
	if !hasAccess || !hasRefresh {
		fs.lock.Unlock()
		return NoActiveSessionErr
	}
	if profile == nil {
		delete(fs.values, KeyUserData)
	} else {
		raw, err := json.Marshal(profile)
		if err != nil {
			fs.lock.Unlock()
			return errors.Wrap(err, "[FileStore.SaveUser] json.Marshal")
		}
		fs.values[KeyUserData] = string(raw)
	}
	err := fs.persist()
	fs.lock.Unlock()

	if err != nil {
		return errors.Wrap(err, "[FileStore.SaveUser] persist")
	}
	fs.publish(events.KindUserUpdated)
	return nil
}

func (fs *FileStore) Clear() error {
	fs.lock.Lock()
	delete(fs.values, KeyAccessToken)
	delete(fs.values, KeyRefreshToken)
	delete(fs.values, KeyUserData)
	err := fs.persist()
	fs.lock.Unlock()

	if err != nil {
		return errors.Wrap(err, "[FileStore.Clear] persist")
	}
	fs.publish(events.KindSessionCleared)
	return nil
}

// persist writes the current values to disk. Callers must hold the write
// lock.
func (fs *FileStore) persist() error {
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return errors.Wrap(err, "os.MkdirAll")
	}
	data, err := json.MarshalIndent(fs.values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "json.MarshalIndent")
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "os.WriteFile")
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return errors.Wrap(err, "os.Rename")
	}
	return nil
}

func (fs *FileStore) publish(kind events.Kind) {
	if fs.bus == nil {
		return
	}
	fs.bus.Publish(events.Event{Kind: kind})
}
