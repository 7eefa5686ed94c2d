package tokenstore_test

import (
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-session-client/events"
	"github.com/jrsteele09/go-session-client/tokenstore"
	"github.com/jrsteele09/go-session-client/users"
	"github.com/stretchr/testify/require"
)

func testSession() tokenstore.Session {
	return tokenstore.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		User: &users.Profile{
			ID:    "user-1",
			Name:  "John Doe",
			Email: "john.doe@example.com",
		},
	}
}

func newFileStore(t *testing.T, bus *events.Bus) (*tokenstore.FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	store, err := tokenstore.NewFileStore(path, bus)
	require.NoError(t, err)
	return store, path
}

// TestFileStore_SaveAndRead tests the basic round trip through typed readers
func TestFileStore_SaveAndRead(t *testing.T) {
	store, _ := newFileStore(t, nil)

	require.NoError(t, store.SaveSession(testSession()))

	access, ok := store.AccessToken()
	require.True(t, ok)
	require.Equal(t, "access-1", access)

	refresh, ok := store.RefreshToken()
	require.True(t, ok)
	require.Equal(t, "refresh-1", refresh)

	profile, ok := store.User()
	require.True(t, ok)
	require.Equal(t, "john.doe@example.com", profile.Email)
}

// TestFileStore_SurvivesReopen tests that a saved session is still there
// after the store is reopened from the same file
func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := tokenstore.NewFileStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.SaveSession(testSession()))

	reopened, err := tokenstore.NewFileStore(path, nil)
	require.NoError(t, err)

	access, ok := reopened.AccessToken()
	require.True(t, ok)
	require.Equal(t, "access-1", access)

	profile, ok := reopened.User()
	require.True(t, ok)
	require.Equal(t, "user-1", profile.ID)
}

// TestFileStore_AbsenceIsNotAnError tests reads against an empty store
func TestFileStore_AbsenceIsNotAnError(t *testing.T) {
	store, _ := newFileStore(t, nil)

	_, ok := store.AccessToken()
	require.False(t, ok)
	_, ok = store.RefreshToken()
	require.False(t, ok)
	_, ok = store.User()
	require.False(t, ok)
	_, ok = store.Get(tokenstore.KeyUserData)
	require.False(t, ok)
}

// TestFileStore_TokenPairInvariant tests that a lone token can never be saved
func TestFileStore_TokenPairInvariant(t *testing.T) {
	store, _ := newFileStore(t, nil)

	err := store.SaveSession(tokenstore.Session{AccessToken: "access-only"})
	require.ErrorIs(t, err, tokenstore.IncompleteSessionErr)

	err = store.SaveSession(tokenstore.Session{RefreshToken: "refresh-only"})
	require.ErrorIs(t, err, tokenstore.IncompleteSessionErr)

	// No refresh token stored, so a refreshed access token has nothing to pair with
	err = store.SaveAccessToken("new-access")
	require.ErrorIs(t, err, tokenstore.NoActiveSessionErr)

	// User snapshot must never be present without tokens
	err = store.SaveUser(&users.Profile{ID: "user-1"})
	require.ErrorIs(t, err, tokenstore.NoActiveSessionErr)
}

// TestFileStore_SessionWithoutUserIsValid tests that the snapshot is optional
func TestFileStore_SessionWithoutUserIsValid(t *testing.T) {
	store, _ := newFileStore(t, nil)

	sess := testSession()
	sess.User = nil
	require.NoError(t, store.SaveSession(sess))

	_, ok := store.AccessToken()
	require.True(t, ok)
	_, ok = store.User()
	require.False(t, ok)
}

// TestFileStore_SaveAccessTokenOverwrites tests the refresh write path
func TestFileStore_SaveAccessTokenOverwrites(t *testing.T) {
	store, _ := newFileStore(t, nil)
	require.NoError(t, store.SaveSession(testSession()))

	require.NoError(t, store.SaveAccessToken("access-2"))

	access, ok := store.AccessToken()
	require.True(t, ok)
	require.Equal(t, "access-2", access)

	refresh, ok := store.RefreshToken()
	require.True(t, ok)
	require.Equal(t, "refresh-1", refresh, "refresh token untouched by an access token update")
}

// TestFileStore_ClearIsIdempotent tests repeated clears
func TestFileStore_ClearIsIdempotent(t *testing.T) {
	store, _ := newFileStore(t, nil)
	require.NoError(t, store.SaveSession(testSession()))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	_, ok := store.AccessToken()
	require.False(t, ok)
	_, ok = store.RefreshToken()
	require.False(t, ok)
	_, ok = store.User()
	require.False(t, ok)
}

// TestFileStore_PublishesOnEveryMutation tests the event side effects
func TestFileStore_PublishesOnEveryMutation(t *testing.T) {
	bus := events.New()
	var kinds []events.Kind
	bus.Subscribe(func(e events.Event) { kinds = append(kinds, e.Kind) })

	store, _ := newFileStore(t, bus)

	require.NoError(t, store.SaveSession(testSession()))
	require.NoError(t, store.SaveAccessToken("access-2"))
	require.NoError(t, store.SaveUser(&users.Profile{ID: "user-1", Name: "Johnny"}))
	require.NoError(t, store.Clear())

	require.Equal(t, []events.Kind{
		events.KindSessionSaved,
		events.KindAccessTokenUpdated,
		events.KindUserUpdated,
		events.KindSessionCleared,
	}, kinds)
}

// TestFileStore_RejectedWriteDoesNotPublish tests that invariant violations are silent
func TestFileStore_RejectedWriteDoesNotPublish(t *testing.T) {
	bus := events.New()
	var published int
	bus.Subscribe(func(events.Event) { published++ })

	store, _ := newFileStore(t, bus)

	require.Error(t, store.SaveSession(tokenstore.Session{AccessToken: "access-only"}))
	require.Error(t, store.SaveAccessToken("access"))
	require.Equal(t, 0, published)
}
