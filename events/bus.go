package events

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Kind identifies what changed in the stored session.
type Kind string

const (
	KindSessionSaved       Kind = "session_saved"
	KindAccessTokenUpdated Kind = "access_token_updated"
	KindUserUpdated        Kind = "user_updated"
	KindSessionCleared     Kind = "session_cleared"
)

// Event is published on every session state change.
type Event struct {
	Kind Kind
}

// Listener receives session change events.
type Listener func(Event)

// Bus is an in-process publish/subscribe channel for session state changes.
// Delivery is synchronous and in subscription order. There is no persistence.
type Bus struct {
	lock      sync.Mutex
	nextID    int
	listeners []subscription
}

type subscription struct {
	id       int
	listener Listener
}

func New() *Bus {
	return &Bus{}
}

// Subscribe registers a listener and returns an unsubscribe function that
// removes exactly that listener. Calling it more than once is a no-op.
func (b *Bus) Subscribe(listener Listener) func() {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, subscription{id: id, listener: listener})

	return func() {
		b.lock.Lock()
		defer b.lock.Unlock()
		for i, s := range b.listeners {
			if s.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Publish invokes every currently subscribed listener with the event.
// Listeners subscribed during a publish are not invoked by that publish,
// and a panicking listener does not prevent the remaining listeners from
// running.
func (b *Bus) Publish(event Event) {
	b.lock.Lock()
	snapshot := make([]subscription, len(b.listeners))
	copy(snapshot, b.listeners)
	b.lock.Unlock()

	for _, s := range snapshot {
		notify(s.listener, event)
	}
}

func notify(listener Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Str("event", string(event.Kind)).Msg("session event listener panicked")
		}
	}()
	listener(event)
}
