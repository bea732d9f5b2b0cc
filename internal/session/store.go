// Package session owns the client's authenticated identity: the published session state,
// the manager reconciling it with the identity store, and the route guard reading it.
package session

import (
	"sync"

	"campusevents/internal/domain"
)

// State is the published session of one client.
//
// Identity set with a nil Profile means the profile is still resolving; no decision
// other than "hold" may be taken from it.
type State struct {
	Identity *domain.Identity `json:"identity"`
	Profile  *domain.Profile  `json:"profile"`
	Loading  bool             `json:"loading"`
}

// Resolving reports whether the guard must hold rather than decide.
func (s State) Resolving() bool {
	return s.Loading || (s.Identity != nil && s.Profile == nil)
}

// Store holds the published State. Only the Manager writes; any number of readers
// may snapshot or subscribe.
type Store struct {
	mu     sync.RWMutex
	state  State
	nextID int
	subs   map[int]func(State)
}

// NewStore returns a Store in the initial loading state.
func NewStore() *Store {
	return &Store{
		state: State{Loading: true},
		subs:  make(map[int]func(State)),
	}
}

// Snapshot returns the current State.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to receive every published State. The returned func
// removes the subscription.
//
// fn runs synchronously on the publishing goroutine, in publication order. It may read
// the Manager's State or Close it, but must not call SignIn, SignOut, Register or
// Initialize; hand such work to another goroutine.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// publish replaces the State and notifies subscribers outside the lock.
func (s *Store) publish(next State) {
	s.mu.Lock()
	s.state = next
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}
