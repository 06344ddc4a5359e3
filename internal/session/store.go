// Package session holds the client-side session state machine: the
// single source of truth for who is logged in.
package session

import (
	"sync"

	"github.com/lumina-lms/lumina/internal/identity"
)

// Phase tags the session state variants. Exactly one is active at a time.
type Phase int

const (
	// PhaseUnknown is the initial phase while the resume call is in flight.
	PhaseUnknown Phase = iota
	// PhaseAnonymous means no identity is established.
	PhaseAnonymous
	// PhaseAuthenticated means an identity is established for this session.
	PhaseAuthenticated
)

// String returns the phase name for logs.
func (p Phase) String() string {
	switch p {
	case PhaseUnknown:
		return "unknown"
	case PhaseAnonymous:
		return "anonymous"
	case PhaseAuthenticated:
		return "authenticated"
	}
	return "invalid"
}

// State is an immutable snapshot of the session. Identity is set only
// when Phase is PhaseAuthenticated.
type State struct {
	Phase    Phase
	Identity *identity.Identity
}

// Loading reports whether the initial resume has not settled yet.
func (s State) Loading() bool { return s.Phase == PhaseUnknown }

// Authenticated reports whether an identity is established.
func (s State) Authenticated() bool { return s.Phase == PhaseAuthenticated }

// Store owns the session state. The gateway is the only writer; any
// number of readers may observe it concurrently. Mutations replace the
// state wholesale, so readers never see a partially updated identity.
type Store struct {
	mu    sync.RWMutex
	state State
	subs  map[int]chan State
	next  int
}

// NewStore returns a store in the Unknown phase.
func NewStore() *Store {
	return &Store{
		state: State{Phase: PhaseUnknown},
		subs:  make(map[int]chan State),
	}
}

// State returns the last settled snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// SetAuthenticated replaces the state with Authenticated(id).
func (s *Store) SetAuthenticated(id identity.Identity) {
	s.replace(State{Phase: PhaseAuthenticated, Identity: &id})
}

// SetAnonymous replaces the state with Anonymous.
func (s *Store) SetAnonymous() {
	s.replace(State{Phase: PhaseAnonymous})
}

// Subscribe registers a state-change listener. The returned channel
// carries the latest snapshot; a slow subscriber only ever misses
// intermediate states, never the final one. The cancel func releases
// the subscription.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan State, 1)
	key := s.next
	s.next++
	s.subs[key] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, key)
	}
}

func (s *Store) replace(next State) {
	s.mu.Lock()
	s.state = next
	snapshot := next.clone()
	for _, ch := range s.subs {
		// Latest-wins delivery so the writer never blocks.
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
	s.mu.Unlock()
}

func (s State) clone() State {
	if s.Identity == nil {
		return State{Phase: s.Phase}
	}
	id := *s.Identity
	return State{Phase: s.Phase, Identity: &id}
}
