package server

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// StateStore issues and validates single-use OAuth2 state tokens.
//
// Each state is cryptographically random, consumed at most once, and expires
// if the authorization callback never arrives.
type StateStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	states map[string]time.Time
}

// NewStateStore creates a store whose states expire after ttl.
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateStore{
		ttl:    ttl,
		states: make(map[string]time.Time),
	}
}

// Issue generates and records a new state token.
func (s *StateStore) Issue() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	state := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked()
	s.states[state] = time.Now().Add(s.ttl)
	return state
}

// Consume validates a state token and removes it. Returns false for unknown,
// already-used, or expired states.
func (s *StateStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)

	return time.Now().Before(expires)
}

func (s *StateStore) purgeLocked() {
	now := time.Now()
	for state, expires := range s.states {
		if now.After(expires) {
			delete(s.states, state)
		}
	}
}
