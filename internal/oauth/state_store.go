package oauth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"
)

// ErrStateRejected is returned when a state could not be stored.
var ErrStateRejected = errors.New("oauth state was not stored")

// StateStore keeps the single-use anti-forgery states of pending logins.
type StateStore struct {
	cache *ristretto.Cache[string, struct{}]
	ttl   time.Duration
	mu    sync.Mutex // makes Consume a single get-and-delete
}

// NewStateStore creates a StateStore whose states live for ttl.
func NewStateStore(ttl time.Duration) (*StateStore, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, struct{}]{
		NumCounters:        1e5,
		MaxCost:            1e4,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create state cache: %w", err)
	}
	return &StateStore{cache: cache, ttl: ttl}, nil
}

// New generates and remembers a fresh state.
func (s *StateStore) New() (string, error) {
	state := uuid.NewString()
	if !s.cache.SetWithTTL(state, struct{}{}, 1, s.ttl) {
		return "", ErrStateRejected
	}
	s.cache.Wait()
	return state, nil
}

// Consume reports whether state is known and unexpired, forgetting it either way.
func (s *StateStore) Consume(state string) bool {
	if state == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.cache.Get(state)
	s.cache.Del(state)
	return ok
}

// Close releases the cache's background goroutines.
func (s *StateStore) Close() {
	s.cache.Close()
}
