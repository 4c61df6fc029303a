// Package session caches the CSRF token and cookies of an ADT session so
// that concurrent requests and processes can reuse a single server session.
package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

// DefaultPrefix is the Redis key prefix for session state.
const DefaultPrefix = "adt:session:"

// ErrNotFound is returned by Load when no state is cached for the key.
var ErrNotFound = errors.New("session: not found")

// State is the reusable part of an ADT session.
type State struct {
	CSRFToken string         `json:"csrf_token"`
	Cookies   []*http.Cookie `json:"cookies,omitempty"`
}

// Store persists State per connection key.
type Store interface {
	Load(ctx context.Context, key string) (*State, error)
	Save(ctx context.Context, key string, state State, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type memoryEntry struct {
	state   State
	expires time.Time
}

// MemoryStore keeps state in process. A zero ttl never expires.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, key string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		delete(s.entries, key)
		return nil, ErrNotFound
	}
	st := e.state
	st.Cookies = append([]*http.Cookie(nil), e.state.Cookies...)
	return &st, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, state State, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{state: state}
	e.state.Cookies = append([]*http.Cookie(nil), state.Cookies...)
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
