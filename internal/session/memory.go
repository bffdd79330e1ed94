package session

import (
	"context"
	"sync"
	"time"

	"github.com/kalambet/intervue/internal/interview"
)

type memoryEntry struct {
	state   *interview.State
	touched time.Time
}

// memoryStore keeps sessions in a map guarded by a RWMutex.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

func newMemoryStore(ttl time.Duration, now func() time.Time) *memoryStore {
	return &memoryStore{sessions: make(map[string]*memoryEntry), ttl: ttl, now: now}
}

func (s *memoryStore) expired(e *memoryEntry) bool {
	return s.ttl > 0 && s.now().Sub(e.touched) >= s.ttl
}

func (s *memoryStore) Create(ctx context.Context, st *interview.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[st.SessionID]; ok && !s.expired(e) {
		return ErrExists
	}
	st.Version = 1
	s.sessions[st.SessionID] = &memoryEntry{state: st.Clone(), touched: s.now()}
	return nil
}

func (s *memoryStore) Get(ctx context.Context, id string) (*interview.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok || s.expired(e) {
		return nil, ErrNotFound
	}
	return e.state.Clone(), nil
}

func (s *memoryStore) Put(ctx context.Context, st *interview.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[st.SessionID]
	if !ok || s.expired(e) {
		return ErrNotFound
	}
	if e.state.Version != st.Version {
		return ErrVersionConflict
	}
	st.Version++
	s.sessions[st.SessionID] = &memoryEntry{state: st.Clone(), touched: s.now()}
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	if s.expired(e) {
		return ErrNotFound
	}
	return nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*memoryEntry)
	return nil
}
