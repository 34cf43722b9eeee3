package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store keeps sessions between requests and serializes mutations per id.
type Store interface {
	Save(ctx context.Context, s *TestSession) error
	// Load returns ErrSessionNotFound for unknown ids.
	Load(ctx context.Context, id string) (*TestSession, error)
	Delete(ctx context.Context, id string) error
	// Lock blocks until the caller holds the session's lock.
	Lock(ctx context.Context, id string) (func(), error)
	// Current returns the student's latest session id, or "".
	Current(ctx context.Context, studentID string) (string, error)
	SetCurrent(ctx context.Context, studentID, sessionID string) error
	// DueBefore lists active sessions whose deadline is at or before t.
	DueBefore(ctx context.Context, t time.Time) ([]string, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*TestSession
	current  map[string]string
	locks    map[string]*sync.Mutex
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*TestSession),
		current:  make(map[string]string),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (m *MemoryStore) Save(_ context.Context, s *TestSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*TestSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.locks, id)
	return nil
}

func (m *MemoryStore) Lock(ctx context.Context, id string) (func(), error) {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.Lock()
	return l.Unlock, nil
}

func (m *MemoryStore) Current(_ context.Context, studentID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current[studentID], nil
}

func (m *MemoryStore) SetCurrent(_ context.Context, studentID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current[studentID] = sessionID
	return nil
}

func (m *MemoryStore) DueBefore(_ context.Context, t time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, s := range m.sessions {
		if s.State == StateActive && !s.Deadline().After(t) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
