package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps sessions in process memory. Suitable for tests and
// single-instance deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byUser   map[uuid.UUID]map[string]struct{}
	done     chan struct{}
	once     sync.Once
}

// NewMemoryStore creates a store. A positive cleanupInterval starts a
// background sweep that Close stops.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*Session),
		byUser:   make(map[uuid.UUID]map[string]struct{}),
		done:     make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.cleanupLoop(cleanupInterval)
	}
	return s
}

func (m *MemoryStore) Create(_ context.Context, session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(session.clone())
	return nil
}

func (m *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.IsExpired() {
		m.mu.Lock()
		m.remove(token)
		m.mu.Unlock()
		return nil, ErrSessionExpired
	}
	return s.clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, session *Session) error {
	if session == nil {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session.Token]; !ok {
		return ErrSessionNotFound
	}
	m.remove(session.Token)
	m.put(session.clone())
	return nil
}

func (m *MemoryStore) UpdateActivity(_ context.Context, token string, lastActivity time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return ErrSessionNotFound
	}
	s.LastActivityAt = lastActivity
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(token)
	return nil
}

func (m *MemoryStore) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token := range m.byUser[userID] {
		m.remove(token)
	}
	return nil
}

func (m *MemoryStore) DeleteExpired(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, s := range m.sessions {
		if s.IsExpired() {
			m.remove(token)
		}
	}
	return nil
}

// Close stops the cleanup loop.
func (m *MemoryStore) Close() {
	m.once.Do(func() { close(m.done) })
}

// put and remove must be called with mu held.
func (m *MemoryStore) put(s *Session) {
	m.sessions[s.Token] = s
	if s.UserID != nil {
		if m.byUser[*s.UserID] == nil {
			m.byUser[*s.UserID] = make(map[string]struct{})
		}
		m.byUser[*s.UserID][s.Token] = struct{}{}
	}
}

func (m *MemoryStore) remove(token string) {
	s, ok := m.sessions[token]
	if !ok {
		return
	}
	delete(m.sessions, token)
	if s.UserID != nil {
		delete(m.byUser[*s.UserID], token)
		if len(m.byUser[*s.UserID]) == 0 {
			delete(m.byUser, *s.UserID)
		}
	}
}

func (m *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = m.DeleteExpired(context.Background())
		case <-m.done:
			return
		}
	}
}
