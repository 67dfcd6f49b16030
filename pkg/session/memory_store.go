package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Suitable for development and
// single-instance deployments; expired sessions are swept periodically.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	done     chan struct{}
	once     sync.Once
}

// NewMemoryStore creates a store; cleanupInterval <= 0 disables the sweeper.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]Session),
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
	m.sessions[session.Token] = *session
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
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
	m.sessions[session.Token] = *session
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

// Close stops the cleanup loop.
func (m *MemoryStore) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

func (m *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			m.mu.Lock()
			for token, s := range m.sessions {
				if s.IsExpired(now) {
					delete(m.sessions, token)
				}
			}
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}
