package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL applies to sessions created without an ExpiresAt.
const DefaultTTL = 15 * time.Minute

// MemoryStore keeps sessions in process memory. It is safe for concurrent use
// and hands out copies, so callers never share a session value.
type MemoryStore struct {
	mu sync.RWMutex

	sessions map[string]cachedItem[[]byte]

	janitorStop chan struct{}
	now         func() time.Time
}

// cachedItem wraps a stored value with an expiration time.
type cachedItem[T any] struct {
	value     T
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]cachedItem[[]byte]),
		now:      time.Now,
	}
}

// Create assigns a fresh id to s and stores it.
func (m *MemoryStore) Create(ctx context.Context, s *Session) (string, error) {
	if s == nil {
		return "", fmt.Errorf("create session: nil session")
	}
	s.ID = uuid.NewString()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now()
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = s.CreatedAt.Add(DefaultTTL)
	}
	if err := m.Save(ctx, s); err != nil {
		return "", err
	}
	return s.ID, nil
}

// Get returns a copy of the session, evicting it eagerly if expired.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	m.mu.RLock()
	item, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	if !m.now().Before(item.expiresAt) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	var s Session
	if err := json.Unmarshal(item.value, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

// Save overwrites the stored copy of s.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("save session: missing id")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}

	m.mu.Lock()
	m.sessions[s.ID] = cachedItem[[]byte]{value: data, expiresAt: s.ExpiresAt}
	m.mu.Unlock()
	return nil
}

// Delete removes the session. Deleting an absent id is not an error.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// PurgeExpired removes expired sessions.
func (m *MemoryStore) PurgeExpired() {
	now := m.now()

	m.mu.Lock()
	for k, v := range m.sessions {
		if !now.Before(v.expiresAt) {
			delete(m.sessions, k)
		}
	}
	m.mu.Unlock()
}

// StartJanitor periodically purges expired sessions until the returned
// function is called. If interval <= 0, a default of 1 minute is used.
func (m *MemoryStore) StartJanitor(interval time.Duration) func() {
	if interval <= 0 {
		interval = time.Minute
	}

	m.mu.Lock()
	if m.janitorStop != nil {
		close(m.janitorStop)
	}
	stop := make(chan struct{})
	m.janitorStop = stop
	m.mu.Unlock()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.PurgeExpired()
			case <-stop:
				return
			}
		}
	}()

	return func() {
		m.mu.Lock()
		if m.janitorStop == stop {
			close(m.janitorStop)
			m.janitorStop = nil
		}
		m.mu.Unlock()
	}
}

// Len returns the number of live sessions after an eager purge.
func (m *MemoryStore) Len() int {
	m.PurgeExpired()

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
