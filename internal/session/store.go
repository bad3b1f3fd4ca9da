// Package session keeps the server-side sessions bound to the browser cookie.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
)

// ErrNotFound is returned by a Store for an unknown session ID.
var ErrNotFound = errors.New("session not found")

// Store persists sessions.
type Store interface {
	Save(ctx context.Context, sess models.Session) error
	Get(ctx context.Context, id string) (models.Session, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore is an in-process Store. Sessions are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]models.Session)}
}

func (m *MemoryStore) Save(_ context.Context, sess models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return models.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// PurgeExpired drops every session expired at now and returns how many went.
func (m *MemoryStore) PurgeExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, sess := range m.sessions {
		if sess.Expired(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Manager creates and resolves sessions on top of a Store.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a Manager. ttl applies when no explicit expiry is given.
func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// TTL returns the default session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Create stores a new session for email. A zero expiresAt means now + TTL.
func (m *Manager) Create(ctx context.Context, email, token string, expiresAt time.Time) (models.Session, error) {
	now := m.now()
	if expiresAt.IsZero() {
		expiresAt = now.Add(m.ttl)
	}
	sess := models.Session{
		ID:        uuid.NewString(),
		Email:     models.NormalizeEmail(email),
		Token:     token,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// Lookup resolves a session ID. Missing or expired sessions yield an
// AuthError; expired ones are removed.
func (m *Manager) Lookup(ctx context.Context, id string) (models.Session, error) {
	if id == "" {
		return models.Session{}, &models.AuthError{Reason: "no session"}
	}
	sess, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.Session{}, &models.AuthError{Reason: "unknown session"}
	}
	if err != nil {
		return models.Session{}, err
	}
	if sess.Expired(m.now()) {
		_ = m.store.Delete(ctx, id)
		return models.Session{}, &models.AuthError{Reason: "session expired"}
	}
	return sess, nil
}

// Destroy removes a session.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.store.Delete(ctx, id)
}
