// Package session owns the authentication state: the current token and user
// identity, seeded from durable storage at startup and rewritten by the auth
// flows. Exactly one Manager exists per client instance.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"inkwell/internal/domain"
	"inkwell/internal/platform/logger"
	"inkwell/pkg/platform/sentinel"
)

// Session is the current authentication state. A zero Token means anonymous.
type Session struct {
	Token string             `json:"token"`
	User  domain.UserSummary `json:"user"`
}

// Anonymous reports whether the session carries no token.
func (s Session) Anonymous() bool {
	return s.Token == ""
}

// Store persists the single session record across restarts.
type Store interface {
	// Load returns the persisted session, or sentinel.ErrNoSession.
	Load(ctx context.Context) (Session, error)
	// Save writes the session record, replacing any previous one.
	Save(ctx context.Context, sess Session) error
	// Clear removes the record. Clearing an absent record is not an error.
	Clear(ctx context.Context) error
}

// Manager is the in-memory session cell: written only by the auth flows
// (login, register, password reset, logout), read by every protected
// operation. Last write wins.
type Manager struct {
	mu      sync.RWMutex
	current Session

	store Store
	log   *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

func WithLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager wraps the given store. Call Restore to seed from disk.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{store: store, log: logger.Discard()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore seeds the cell from the persisted record. A missing record leaves
// the session anonymous and is not an error.
func (m *Manager) Restore(ctx context.Context) error {
	sess, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNoSession) {
			return nil
		}
		return err
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()
	m.log.Debug("session restored", "user", sess.User.Username)
	return nil
}

// Establish persists and installs a new session. Used by login, registration,
// and the password flows.
func (m *Manager) Establish(ctx context.Context, sess Session) error {
	if err := m.store.Save(ctx, sess); err != nil {
		return err
	}
	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()
	return nil
}

// Clear destroys the session, in memory and in the store.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	m.current = Session{}
	m.mu.Unlock()
	return nil
}

// Current returns the session and whether it is authenticated.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, !m.current.Anonymous()
}

// Token returns the bearer token, or false when anonymous.
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current.Anonymous() {
		return "", false
	}
	return m.current.Token, true
}

// Authenticated reports whether a token is present. It says nothing about the
// token still being accepted by the server.
func (m *Manager) Authenticated() bool {
	_, ok := m.Token()
	return ok
}

// UserID returns the authenticated user's id, or false when anonymous.
func (m *Manager) UserID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current.Anonymous() {
		return "", false
	}
	return m.current.User.ID, true
}
