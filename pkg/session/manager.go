package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/pianoxl/pkg/cookie"
)

// Manager creates, loads and destroys sessions.
type Manager struct {
	store     Store
	transport Transport
	cookies   *cookie.Manager
	config    Config
	now       func() time.Time
}

// New creates a session manager. Without WithStore a MemoryStore is used;
// without WithTransport a cookie manager is mandatory.
func New(opts ...Option) *Manager {
	m := &Manager{
		config: DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore(m.config.CleanupInterval)
	}
	if m.transport == nil {
		if m.cookies == nil {
			panic("session: cookie manager is required when using default cookie transport")
		}
		m.transport = NewCookieTransport(m.cookies, m.config.CookieName, m.config.SecureCookies)
	}

	return m
}

// Get loads the session referenced by the request. Expired sessions are
// deleted and reported as ErrSessionExpired. The idle expiry slides forward
// at most once per ActivityUpdateThreshold.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}

	session, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	now := m.now()
	if session.IsExpired(now) {
		_ = m.store.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	if now.Sub(session.LastActivityAt) >= m.config.ActivityUpdateThreshold {
		session.LastActivityAt = now
		session.ExpiresAt = m.expiry(session.CreatedAt, now)
		if err := m.store.Update(ctx, session); err != nil {
			return nil, err
		}
	}

	return session, nil
}

// Authenticate starts a fresh session for id. Any session the request already
// carries is deleted first so tokens never survive a sign-in.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request, id Identity) (*Session, error) {
	if id.UserID == uuid.Nil {
		return nil, ErrInvalidSession
	}
	if old, err := m.transport.GetToken(r); err == nil {
		_ = m.store.Delete(ctx, old)
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := m.now()
	session := &Session{
		ID:             uuid.New(),
		Token:          token,
		UserID:         id.UserID,
		Email:          id.Email,
		Credentials:    id.Credentials,
		ExpiresAt:      m.expiry(now, now),
		LastActivityAt: now,
		CreatedAt:      now,
	}
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}
	if err := m.transport.SetToken(w, token, m.config.MaxLifetime); err != nil {
		_ = m.store.Delete(ctx, token)
		return nil, err
	}

	return session, nil
}

// UpdateCredentials replaces the stored identity service credentials, e.g.
// after a token refresh.
func (m *Manager) UpdateCredentials(ctx context.Context, session *Session, creds *oauth2.Token) error {
	if session == nil {
		return ErrInvalidSession
	}
	session.Credentials = creds
	return m.store.Update(ctx, session)
}

// Destroy deletes the request's session and clears the cookie. It succeeds
// when there is no session.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var err error
	if token, tokenErr := m.transport.GetToken(r); tokenErr == nil {
		err = m.store.Delete(ctx, token)
	}
	m.transport.ClearToken(w)
	return err
}

// expiry is the earlier of the idle deadline and the absolute lifetime.
func (m *Manager) expiry(createdAt, now time.Time) time.Time {
	idle := now.Add(m.config.IdleTimeout)
	max := createdAt.Add(m.config.MaxLifetime)
	if max.Before(idle) {
		return max
	}
	return idle
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
