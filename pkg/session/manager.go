package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/magicauth/pkg/cookie"
	"github.com/dmitrymomot/magicauth/pkg/logger"
)

// Manager owns the session lifecycle.
//
// Start, Terminate and TerminateUser only touch the store. Get, Ensure,
// Attach and Destroy also move the token through the Transport.
type Manager struct {
	store      Store
	transport  Transport
	config     Config
	cookies    *cookie.Manager
	cookieOpts []cookie.Option
	logger     *slog.Logger
	activity   *activityRecorder
}

// New builds a Manager. The store defaults to memory; the default cookie
// transport needs WithCookieManager.
func New(opts ...Option) *Manager {
	m := &Manager{
		config: DefaultConfig(),
		logger: logger.Noop(),
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
		m.transport = NewCookieTransport(m.cookies, m.config.CookieName, m.config.SecureCookies, m.cookieOpts...)
	}
	m.activity = newActivityRecorder(m.store, m.logger)
	return m
}

// Get loads the session whose token r carries. Expired sessions are
// reported as ErrSessionExpired.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}
	s, err := m.store.Get(ctx, token)
	switch {
	case err != nil:
		return nil, err
	case s.IsExpired():
		return nil, ErrSessionExpired
	}
	return s, nil
}

// Ensure returns the request's live session, starting and attaching an
// anonymous one when there is none.
func (m *Manager) Ensure(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	if s, err := m.Get(ctx, r); err == nil {
		m.touch(s)
		return s, nil
	}

	s, err := m.create(ctx, uuid.Nil, nil)
	if err != nil {
		return nil, err
	}
	if err := m.Attach(w, s); err != nil {
		_ = m.store.Delete(ctx, s.Token)
		return nil, err
	}
	return s, nil
}

// touch queues a last-activity update once the threshold has passed.
func (m *Manager) touch(s *Session) {
	if time.Since(s.LastActivityAt) >= m.config.ActivityUpdateThreshold {
		m.activity.record(s.Token, time.Now())
	}
}

// Start stores a new session signed in as userID. Nothing is written to
// the client until Attach.
func (m *Manager) Start(ctx context.Context, userID uuid.UUID, data map[string]any) (*Session, error) {
	return m.create(ctx, userID, data)
}

// Attach sends the session token with an idle-timeout lifetime.
func (m *Manager) Attach(w http.ResponseWriter, s *Session) error {
	idle, _ := m.config.GetTimeouts(s.IsAuthenticated())
	return m.transport.SetToken(w, s.Token, idle)
}

func (m *Manager) Terminate(ctx context.Context, s *Session) error {
	if s == nil || s.Token == "" {
		return nil
	}
	return m.store.Delete(ctx, s.Token)
}

// TerminateUser signs userID out everywhere.
func (m *Manager) TerminateUser(ctx context.Context, userID uuid.UUID) error {
	return m.store.DeleteByUserID(ctx, userID)
}

// Destroy drops the request's session, if any, and always clears the token
// on the client.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if token, err := m.transport.GetToken(r); err == nil && token != "" {
		_ = m.store.Delete(ctx, token)
	}
	return m.transport.ClearToken(w)
}

func (m *Manager) Save(ctx context.Context, s *Session) error {
	return m.store.Update(ctx, s)
}

// Set writes key into the request's session, starting one if needed.
func (m *Manager) Set(ctx context.Context, w http.ResponseWriter, r *http.Request, key string, value any) error {
	s, err := m.Ensure(ctx, w, r)
	if err != nil {
		return err
	}
	s.Set(key, value)
	return m.store.Update(ctx, s)
}

// Refresh slides the idle deadline forward, never past the max lifetime.
func (m *Manager) Refresh(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := m.Get(ctx, r)
	if err != nil {
		return err
	}

	idle, lifetime := m.config.GetTimeouts(s.IsAuthenticated())
	now := time.Now()
	s.LastActivityAt = now
	s.ExpiresAt = expiry(s.CreatedAt, now, idle, lifetime)
	if err := m.store.Update(ctx, s); err != nil {
		return err
	}
	return m.transport.SetToken(w, s.Token, idle)
}

// Close flushes pending activity writes and stops the background writer.
func (m *Manager) Close() error {
	m.activity.close()
	return nil
}

func (m *Manager) create(ctx context.Context, userID uuid.UUID, data map[string]any) (*Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	var owner *uuid.UUID
	if userID != uuid.Nil {
		owner = &userID
	}
	idle, lifetime := m.config.GetTimeouts(owner != nil)
	now := time.Now()

	s := newSession(token, owner, now, expiry(now, now, idle, lifetime))
	maps.Copy(s.Data, data)
	if err := m.store.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// expiry is the idle deadline capped by the absolute lifetime.
func expiry(createdAt, now time.Time, idle, lifetime time.Duration) time.Time {
	idleAt, hardAt := now.Add(idle), createdAt.Add(lifetime)
	if hardAt.Before(idleAt) {
		return hardAt
	}
	return idleAt
}

func newToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}
