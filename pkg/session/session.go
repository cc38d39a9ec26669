package session

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// Well-known session data keys.
const (
	// KeyTokenAuth marks sessions established by a one-time login link.
	KeyTokenAuth = "magic.token_auth"
	// KeyWantsURL is where to send the user after they sign in.
	KeyWantsURL = "wants_url"
)

// Session is a server-side session addressed by an opaque token.
type Session struct {
	ID             uuid.UUID      `json:"id"`
	Token          string         `json:"token"`
	UserID         *uuid.UUID     `json:"user_id,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	ExpiresAt      time.Time      `json:"expires_at"`
	LastActivityAt time.Time      `json:"last_activity_at"`
	CreatedAt      time.Time      `json:"created_at"`
}

func newSession(token string, userID *uuid.UUID, now time.Time, expiresAt time.Time) *Session {
	return &Session{
		ID:             uuid.New(),
		Token:          token,
		UserID:         userID,
		Data:           make(map[string]any),
		ExpiresAt:      expiresAt,
		LastActivityAt: now,
		CreatedAt:      now,
	}
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != nil
}

// BelongsTo reports whether the session is authenticated as userID.
func (s *Session) BelongsTo(userID uuid.UUID) bool {
	return s.IsAuthenticated() && *s.UserID == userID
}

func (s *Session) IsExpired() bool {
	return s != nil && time.Now().After(s.ExpiresAt)
}

func (s *Session) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.Data[key]
	return v, ok
}

func lookup[T any](s *Session, key string) (T, bool) {
	v, _ := s.Get(key)
	t, ok := v.(T)
	return t, ok
}

func (s *Session) GetString(key string) (string, bool) { return lookup[string](s, key) }
func (s *Session) GetBool(key string) (bool, bool)     { return lookup[bool](s, key) }

func (s *Session) Set(key string, value any) {
	if s == nil {
		return
	}
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
}

func (s *Session) Delete(key string) {
	if s != nil {
		delete(s.Data, key)
	}
}

// TokenAuth reports whether the session was opened with a login link.
func (s *Session) TokenAuth() bool {
	v, _ := s.GetBool(KeyTokenAuth)
	return v
}

// WantsURL returns the stored post-login destination, if any.
func (s *Session) WantsURL() string {
	v, _ := s.GetString(KeyWantsURL)
	return v
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.UserID != nil {
		id := *s.UserID
		c.UserID = &id
	}
	c.Data = maps.Clone(s.Data)
	return &c
}
