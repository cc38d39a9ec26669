package cookie

import (
	"crypto/cipher"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const minSecretLength = 32

// Manager writes plain and encrypted cookies with shared default attributes.
// Secrets rotate by prepending: the first one encrypts, all of them decrypt.
type Manager struct {
	keys     []cipher.AEAD
	defaults Options
}

// New needs at least one secret of 32 or more characters. Empty entries are
// ignored.
func New(secrets []string, opts ...Option) (*Manager, error) {
	m := &Manager{
		defaults: Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode}.with(opts),
	}
	for i, s := range secrets {
		if s == "" {
			continue
		}
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d", ErrSecretTooShort, i, len(s), minSecretLength)
		}
		aead, err := aeadFromSecret(s)
		if err != nil {
			return nil, err
		}
		m.keys = append(m.keys, aead)
	}
	if len(m.keys) == 0 {
		return nil, ErrNoSecret
	}
	return m, nil
}

func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) {
	http.SetCookie(w, m.defaults.with(opts).cookie(name, value))
}

// Get returns ErrCookieNotFound when r has no cookie called name.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", ErrCookieNotFound
	}
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// Delete expires name using the default path and domain.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	c := m.defaults.cookie(name, "")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}

// SetEncrypted writes value sealed with AES-GCM.
func (m *Manager) SetEncrypted(w http.ResponseWriter, name, value string, opts ...Option) error {
	sealed, err := seal(m.keys[0], name, value)
	if err != nil {
		return err
	}
	m.Set(w, name, sealed, opts...)
	return nil
}

func (m *Manager) GetEncrypted(r *http.Request, name string) (string, error) {
	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	return open(m.keys, name, raw)
}
