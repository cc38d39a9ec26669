package session

import (
	"log/slog"

	"github.com/dmitrymomot/magicauth/pkg/cookie"
)

type Option func(*Manager)

// WithStore keeps sessions in store instead of process memory.
func WithStore(store Store) Option {
	return func(m *Manager) { m.store = store }
}

// WithTransport replaces the cookie transport.
func WithTransport(t Transport) Option {
	return func(m *Manager) { m.transport = t }
}

func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.config = cfg }
}

// WithCookieManager signs the session cookie with cookies. opts apply to
// every session cookie written.
func WithCookieManager(cookies *cookie.Manager, opts ...cookie.Option) Option {
	return func(m *Manager) {
		m.cookies = cookies
		m.cookieOpts = opts
	}
}

// WithLogger receives activity write failures.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}
