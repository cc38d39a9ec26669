package account_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/magicauth/pkg/cookie"
	"github.com/dmitrymomot/magicauth/pkg/session"
)

func newSessions(t *testing.T) *session.Manager {
	t.Helper()
	cookies, err := cookie.New([]string{strings.Repeat("s", 32)})
	require.NoError(t, err)

	m := session.New(session.WithStore(session.NewMemoryStore(0)), session.WithCookieManager(cookies))
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// signIn starts a session for userID and returns its cookies.
func signIn(t *testing.T, m *session.Manager, userID uuid.UUID) (*session.Session, []*http.Cookie) {
	t.Helper()
	s, err := m.Start(context.Background(), userID, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Attach(rec, s))
	return s, rec.Result().Cookies()
}

func withCookies(r *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}
