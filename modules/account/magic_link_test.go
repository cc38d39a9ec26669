package account_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/magicauth/handler"
	"github.com/dmitrymomot/magicauth/modules/account"
	"github.com/dmitrymomot/magicauth/pkg/auth"
	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/session"
	"github.com/dmitrymomot/magicauth/pkg/validator"
)

func newPublicRouter(t *testing.T, links *MockMagicLinks, sessions *session.Manager) http.Handler {
	t.Helper()
	h := account.NewMagicLinkHandler(links, sessions, account.WithNoticePath("/notice"))
	return account.Router(account.RouterOptions{MagicLink: h})
}

func TestRequestLink(t *testing.T) {
	t.Parallel()
	ack := auth.Ack{Code: auth.CodeLinkSent}

	t.Run("json request gets the ack", func(t *testing.T) {
		t.Parallel()
		links := &MockMagicLinks{}
		links.On("RequestLoginLink", mock.Anything, "ann@example.com").Return(ack, nil).Once()
		router := newPublicRouter(t, links, newSessions(t))

		req := httptest.NewRequest(http.MethodPost, "/auth/magic/request", strings.NewReader(`{"email":" ann@example.com "}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data auth.Ack `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, ack, body.Data)
		links.AssertExpectations(t)
	})

	t.Run("form request redirects to notice", func(t *testing.T) {
		t.Parallel()
		links := &MockMagicLinks{}
		links.On("RequestLoginLink", mock.Anything, "ann@example.com").Return(ack, nil).Once()
		router := newPublicRouter(t, links, newSessions(t))

		req := httptest.NewRequest(http.MethodPost, "/auth/magic/request", strings.NewReader("email=ann%40example.com"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/notice?notice=auth.link_sent", rec.Header().Get("Location"))
	})

	t.Run("malformed email", func(t *testing.T) {
		t.Parallel()
		invalid := errors.Join(auth.ErrInvalidEmail, validator.Apply(validator.ValidEmail("email", "nope")))
		links := &MockMagicLinks{}
		links.On("RequestLoginLink", mock.Anything, "nope").Return(auth.Ack{}, invalid)
		router := newPublicRouter(t, links, newSessions(t))

		req := httptest.NewRequest(http.MethodPost, "/auth/magic/request", strings.NewReader(`{"email":"nope"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var body handler.JSONResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotNil(t, body.Error)
		assert.Contains(t, body.Error.Details, "email")

		form := httptest.NewRequest(http.MethodPost, "/auth/magic/request", strings.NewReader("email=nope"))
		form.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, form)
		assert.Equal(t, "/notice?notice=auth.invalid_email", rec.Header().Get("Location"))
	})

	t.Run("unknown fields are a bad request", func(t *testing.T) {
		t.Parallel()
		links := &MockMagicLinks{}
		router := newPublicRouter(t, links, newSessions(t))

		req := httptest.NewRequest(http.MethodPost, "/auth/magic/request", strings.NewReader(`{"email":"a@b.co","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		links.AssertNotCalled(t, "RequestLoginLink", mock.Anything, mock.Anything)
	})
}

func TestConsumeLink(t *testing.T) {
	t.Parallel()
	var noSession *session.Session

	t.Run("anonymous visitor gets a session", func(t *testing.T) {
		t.Parallel()
		sessions := newSessions(t)
		userID := uuid.New()
		started, err := sessions.Start(t.Context(), userID, map[string]any{session.KeyTokenAuth: true})
		require.NoError(t, err)

		links := &MockMagicLinks{}
		links.On("ConsumeToken", mock.Anything, "secret", loginlink.KindLogin, noSession).
			Return(auth.Outcome{UserID: userID, SessionID: started.ID, Session: started}, nil).Once()
		router := newPublicRouter(t, links, sessions)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login?key=secret", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		got, err := sessions.Get(t.Context(), withCookies(httptest.NewRequest(http.MethodGet, "/", nil), rec.Result().Cookies()))
		require.NoError(t, err)
		assert.True(t, got.BelongsTo(userID))
		assert.True(t, got.TokenAuth())
		links.AssertExpectations(t)
	})

	t.Run("invitation route uses invitation kind", func(t *testing.T) {
		t.Parallel()
		sessions := newSessions(t)
		links := &MockMagicLinks{}
		links.On("ConsumeToken", mock.Anything, "secret", loginlink.KindInvitation, noSession).
			Return(auth.Outcome{}, auth.ErrWrongLinkType).Once()
		router := newPublicRouter(t, links, sessions)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invitation?key=secret", nil))

		assert.Equal(t, "/notice?notice=auth.wrong_link_type", rec.Header().Get("Location"))
		links.AssertExpectations(t)
	})

	t.Run("redirects to the stored return path", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			wants    string
			location string
		}{
			{"/course/view.php?id=7", "/course/view.php?id=7"},
			{"//evil.example.com/", "/"},
			{"https://evil.example.com/", "/"},
		}

		for _, tt := range tests {
			sessions := newSessions(t)
			started, err := sessions.Start(t.Context(), uuid.New(), nil)
			require.NoError(t, err)

			links := &MockMagicLinks{}
			links.On("ConsumeToken", mock.Anything, "secret", loginlink.KindLogin, mock.Anything).
				Return(auth.Outcome{UserID: *started.UserID, Session: started, WantsURL: tt.wants}, nil)
			router := newPublicRouter(t, links, sessions)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login?key=secret", nil))
			assert.Equal(t, tt.location, rec.Header().Get("Location"), tt.wants)
		}
	})

	t.Run("already authenticated keeps the session", func(t *testing.T) {
		t.Parallel()
		sessions := newSessions(t)
		userID := uuid.New()
		current, cookies := signIn(t, sessions, userID)

		links := &MockMagicLinks{}
		links.On("ConsumeToken", mock.Anything, "secret", loginlink.KindLogin, mock.MatchedBy(func(s *session.Session) bool {
			return s != nil && s.ID == current.ID
		})).Return(auth.Outcome{UserID: userID, SessionID: current.ID, AlreadyAuthenticated: true}, nil).Once()
		router := newPublicRouter(t, links, sessions)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withCookies(httptest.NewRequest(http.MethodGet, "/login?key=secret", nil), cookies))

		assert.Equal(t, "/", rec.Header().Get("Location"))
		assert.Empty(t, rec.Result().Cookies())
		links.AssertExpectations(t)
	})

	t.Run("rejection clears an authenticated session", func(t *testing.T) {
		t.Parallel()
		sessions := newSessions(t)
		_, cookies := signIn(t, sessions, uuid.New())

		links := &MockMagicLinks{}
		links.On("ConsumeToken", mock.Anything, "stale", loginlink.KindLogin, mock.Anything).
			Return(auth.Outcome{}, auth.ErrExpired).Once()
		router := newPublicRouter(t, links, sessions)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withCookies(httptest.NewRequest(http.MethodGet, "/login?key=stale", nil), cookies))

		assert.Equal(t, "/notice?notice=auth.invalid_link", rec.Header().Get("Location"))
		require.Len(t, rec.Result().Cookies(), 1)
		assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)

		_, err := sessions.Get(t.Context(), withCookies(httptest.NewRequest(http.MethodGet, "/", nil), cookies))
		assert.Error(t, err)
	})

	t.Run("rejection keeps an anonymous session", func(t *testing.T) {
		t.Parallel()
		sessions := newSessions(t)
		links := &MockMagicLinks{}
		links.On("ConsumeToken", mock.Anything, "", loginlink.KindLogin, noSession).
			Return(auth.Outcome{}, auth.ErrNotFound).Once()
		router := newPublicRouter(t, links, sessions)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

		assert.Equal(t, "/notice?notice=auth.invalid_link", rec.Header().Get("Location"))
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("internal failure", func(t *testing.T) {
		t.Parallel()
		sessions := newSessions(t)
		links := &MockMagicLinks{}
		links.On("ConsumeToken", mock.Anything, "secret", loginlink.KindLogin, noSession).
			Return(auth.Outcome{}, errors.New("start session: redis down")).Once()
		router := newPublicRouter(t, links, sessions)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login?key=secret", nil))
		assert.Equal(t, "/notice?notice=auth.internal", rec.Header().Get("Location"))
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()
	sessions := newSessions(t)
	_, cookies := signIn(t, sessions, uuid.New())
	router := newPublicRouter(t, &MockMagicLinks{}, sessions)

	req := withCookies(httptest.NewRequest(http.MethodPost, "/auth/magic/logout", nil), cookies)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err := sessions.Get(t.Context(), withCookies(httptest.NewRequest(http.MethodGet, "/", nil), cookies))
	assert.Error(t, err)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/magic/logout", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}
