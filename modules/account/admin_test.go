package account_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/magicauth/handler"
	"github.com/dmitrymomot/magicauth/modules/account"
	"github.com/dmitrymomot/magicauth/pkg/auth"
	"github.com/dmitrymomot/magicauth/pkg/directory"
	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/rbac"
	"github.com/dmitrymomot/magicauth/pkg/session"
)

type adminFixture struct {
	actions  *MockAdminActions
	users    *MockActorLookup
	guard    *MockGuard
	actor    *auth.User
	sessions *session.Manager
	cookies  []*http.Cookie
	router   http.Handler
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	sessions := newSessions(t)
	f := &adminFixture{
		actions:  &MockAdminActions{},
		users:    &MockActorLookup{},
		guard:    &MockGuard{},
		actor:    &auth.User{ID: uuid.New(), Email: "admin@example.com", Role: rbac.RoleAdmin},
		sessions: sessions,
	}
	_, f.cookies = signIn(t, sessions, f.actor.ID)
	f.users.On("FindByID", mock.Anything, f.actor.ID).Return(f.actor, nil).Maybe()

	f.router = account.Router(account.RouterOptions{
		Admin: account.NewAdminHandler(f.actions, f.users, f.guard, sessions),
	})
	return f
}

func (f *adminFixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Accept", "application/json")
	withCookies(req, f.cookies)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) handler.JSONResponse {
	t.Helper()
	var body handler.JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAdminAuthentication(t *testing.T) {
	t.Parallel()

	t.Run("no session", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)
		f.cookies = nil

		rec := f.do(http.MethodGet, "/admin/magic/links", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "auth.unauthenticated", decodeResponse(t, rec).Error.Code)
	})

	t.Run("anonymous visit remembers the destination", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)
		f.cookies = nil

		rec := f.do(http.MethodGet, "/admin/magic/links?page=2", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "auth.unauthenticated", decodeResponse(t, rec).Error.Code)

		s, err := f.sessions.Get(t.Context(), withCookies(httptest.NewRequest(http.MethodGet, "/", nil), rec.Result().Cookies()))
		require.NoError(t, err)
		assert.False(t, s.IsAuthenticated())
		assert.Equal(t, "/admin/magic/links?page=2", s.WantsURL())
	})

	t.Run("suspended actor", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)
		f.actor.Suspended = true

		rec := f.do(http.MethodGet, "/admin/magic/links", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		f.guard.AssertNotCalled(t, "ViewScope", mock.Anything)
	})

	t.Run("lookup failure", func(t *testing.T) {
		t.Parallel()
		sessions := newSessions(t)
		userID := uuid.New()
		_, cookies := signIn(t, sessions, userID)
		users := &MockActorLookup{}
		users.On("FindByID", mock.Anything, userID).Return(nil, errors.New("db down"))

		router := account.Router(account.RouterOptions{
			Admin: account.NewAdminHandler(&MockAdminActions{}, users, &MockGuard{}, sessions),
		})
		req := withCookies(httptest.NewRequest(http.MethodGet, "/admin/magic/links", nil), cookies)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db down")
	})
}

func TestAdminProvision(t *testing.T) {
	t.Parallel()
	courseID := uuid.New()

	t.Run("creates account and enrols", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)
		userID := uuid.New()
		duration := 720 * time.Hour

		f.guard.On("Check", mock.Anything, f.actor, auth.ActionCourseRegistration, uuid.Nil).Return(nil).Once()
		f.actions.On("ProvisionAccount", mock.Anything, f.actor.ID, auth.ProvisionParams{
			Email:     "ann@example.com",
			FirstName: "Ann",
			LastName:  "Lee",
			CourseID:  courseID,
			Role:      "student",
			Duration:  &duration,
		}).Return(auth.ProvisionResult{UserID: userID, Created: true, Enrolled: true, Dispatched: true}, nil).Once()

		rec := f.do(http.MethodPost, "/admin/magic/users", `{
			"email": "ann@example.com",
			"first_name": "Ann",
			"last_name": "Lee",
			"course_id": "`+courseID.String()+`",
			"role": " student ",
			"duration": "720h"
		}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		data := decodeResponse(t, rec).Data.(map[string]any)
		assert.Equal(t, userID.String(), data["user_id"])
		assert.Equal(t, true, data["enrolled"])
		f.actions.AssertExpectations(t)
		f.guard.AssertExpectations(t)
	})

	t.Run("existing account", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)
		f.guard.On("Check", mock.Anything, f.actor, auth.ActionSiteRegistration, uuid.Nil).Return(nil)
		f.actions.On("ProvisionAccount", mock.Anything, f.actor.ID, mock.Anything).
			Return(auth.ProvisionResult{UserID: uuid.New()}, nil)

		rec := f.do(http.MethodPost, "/admin/magic/users", `{"email":"ann@example.com"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forbidden", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)
		f.guard.On("Check", mock.Anything, f.actor, auth.ActionSiteRegistration, uuid.Nil).Return(auth.ErrForbidden)

		rec := f.do(http.MethodPost, "/admin/magic/users", `{"email":"ann@example.com"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, auth.KeyForbidden, decodeResponse(t, rec).Error.Code)
		f.actions.AssertNotCalled(t, "ProvisionAccount", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)
		f.guard.On("Check", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		rec := f.do(http.MethodPost, "/admin/magic/users", `{"email":"ann@example.com","duration":"a month"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeResponse(t, rec).Error.Details, "duration")
	})

	t.Run("service errors", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			err    error
			status int
		}{
			{directory.ErrEmailTaken, http.StatusConflict},
			{auth.ErrDeliveryFailed, http.StatusBadGateway},
			{errors.New("db down"), http.StatusInternalServerError},
		}
		for _, tt := range tests {
			f := newAdminFixture(t)
			f.guard.On("Check", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
			f.actions.On("ProvisionAccount", mock.Anything, mock.Anything, mock.Anything).
				Return(auth.ProvisionResult{}, tt.err)

			rec := f.do(http.MethodPost, "/admin/magic/users", `{"email":"ann@example.com"}`)
			assert.Equal(t, tt.status, rec.Code, tt.err.Error())
		}
	})
}

func TestAdminUserActions(t *testing.T) {
	t.Parallel()
	target := uuid.New()

	t.Run("send link", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)
		f.guard.On("Check", mock.Anything, f.actor, auth.ActionSendLink, target).Return(nil)
		f.actions.On("Resend", mock.Anything, target, loginlink.KindInvitation).Return(nil).Once()

		rec := f.do(http.MethodPost, "/admin/magic/users/"+target.String()+"/send?kind=invitation", "")
		assert.Equal(t, http.StatusAccepted, rec.Code)
		f.actions.AssertExpectations(t)
	})

	t.Run("send with unknown kind", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)

		rec := f.do(http.MethodPost, "/admin/magic/users/"+target.String()+"/send?kind=reset", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "auth.invalid_kind", decodeResponse(t, rec).Error.Code)
		f.guard.AssertNotCalled(t, "Check", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed id", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)

		rec := f.do(http.MethodPost, "/admin/magic/users/not-a-uuid/suspend", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("copy link", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)
		view := auth.LinkView{
			UserID: target,
			Kind:   loginlink.KindLogin,
			URL:    "https://school.example.com/login?key=abc",
			QRCode: "data:image/png;base64,AAAA",
		}
		f.guard.On("Check", mock.Anything, f.actor, auth.ActionCopyLink, target).Return(nil)
		f.actions.On("CopyLink", mock.Anything, f.actor.ID, target, loginlink.KindLogin).Return(view, nil).Once()

		rec := f.do(http.MethodPost, "/admin/magic/users/"+target.String()+"/copy?kind=login", "")
		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeResponse(t, rec).Data.(map[string]any)
		assert.Equal(t, view.URL, data["url"])
		assert.Equal(t, view.QRCode, data["qr_code"])
	})

	t.Run("suspend and unsuspend", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)
		f.guard.On("Check", mock.Anything, f.actor, auth.ActionSuspendUser, target).Return(nil)
		f.actions.On("SuspendUser", mock.Anything, f.actor.ID, target).Return(nil).Once()
		f.actions.On("UnsuspendUser", mock.Anything, f.actor.ID, target).Return(auth.ErrAccountUnavailable).Once()

		rec := f.do(http.MethodPost, "/admin/magic/users/"+target.String()+"/suspend", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = f.do(http.MethodPost, "/admin/magic/users/"+target.String()+"/unsuspend", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		f.actions.AssertExpectations(t)
	})

	t.Run("refresh", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)
		f.guard.On("Check", mock.Anything, f.actor, auth.ActionUpdateUser, target).Return(nil)
		f.actions.On("UserUpdated", mock.Anything, f.actor.ID, target).Return(auth.ErrUserNotFound).Once()

		rec := f.do(http.MethodPost, "/admin/magic/users/"+target.String()+"/refresh", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)
		f.guard.On("Check", mock.Anything, f.actor, auth.ActionDeleteUser, target).Return(nil)
		f.actions.On("DeleteUser", mock.Anything, f.actor.ID, target).Return(nil).Once()

		rec := f.do(http.MethodDelete, "/admin/magic/users/"+target.String(), "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		f.actions.AssertExpectations(t)
	})

	t.Run("self delete is refused", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)

		rec := f.do(http.MethodDelete, "/admin/magic/users/"+f.actor.ID.String(), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		f.actions.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAdminListLinks(t *testing.T) {
	t.Parallel()

	t.Run("owned accounts", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)
		info := auth.LinkInfo{UserID: uuid.New(), Email: "child@example.com", Kind: loginlink.KindLogin}
		f.guard.On("ViewScope", f.actor).Return(true, false)
		f.actions.On("ListLinks", mock.Anything, f.actor.ID, false).Return([]auth.LinkInfo{info}, nil)

		rec := f.do(http.MethodGet, "/admin/magic/links", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeResponse(t, rec)
		assert.Equal(t, "children", body.Meta["scope"])
		assert.EqualValues(t, 1, body.Meta["count"])
		require.Len(t, body.Data, 1)
		assert.NotContains(t, rec.Body.String(), "secret")
	})

	t.Run("empty listing", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)
		f.guard.On("ViewScope", f.actor).Return(true, true)
		f.actions.On("ListLinks", mock.Anything, f.actor.ID, true).Return(nil, nil)

		rec := f.do(http.MethodGet, "/admin/magic/links", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeResponse(t, rec)
		assert.Equal(t, "all", body.Meta["scope"])
		assert.EqualValues(t, 0, body.Meta["count"])
	})

	t.Run("not allowed", func(t *testing.T) {
		t.Parallel()
		f := newAdminFixture(t)
		f.guard.On("ViewScope", f.actor).Return(false, false)

		rec := f.do(http.MethodGet, "/admin/magic/links", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
