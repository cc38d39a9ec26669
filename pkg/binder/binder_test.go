package binder_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/magicauth/pkg/binder"
)

type provisionRequest struct {
	Email    string         `json:"email" form:"email"`
	CourseID uuid.UUID      `json:"course_id" form:"course_id"`
	Duration *time.Duration `json:"-" form:"duration"`
	Notify   bool           `json:"notify" form:"notify"`
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("binds and sanitizes strings", func(t *testing.T) {
		t.Parallel()
		courseID := uuid.New()
		body := `{"email":"  ann@example.com\u0000 ","course_id":"` + courseID.String() + `","notify":true}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")

		var got provisionRequest
		require.NoError(t, binder.JSON()(req, &got))
		assert.Equal(t, "ann@example.com", got.Email)
		assert.Equal(t, courseID, got.CourseID)
		assert.True(t, got.Notify)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c","admin":true}`))
		req.Header.Set("Content-Type", "application/json")

		var got provisionRequest
		assert.ErrorIs(t, binder.JSON()(req, &got), binder.ErrFailedToParseJSON)
	})

	t.Run("rejects trailing data", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}{"email":"x@y.z"}`))
		req.Header.Set("Content-Type", "application/json")

		var got provisionRequest
		assert.ErrorIs(t, binder.JSON()(req, &got), binder.ErrFailedToParseJSON)
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		t.Parallel()
		big := `{"email":"` + strings.Repeat("a", binder.DefaultMaxJSONSize) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		req.Header.Set("Content-Type", "application/json")

		var got provisionRequest
		assert.ErrorIs(t, binder.JSON()(req, &got), binder.ErrFailedToParseJSON)
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(nil))
		req.Header.Set("Content-Type", "application/json")

		var got provisionRequest
		assert.ErrorIs(t, binder.JSON()(req, &got), binder.ErrFailedToParseJSON)
	})

	t.Run("other media type is not applicable", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("email=a%40b.c"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		var got provisionRequest
		err := binder.JSON()(req, &got)
		assert.ErrorIs(t, err, binder.ErrBinderNotApplicable)
		assert.ErrorIs(t, err, binder.ErrUnsupportedMediaType)
	})

	t.Run("missing content type with body", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}`))

		var got provisionRequest
		assert.ErrorIs(t, binder.JSON()(req, &got), binder.ErrMissingContentType)
	})

	t.Run("no body at all is not applicable", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", nil)

		var got provisionRequest
		assert.ErrorIs(t, binder.JSON()(req, &got), binder.ErrBinderNotApplicable)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req := httptest.NewRequestWithContext(ctx, http.MethodPost, "/", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")

		var got provisionRequest
		assert.ErrorIs(t, binder.JSON()(req, &got), binder.ErrFailedToParseJSON)
	})
}

func TestForm(t *testing.T) {
	t.Parallel()

	t.Run("urlencoded", func(t *testing.T) {
		t.Parallel()
		courseID := uuid.New()
		form := url.Values{
			"email":     {"ann@example.com"},
			"course_id": {courseID.String()},
			"duration":  {"720h"},
			"notify":    {"on"},
		}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		var got provisionRequest
		require.NoError(t, binder.Form()(req, &got))
		assert.Equal(t, "ann@example.com", got.Email)
		assert.Equal(t, courseID, got.CourseID)
		require.NotNil(t, got.Duration)
		assert.Equal(t, 720*time.Hour, *got.Duration)
		assert.True(t, got.Notify)
	})

	t.Run("invalid uuid", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("course_id=nope"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		var got provisionRequest
		assert.ErrorIs(t, binder.Form()(req, &got), binder.ErrFailedToParseForm)
	})

	t.Run("json body is not applicable", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")

		var got provisionRequest
		assert.ErrorIs(t, binder.Form()(req, &got), binder.ErrBinderNotApplicable)
	})

	t.Run("query values are ignored", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/?email=evil@example.com", strings.NewReader("notify=1"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		var got provisionRequest
		require.NoError(t, binder.Form()(req, &got))
		assert.Empty(t, got.Email)
		assert.True(t, got.Notify)
	})
}

func TestQuery(t *testing.T) {
	t.Parallel()

	type listRequest struct {
		Kind   string   `query:"kind"`
		Kinds  []string `query:"kinds"`
		Page   int      `query:"page"`
		Ignore string   `query:"-"`
		Plain  string
	}

	t.Run("binds tagged fields only", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/?kind=login&kinds=login,invitation&page=2&ignore=x&plain=y", nil)

		var got listRequest
		require.NoError(t, binder.Query()(req, &got))
		assert.Equal(t, "login", got.Kind)
		assert.Equal(t, []string{"login", "invitation"}, got.Kinds)
		assert.Equal(t, 2, got.Page)
		assert.Empty(t, got.Ignore)
		assert.Empty(t, got.Plain)
	})

	t.Run("invalid int", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/?page=two", nil)

		var got listRequest
		assert.ErrorIs(t, binder.Query()(req, &got), binder.ErrFailedToParseQuery)
	})

	t.Run("target must be a struct pointer", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		var got listRequest
		assert.ErrorIs(t, binder.Query()(req, got), binder.ErrFailedToParseQuery)
		var s string
		assert.ErrorIs(t, binder.Query()(req, &s), binder.ErrFailedToParseQuery)
	})
}

func TestPath(t *testing.T) {
	t.Parallel()

	type userRequest struct {
		UserID uuid.UUID `path:"id"`
		Kind   string    `path:"kind"`
	}

	params := map[string]string{}
	userID := uuid.New()
	params["id"] = userID.String()
	params["kind"] = "invitation"
	extractor := func(_ *http.Request, name string) string { return params[name] }

	t.Run("binds path values", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		var got userRequest
		require.NoError(t, binder.Path(extractor)(req, &got))
		assert.Equal(t, userID, got.UserID)
		assert.Equal(t, "invitation", got.Kind)
	})

	t.Run("invalid uuid", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		bad := func(*http.Request, string) string { return "not-a-uuid" }

		var got userRequest
		assert.ErrorIs(t, binder.Path(bad)(req, &got), binder.ErrFailedToParsePath)
	})

	t.Run("nil extractor", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		var got userRequest
		assert.ErrorIs(t, binder.Path(nil)(req, &got), binder.ErrFailedToParsePath)
	})
}
