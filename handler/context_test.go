package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/magicauth/handler"
)

func TestContext(t *testing.T) {
	t.Parallel()

	key := handler.NewContextKey("actor")
	assert.Equal(t, "actor", key.String())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(context.WithValue(r.Context(), key, "admin"))
	w := httptest.NewRecorder()

	ctx := handler.NewContext(w, r)
	assert.Same(t, r, ctx.Request())
	assert.Equal(t, w, ctx.ResponseWriter())
	assert.NoError(t, ctx.Err())

	assert.Equal(t, "admin", handler.ContextValue[string](ctx, key))
	assert.Zero(t, handler.ContextValue[int](ctx, key))

	v, ok := handler.ContextValueOK[string](ctx, key)
	assert.True(t, ok)
	assert.Equal(t, "admin", v)

	_, ok = handler.ContextValueOK[string](ctx, handler.NewContextKey("missing"))
	assert.False(t, ok)
}
