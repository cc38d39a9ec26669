package handler

import (
	"context"
	"net/http"
)

// Context is what every typed handler receives: the request context plus the
// raw request and writer for responses that need them.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
}

type requestContext struct {
	context.Context
	w http.ResponseWriter
	r *http.Request
}

// NewContext binds w and r into a Context. Cancellation and values follow
// r.Context().
func NewContext(w http.ResponseWriter, r *http.Request) Context {
	return requestContext{Context: r.Context(), w: w, r: r}
}

func (c requestContext) Request() *http.Request              { return c.r }
func (c requestContext) ResponseWriter() http.ResponseWriter { return c.w }

// ContextKey is a pointer-identity key for values stored by middleware.
type ContextKey struct{ name string }

// NewContextKey returns a key that only matches itself.
//
//	var actorKey = handler.NewContextKey("actor")
func NewContextKey(name string) *ContextKey { return &ContextKey{name: name} }

func (k *ContextKey) String() string { return k.name }

// ContextValue returns the value under key, or the zero T.
func ContextValue[T any](ctx context.Context, key any) T {
	v, _ := ContextValueOK[T](ctx, key)
	return v
}

// ContextValueOK reports whether key holds a T.
func ContextValueOK[T any](ctx context.Context, key any) (T, bool) {
	v, ok := ctx.Value(key).(T)
	return v, ok
}
