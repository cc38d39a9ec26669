package handler

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/magicauth/pkg/binder"
)

// HandlerFunc is a typed endpoint: R is bound from the request before the
// call and the returned Response is rendered afterwards.
//
//	suspend := func(ctx handler.Context, req UserRequest) handler.Response {
//		if err := svc.SuspendUser(ctx, actorID, req.UserID); err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.Empty()
//	}
type HandlerFunc[C Context, R any] func(ctx C, req R) Response

// Response renders itself, headers and status included.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Bind fills v from r.
type Bind func(r *http.Request, v any) error

// ErrorHandler answers a request whose binding or rendering failed.
type ErrorHandler[C Context] func(ctx C, err error)

// Decorator wraps a HandlerFunc. The first decorator given is the outermost.
type Decorator[C Context, R any] func(HandlerFunc[C, R]) HandlerFunc[C, R]

// WrapOption tunes Wrap.
type WrapOption[C Context, R any] func(*endpoint[C, R])

type endpoint[C Context, R any] struct {
	handle     HandlerFunc[C, R]
	binders    []Bind
	onError    ErrorHandler[C]
	newContext func(http.ResponseWriter, *http.Request) C
	decorators []Decorator[C, R]
}

// WithBinder replaces the binder chain with b.
func WithBinder[C Context, R any](b Bind) WrapOption[C, R] {
	return func(e *endpoint[C, R]) {
		if b != nil {
			e.binders = []Bind{b}
		}
	}
}

// WithBinders appends binders. They run in order against the same value;
// a binder returning binder.ErrBinderNotApplicable is skipped.
//
//	r.Post("/admin/magic/users/{id}/send", handler.Wrap(h.send,
//		handler.WithBinders[handler.Context, SendRequest](
//			binder.Path(chi.URLParam),
//			binder.Query(),
//		),
//	))
func WithBinders[C Context, R any](binders ...Bind) WrapOption[C, R] {
	return func(e *endpoint[C, R]) {
		e.binders = append(e.binders, binders...)
	}
}

func WithErrorHandler[C Context, R any](h ErrorHandler[C]) WrapOption[C, R] {
	return func(e *endpoint[C, R]) {
		if h != nil {
			e.onError = h
		}
	}
}

// WithContextFactory is required when C is anything other than Context.
func WithContextFactory[C Context, R any](f func(http.ResponseWriter, *http.Request) C) WrapOption[C, R] {
	return func(e *endpoint[C, R]) {
		if f != nil {
			e.newContext = f
		}
	}
}

func WithDecorators[C Context, R any](decorators ...Decorator[C, R]) WrapOption[C, R] {
	return func(e *endpoint[C, R]) {
		e.decorators = append(e.decorators, decorators...)
	}
}

// plainErrors is the fallback when no ErrorHandler is configured: a text
// body carrying the message key.
func plainErrors[C Context](ctx C, err error) {
	w := ctx.ResponseWriter()

	var httpErr HTTPError
	var valErr ValidationError
	switch {
	case errors.As(err, &httpErr):
		http.Error(w, httpErr.Key, httpErr.Code)
	case errors.As(err, &valErr):
		http.Error(w, valErr.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func defaultContext[C Context](w http.ResponseWriter, r *http.Request) C {
	c, ok := NewContext(w, r).(C)
	if !ok {
		panic("handler: custom context type requires WithContextFactory")
	}
	return c
}

// Wrap turns h into an http.HandlerFunc.
func Wrap[C Context, R any](h HandlerFunc[C, R], opts ...WrapOption[C, R]) http.HandlerFunc {
	e := &endpoint[C, R]{
		onError:    plainErrors[C],
		newContext: defaultContext[C],
	}
	for _, opt := range opts {
		opt(e)
	}

	e.handle = h
	for i := len(e.decorators) - 1; i >= 0; i-- {
		e.handle = e.decorators[i](e.handle)
	}
	return e.serve
}

func (e *endpoint[C, R]) bind(r *http.Request) (R, error) {
	var req R
	for _, b := range e.binders {
		err := b(r, &req)
		if err == nil || errors.Is(err, binder.ErrBinderNotApplicable) {
			continue
		}
		return req, errors.Join(ErrBadRequest, err)
	}
	return req, nil
}

func (e *endpoint[C, R]) serve(w http.ResponseWriter, r *http.Request) {
	ctx := e.newContext(w, r)

	req, err := e.bind(r)
	if err != nil {
		e.onError(ctx, err)
		return
	}

	resp := e.handle(ctx, req)
	if resp == nil {
		e.onError(ctx, ErrNilResponse)
		return
	}
	if err := resp.Render(w, r); err != nil {
		e.onError(ctx, err)
	}
}
