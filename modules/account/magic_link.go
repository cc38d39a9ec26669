package account

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/magicauth/handler"
	"github.com/dmitrymomot/magicauth/pkg/auth"
	"github.com/dmitrymomot/magicauth/pkg/binder"
	"github.com/dmitrymomot/magicauth/pkg/logger"
	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/sanitizer"
)

const keyInvalidEmail = "auth.invalid_email"

// MagicLinkHandler serves the public magic link routes.
type MagicLinkHandler struct {
	links        MagicLinks
	sessions     SessionManager
	noticePath   string
	errorHandler handler.ErrorHandler[handler.Context]
	logger       *slog.Logger
}

type MagicLinkHandlerOption func(*MagicLinkHandler)

// WithNoticePath sets the page users are sent to with a ?notice=<key>
// message after a rejected link or a form submission. Defaults to "/".
func WithNoticePath(path string) MagicLinkHandlerOption {
	return func(h *MagicLinkHandler) {
		h.noticePath = sanitizer.LocalRedirect(path, "/")
	}
}

func WithErrorHandler(eh handler.ErrorHandler[handler.Context]) MagicLinkHandlerOption {
	return func(h *MagicLinkHandler) {
		if eh != nil {
			h.errorHandler = eh
		}
	}
}

func WithLogger(l *slog.Logger) MagicLinkHandlerOption {
	return func(h *MagicLinkHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewMagicLinkHandler(links MagicLinks, sessions SessionManager, opts ...MagicLinkHandlerOption) *MagicLinkHandler {
	h := &MagicLinkHandler{
		links:      links,
		sessions:   sessions,
		noticePath: "/",
		logger:     logger.Noop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.errorHandler == nil {
		h.errorHandler = handler.NewErrorHandler(h.logger, handler.ErrorHandlerConfig{ErrorPage: ErrorPage})
	}
	return h
}

// Handle returns the routes mounted under /auth/magic.
func (h *MagicLinkHandler) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/request", handler.Wrap(h.requestLink,
		handler.WithBinders[handler.Context, RequestLinkRequest](
			binder.JSON(),
			binder.Form(),
		),
		handler.WithErrorHandler[handler.Context, RequestLinkRequest](h.errorHandler),
	))

	r.Post("/logout", handler.Wrap(h.logout,
		handler.WithErrorHandler[handler.Context, struct{}](h.errorHandler),
	))

	return r
}

// ConsumeHandler returns the handler for the URL links of kind point at.
func (h *MagicLinkHandler) ConsumeHandler(kind loginlink.Kind) http.HandlerFunc {
	return handler.Wrap(h.consume(kind),
		handler.WithBinders[handler.Context, ConsumeRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, ConsumeRequest](h.errorHandler),
	)
}

// RequestLinkRequest accepts JSON and form posts.
type RequestLinkRequest struct {
	Email string `json:"email" form:"email"`
}

// requestLink always answers with the same acknowledgement for any
// well-formed address. Browsers are redirected to the notice page.
func (h *MagicLinkHandler) requestLink(ctx handler.Context, req RequestLinkRequest) handler.Response {
	ack, err := h.links.RequestLoginLink(ctx, req.Email)
	if err != nil {
		if !isJSONRequest(ctx.Request()) {
			return handler.Redirect(h.noticeURL(keyInvalidEmail))
		}
		return handler.JSONError(handler.FromValidation(err))
	}

	if isJSONRequest(ctx.Request()) {
		return handler.JSON(ack)
	}
	return handler.Redirect(h.noticeURL(ack.Code))
}

// ConsumeRequest carries the secret from the link URL.
type ConsumeRequest struct {
	Key string `query:"key"`
}

func (h *MagicLinkHandler) consume(kind loginlink.Kind) handler.HandlerFunc[handler.Context, ConsumeRequest] {
	return func(ctx handler.Context, req ConsumeRequest) handler.Response {
		w, r := ctx.ResponseWriter(), ctx.Request()

		// A missing or expired session just means an anonymous visitor.
		current, _ := h.sessions.Get(ctx, r)

		outcome, err := h.links.ConsumeToken(ctx, req.Key, kind, current)
		if err != nil {
			if current.IsAuthenticated() {
				// The session is gone from the store; drop the cookie too.
				if err := h.sessions.Destroy(ctx, w, r); err != nil {
					h.logger.WarnContext(ctx, "failed to clear session token",
						logger.Error(err),
						logger.Component("account"),
					)
				}
			}
			return handler.Redirect(h.noticeURL(auth.PublicError(err)))
		}

		if outcome.Session != nil {
			if err := h.sessions.Attach(w, outcome.Session); err != nil {
				h.logger.ErrorContext(ctx, "failed to attach session",
					logger.UserID(outcome.UserID),
					logger.Error(err),
					logger.Component("account"),
				)
				return handler.Redirect(h.noticeURL(auth.KeyInternal))
			}
		}

		return handler.Redirect(sanitizer.LocalRedirect(outcome.WantsURL, "/"))
	}
}

func (h *MagicLinkHandler) logout(ctx handler.Context, _ struct{}) handler.Response {
	if err := h.sessions.Destroy(ctx, ctx.ResponseWriter(), ctx.Request()); err != nil {
		return handler.JSONError(err)
	}
	if isJSONRequest(ctx.Request()) {
		return handler.Empty()
	}
	return handler.Redirect("/")
}

func (h *MagicLinkHandler) noticeURL(key string) string {
	if key == "" {
		return h.noticePath
	}
	sep := "?"
	if strings.Contains(h.noticePath, "?") {
		sep = "&"
	}
	return h.noticePath + sep + "notice=" + url.QueryEscape(key)
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
