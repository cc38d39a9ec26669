package account

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/magicauth/handler"
	"github.com/dmitrymomot/magicauth/pkg/auth"
	"github.com/dmitrymomot/magicauth/pkg/binder"
	"github.com/dmitrymomot/magicauth/pkg/logger"
	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/session"
)

var actorKey = handler.NewContextKey("account.actor")

// ActorFromContext returns the signed-in account resolved for admin routes.
func ActorFromContext(ctx context.Context) (*auth.User, bool) {
	return handler.ContextValueOK[*auth.User](ctx, actorKey)
}

// AdminHandler serves the admin routes for magic accounts and their links.
// Every route requires an authenticated, available account and an rbac
// permission checked by the Guard.
type AdminHandler struct {
	actions      AdminActions
	users        ActorLookup
	guard        Guard
	sessions     SessionManager
	errorHandler handler.ErrorHandler[handler.Context]
	logger       *slog.Logger
}

type AdminHandlerOption func(*AdminHandler)

func WithAdminErrorHandler(eh handler.ErrorHandler[handler.Context]) AdminHandlerOption {
	return func(h *AdminHandler) {
		if eh != nil {
			h.errorHandler = eh
		}
	}
}

func WithAdminLogger(l *slog.Logger) AdminHandlerOption {
	return func(h *AdminHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewAdminHandler(actions AdminActions, users ActorLookup, guard Guard, sessions SessionManager, opts ...AdminHandlerOption) *AdminHandler {
	h := &AdminHandler{
		actions:  actions,
		users:    users,
		guard:    guard,
		sessions: sessions,
		logger:   logger.Noop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.errorHandler == nil {
		h.errorHandler = handler.NewErrorHandler(h.logger, handler.ErrorHandlerConfig{ErrorPage: ErrorPage})
	}
	return h
}

// Handle returns the routes mounted under /admin/magic.
func (h *AdminHandler) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(
		h.sessions.RequireAuthWith(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.errorHandler(handler.NewContext(w, r), errUnauthenticated)
		})),
		h.authenticate,
	)

	r.Post("/users", handler.Wrap(h.provision,
		handler.WithBinders[handler.Context, ProvisionRequest](binder.JSON(), binder.Form()),
		handler.WithErrorHandler[handler.Context, ProvisionRequest](h.errorHandler),
	))

	r.Route("/users/{id}", func(r chi.Router) {
		r.Post("/send", wrapUser(h, h.send))
		r.Post("/copy", wrapUser(h, h.copyLink))
		r.Post("/suspend", wrapUser(h, h.suspend))
		r.Post("/unsuspend", wrapUser(h, h.unsuspend))
		r.Post("/refresh", wrapUser(h, h.refresh))
		r.Delete("/", wrapUser(h, h.delete))
	})

	r.Get("/links", handler.Wrap(h.listLinks,
		handler.WithErrorHandler[handler.Context, struct{}](h.errorHandler),
	))

	return r
}

// UserRequest addresses one account, optionally with a link kind.
type UserRequest struct {
	UserID uuid.UUID `path:"id"`
	Kind   string    `query:"kind"`
}

func wrapUser(h *AdminHandler, fn handler.HandlerFunc[handler.Context, UserRequest]) http.HandlerFunc {
	return handler.Wrap(fn,
		handler.WithBinders[handler.Context, UserRequest](
			binder.Path(chi.URLParam),
			binder.Query(),
		),
		handler.WithErrorHandler[handler.Context, UserRequest](h.errorHandler),
	)
}

// authenticate resolves the signed-in account of the session put in the
// context by RequireAuthWith. Suspended and deleted accounts are treated
// as signed out.
func (h *AdminHandler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := session.UserIDFromContext(r.Context())
		if !ok {
			h.errorHandler(handler.NewContext(w, r), errUnauthenticated)
			return
		}

		actor, err := h.users.FindByID(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, auth.ErrUserNotFound) {
				h.errorHandler(handler.NewContext(w, r), err)
				return
			}
			h.errorHandler(handler.NewContext(w, r), errUnauthenticated)
			return
		}
		if !actor.Available() {
			h.errorHandler(handler.NewContext(w, r), errUnauthenticated)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ProvisionRequest is a quick registration. Duration uses Go duration
// syntax ("720h"); empty means the configured default.
type ProvisionRequest struct {
	Email     string    `json:"email" form:"email"`
	FirstName string    `json:"first_name" form:"first_name"`
	LastName  string    `json:"last_name" form:"last_name"`
	CourseID  uuid.UUID `json:"course_id" form:"course_id"`
	Role      string    `json:"role" form:"role"`
	Duration  string    `json:"duration" form:"duration"`
}

func (h *AdminHandler) provision(ctx handler.Context, req ProvisionRequest) handler.Response {
	actor, _ := ActorFromContext(ctx)

	action := auth.ActionSiteRegistration
	if req.CourseID != uuid.Nil {
		action = auth.ActionCourseRegistration
	}
	if err := h.guard.Check(ctx, actor, action, uuid.Nil); err != nil {
		return handler.JSONError(apiError(err))
	}

	params := auth.ProvisionParams{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CourseID:  req.CourseID,
		Role:      strings.TrimSpace(req.Role),
	}
	if req.Duration != "" {
		d, err := time.ParseDuration(req.Duration)
		if err != nil {
			ve := handler.NewValidationError()
			ve.Add("duration", "validation.duration")
			return handler.JSONError(ve)
		}
		params.Duration = &d
	}

	result, err := h.actions.ProvisionAccount(ctx, actor.ID, params)
	if err != nil {
		return handler.JSONError(apiError(err))
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	return handler.JSON(result, handler.WithJSONStatus(status))
}

func (h *AdminHandler) send(ctx handler.Context, req UserRequest) handler.Response {
	actor, _ := ActorFromContext(ctx)
	kind, err := loginlink.ParseKind(req.Kind)
	if err != nil {
		return handler.JSONError(apiError(err))
	}
	if err := h.guard.Check(ctx, actor, auth.ActionSendLink, req.UserID); err != nil {
		return handler.JSONError(apiError(err))
	}
	if err := h.actions.Resend(ctx, req.UserID, kind); err != nil {
		return handler.JSONError(apiError(err))
	}
	return handler.EmptyWithStatus(http.StatusAccepted)
}

func (h *AdminHandler) copyLink(ctx handler.Context, req UserRequest) handler.Response {
	actor, _ := ActorFromContext(ctx)
	kind, err := loginlink.ParseKind(req.Kind)
	if err != nil {
		return handler.JSONError(apiError(err))
	}
	if err := h.guard.Check(ctx, actor, auth.ActionCopyLink, req.UserID); err != nil {
		return handler.JSONError(apiError(err))
	}
	view, err := h.actions.CopyLink(ctx, actor.ID, req.UserID, kind)
	if err != nil {
		return handler.JSONError(apiError(err))
	}
	return handler.JSON(view)
}

func (h *AdminHandler) suspend(ctx handler.Context, req UserRequest) handler.Response {
	return h.userAction(ctx, auth.ActionSuspendUser, req.UserID, h.actions.SuspendUser)
}

func (h *AdminHandler) unsuspend(ctx handler.Context, req UserRequest) handler.Response {
	return h.userAction(ctx, auth.ActionSuspendUser, req.UserID, h.actions.UnsuspendUser)
}

func (h *AdminHandler) delete(ctx handler.Context, req UserRequest) handler.Response {
	actor, _ := ActorFromContext(ctx)
	if actor != nil && actor.ID == req.UserID {
		return handler.JSONError(errForbidden)
	}
	return h.userAction(ctx, auth.ActionDeleteUser, req.UserID, h.actions.DeleteUser)
}

// refresh runs the user-updated hook after the host changed the account.
func (h *AdminHandler) refresh(ctx handler.Context, req UserRequest) handler.Response {
	return h.userAction(ctx, auth.ActionUpdateUser, req.UserID, h.actions.UserUpdated)
}

func (h *AdminHandler) userAction(
	ctx handler.Context,
	action auth.Action,
	target uuid.UUID,
	fn func(ctx context.Context, actorID, userID uuid.UUID) error,
) handler.Response {
	actor, _ := ActorFromContext(ctx)
	if err := h.guard.Check(ctx, actor, action, target); err != nil {
		return handler.JSONError(apiError(err))
	}
	if err := fn(ctx, actor.ID, target); err != nil {
		return handler.JSONError(apiError(err))
	}
	return handler.Empty()
}

func (h *AdminHandler) listLinks(ctx handler.Context, _ struct{}) handler.Response {
	actor, _ := ActorFromContext(ctx)
	allowed, all := h.guard.ViewScope(actor)
	if !allowed {
		return handler.JSONError(errForbidden)
	}

	infos, err := h.actions.ListLinks(ctx, actor.ID, all)
	if err != nil {
		return handler.JSONError(apiError(err))
	}
	if infos == nil {
		infos = []auth.LinkInfo{}
	}
	return handler.JSON(infos, handler.WithJSONMeta(map[string]any{
		"count": len(infos),
		"scope": scopeName(all),
	}))
}

func scopeName(all bool) string {
	if all {
		return "all"
	}
	return "children"
}
