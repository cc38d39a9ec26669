package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/magicauth/pkg/logger"
	"github.com/dmitrymomot/magicauth/pkg/requestid"
)

const genericErrorMessage = "An error occurred processing your request"

// ErrorPageParams is handed to the error page template.
type ErrorPageParams struct {
	Error      string
	StatusCode int
	RequestID  string
	RetryURL   string
}

type ErrorHandlerConfig struct {
	// ErrorPage renders the page shown to browsers. Nil means plain text.
	ErrorPage func(ErrorPageParams) templ.Component
}

// NewErrorHandler builds the shared ErrorHandler. Requests that send or
// accept JSON get the JSONResponse envelope, browsers get the error page.
// Client errors are logged at warn level, the rest at error.
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		w := ctx.ResponseWriter()
		reqID := requestid.FromContext(r.Context())
		status, detail := Describe(err)

		level := slog.LevelError
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(reqID),
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		if acceptsJSON(r) {
			if rerr := JSONError(err).Render(w, r); rerr != nil {
				log.Error("failed to render json error", logger.RequestID(reqID), logger.Error(rerr))
			}
			return
		}

		msg := genericErrorMessage
		if status != http.StatusInternalServerError || detail.Code != "internal_error" {
			msg = detail.Code
			if detail.Code == "validation_error" {
				msg = detail.Message
			}
		}

		if cfg.ErrorPage == nil {
			http.Error(w, msg, status)
			return
		}
		page := cfg.ErrorPage(ErrorPageParams{
			Error:      msg,
			StatusCode: status,
			RequestID:  reqID,
			RetryURL:   r.URL.Path,
		})
		if rerr := TemplWithStatus(page, status).Render(w, r); rerr != nil {
			log.Error("failed to render error page",
				logger.RequestID(reqID),
				logger.Error(rerr),
				logger.Event("render_error_page"),
			)
		}
	}
}

func acceptsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
