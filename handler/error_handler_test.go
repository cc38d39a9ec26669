package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/magicauth/handler"
	"github.com/dmitrymomot/magicauth/pkg/logger"
	"github.com/dmitrymomot/magicauth/pkg/requestid"
)

func errorPage(p handler.ErrorPageParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "%d %s %s", p.StatusCode, p.Error, p.RequestID)
		return err
	})
}

func TestNewErrorHandler(t *testing.T) {
	t.Parallel()
	log := logger.Noop()

	run := func(h handler.ErrorHandler[handler.Context], r *http.Request, err error) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h(handler.NewContext(w, r), err)
		return w
	}

	t.Run("browser gets error page", func(t *testing.T) {
		t.Parallel()
		h := handler.NewErrorHandler(log, handler.ErrorHandlerConfig{ErrorPage: errorPage})
		r := httptest.NewRequest(http.MethodGet, "/admin/magic/links", nil)
		r = r.WithContext(requestid.WithContext(r.Context(), "req-1"))

		w := run(h, r, handler.ErrForbidden)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "403 forbidden req-1", w.Body.String())
	})

	t.Run("json client gets envelope", func(t *testing.T) {
		t.Parallel()
		h := handler.NewErrorHandler(log, handler.ErrorHandlerConfig{ErrorPage: errorPage})
		r := httptest.NewRequest(http.MethodPost, "/auth/magic/request", nil)
		r.Header.Set("Accept", "application/json")

		ve := handler.NewValidationError()
		ve.Add("email", "validation.email")
		w := run(h, r, errors.Join(handler.ErrBadRequest, ve))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var got handler.JSONResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.NotNil(t, got.Error)
		assert.Equal(t, "validation_error", got.Error.Code)
	})

	t.Run("generic errors are 500 without page", func(t *testing.T) {
		t.Parallel()
		h := handler.NewErrorHandler(nil, handler.ErrorHandlerConfig{})
		w := run(h, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("db down"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "An error occurred processing your request")
		assert.NotContains(t, w.Body.String(), "db down")
	})

	t.Run("logs with request id", func(t *testing.T) {
		t.Parallel()
		rec := &recordingHandler{}
		h := handler.NewErrorHandler(slog.New(rec), handler.ErrorHandlerConfig{})
		r := httptest.NewRequest(http.MethodGet, "/login", nil)
		r = r.WithContext(requestid.WithContext(r.Context(), "req-2"))

		run(h, r, handler.ErrNotFound)
		require.Len(t, rec.records, 1)
		assert.Equal(t, slog.LevelWarn, rec.records[0].Level)

		attrs := map[string]string{}
		rec.records[0].Attrs(func(a slog.Attr) bool {
			attrs[a.Key] = a.Value.String()
			return true
		})
		assert.Equal(t, "req-2", attrs["request_id"])
		assert.Equal(t, "/login", attrs["path"])
	})
}

type recordingHandler struct {
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}
func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }
