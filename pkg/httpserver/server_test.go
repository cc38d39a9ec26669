package httpserver_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/magicauth/pkg/httpserver"
)

func waitForAddr(t *testing.T, srv *httpserver.Server) string {
	t.Helper()
	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 10*time.Millisecond)
	return srv.Addr().String()
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("serves until context is cancelled", func(t *testing.T) {
		t.Parallel()
		var workerStopped, hookRan atomic.Bool
		srv := httpserver.New(
			httpserver.WithAddr("127.0.0.1:0"),
			httpserver.WithShutdownTimeout(time.Second),
			httpserver.WithWorker("cleanup", func(ctx context.Context) {
				<-ctx.Done()
				workerStopped.Store(true)
			}),
			httpserver.WithStopHook(func(context.Context) {
				hookRan.Store(workerStopped.Load())
			}),
		)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- srv.Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("ok"))
			}))
		}()

		addr := waitForAddr(t, srv)
		resp, err := http.Get("http://" + addr)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, "ok", string(body))

		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(3 * time.Second):
			require.Fail(t, "run did not return")
		}
		assert.True(t, workerStopped.Load())
		assert.True(t, hookRan.Load(), "stop hooks run after workers")
	})

	t.Run("manual shutdown", func(t *testing.T) {
		t.Parallel()
		srv := httpserver.New(httpserver.WithAddr("127.0.0.1:0"))

		done := make(chan error, 1)
		go func() { done <- srv.Run(context.Background(), nil) }()
		waitForAddr(t, srv)

		require.NoError(t, srv.Shutdown(context.Background()))
		require.NoError(t, <-done)
		require.NoError(t, srv.Shutdown(context.Background()))
	})

	t.Run("shutdown before run", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, httpserver.New().Shutdown(context.Background()))
	})

	t.Run("address in use", func(t *testing.T) {
		t.Parallel()
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer ln.Close()

		srv := httpserver.New(httpserver.WithAddr(ln.Addr().String()))
		err = srv.Run(context.Background(), nil)
		assert.ErrorIs(t, err, httpserver.ErrStart)
	})

	t.Run("second run is refused", func(t *testing.T) {
		t.Parallel()
		srv := httpserver.New(httpserver.WithAddr("127.0.0.1:0"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() { _ = srv.Run(ctx, nil) }()
		waitForAddr(t, srv)

		srv2Err := srv.Run(ctx, nil)
		assert.ErrorIs(t, srv2Err, httpserver.ErrAlreadyRunning)
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	srv := httpserver.NewFromConfig(httpserver.Config{Addr: "127.0.0.1:0"}, httpserver.WithShutdownTimeout(time.Second))
	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background(), nil) }()

	addr := waitForAddr(t, srv)
	resp, err := http.Get("http://" + addr + "/missing")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, <-done)
}

func TestProbes(t *testing.T) {
	t.Parallel()

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		httpserver.Liveness()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ALIVE", rec.Body.String())
	})

	t.Run("ready", func(t *testing.T) {
		t.Parallel()
		h := httpserver.Readiness(nil, time.Second,
			httpserver.Check{Name: "postgres", Probe: func(context.Context) error { return nil }},
			httpserver.Check{Name: "redis", Probe: func(ctx context.Context) error {
				_, ok := ctx.Deadline()
				assert.True(t, ok)
				return nil
			}},
		)
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "READY", rec.Body.String())
	})

	t.Run("not ready", func(t *testing.T) {
		t.Parallel()
		var called atomic.Bool
		h := httpserver.Readiness(nil, 0,
			httpserver.Check{Name: "mongo", Probe: func(context.Context) error { return errors.New("no reachable servers") }},
			httpserver.Check{Name: "redis", Probe: func(context.Context) error { called.Store(true); return nil }},
		)
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "NOT_READY", rec.Body.String())
		assert.False(t, called.Load())
	})
}
