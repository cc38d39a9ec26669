package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrymomot/magicauth/pkg/logger"
)

type worker struct {
	name string
	run  func(ctx context.Context)
}

type config struct {
	addr              string
	readTimeout       time.Duration
	readHeaderTimeout time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	shutdownTimeout   time.Duration
	logger            *slog.Logger
	workers           []worker
	stopHooks         []func(ctx context.Context)
}

// Server wraps http.Server with background workers and graceful shutdown.
type Server struct {
	cfg      config
	mu       sync.Mutex
	srv      *http.Server
	addr     net.Addr
	stop     context.CancelFunc
	finished chan struct{}
}

func New(opts ...Option) *Server {
	cfg := config{
		addr:              ":8080",
		readTimeout:       15 * time.Second,
		readHeaderTimeout: 5 * time.Second,
		writeTimeout:      30 * time.Second,
		idleTimeout:       120 * time.Second,
		shutdownTimeout:   10 * time.Second,
		logger:            logger.Noop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{cfg: cfg}
}

// Addr returns the bound listen address once Run has started listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run listens, starts the workers and blocks until the server stops.
// A clean shutdown returns nil.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	ln, err := net.Listen("tcp", s.cfg.addr)
	if err != nil {
		return errors.Join(ErrStart, err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       s.cfg.readTimeout,
		ReadHeaderTimeout: s.cfg.readHeaderTimeout,
		WriteTimeout:      s.cfg.writeTimeout,
		IdleTimeout:       s.cfg.idleTimeout,
		ErrorLog:          slog.NewLogLogger(s.cfg.logger.Handler(), slog.LevelWarn),
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		_ = ln.Close()
		return errors.Join(ErrStart, ErrAlreadyRunning)
	}
	s.srv = srv
	s.addr = ln.Addr()
	s.stop = stop
	s.finished = make(chan struct{})
	s.mu.Unlock()
	defer close(s.finished)

	workerCtx, cancelWorkers := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup
	for _, w := range s.cfg.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(workerCtx)
			s.cfg.logger.Debug("worker stopped", logger.Component(w.name))
		}()
	}

	s.cfg.logger.Info("http server started",
		slog.String("addr", ln.Addr().String()),
		slog.Int("workers", len(s.cfg.workers)),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	var runErr error
	select {
	case <-ctx.Done():
		runErr = s.shutdown(srv)
		if serveErr := <-errCh; !errors.Is(serveErr, http.ErrServerClosed) {
			runErr = errors.Join(runErr, serveErr)
		}
	case serveErr := <-errCh:
		runErr = errors.Join(ErrStart, serveErr)
	}

	cancelWorkers()
	wg.Wait()

	hookCtx, cancel := context.WithTimeout(context.Background(), s.cfg.shutdownTimeout)
	defer cancel()
	for _, h := range s.cfg.stopHooks {
		h(hookCtx)
	}

	s.cfg.logger.Info("http server stopped")
	return runErr
}

func (s *Server) shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return errors.Join(ErrShutdown, err)
	}
	return nil
}

// Shutdown asks a running server to stop and waits for Run to return or for
// ctx to expire. It is safe to call more than once and before Run.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	stop, finished := s.stop, s.finished
	s.mu.Unlock()
	if stop == nil {
		return nil
	}

	stop()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return errors.Join(ErrShutdown, ctx.Err())
	}
}
