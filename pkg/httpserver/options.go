package httpserver

import (
	"context"
	"log/slog"
	"time"
)

// Option configures the HTTP server.
type Option func(*config)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("WithAddr: addr cannot be empty")
	}
	return func(c *config) { c.addr = addr }
}

func WithReadTimeout(d time.Duration) Option {
	return func(c *config) { c.readTimeout = positive(d, c.readTimeout) }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(c *config) { c.writeTimeout = positive(d, c.writeTimeout) }
}

// WithShutdownTimeout bounds how long in-flight requests get to finish.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *config) { c.shutdownTimeout = positive(d, c.shutdownTimeout) }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithWorker runs fn in its own goroutine for the lifetime of the server.
// fn must return once its context is cancelled.
func WithWorker(name string, fn func(ctx context.Context)) Option {
	if fn == nil {
		panic("WithWorker: nil worker")
	}
	return func(c *config) {
		c.workers = append(c.workers, worker{name: name, run: fn})
	}
}

// WithStopHook registers a callback that runs after the listener closed and
// the workers returned, for example to close stores and flush audit events.
func WithStopHook(h func(ctx context.Context)) Option {
	if h == nil {
		panic("WithStopHook: nil hook")
	}
	return func(c *config) { c.stopHooks = append(c.stopHooks, h) }
}
