package httpserver

import "time"

type Config struct {
	Addr              string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// NewFromConfig creates a Server from cfg. Zero values keep the defaults and
// opts are applied last.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	all := []Option{func(c *config) {
		if cfg.Addr != "" {
			c.addr = cfg.Addr
		}
		c.readTimeout = positive(cfg.ReadTimeout, c.readTimeout)
		c.readHeaderTimeout = positive(cfg.ReadHeaderTimeout, c.readHeaderTimeout)
		c.writeTimeout = positive(cfg.WriteTimeout, c.writeTimeout)
		c.idleTimeout = positive(cfg.IdleTimeout, c.idleTimeout)
		c.shutdownTimeout = positive(cfg.ShutdownTimeout, c.shutdownTimeout)
	}}
	return New(append(all, opts...)...)
}

func positive(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
