package requestid

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// Header is the default header carrying the request ID.
const Header = "X-Request-ID"

const maxIDLength = 128

var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type config struct {
	header        string
	trustIncoming bool
	generate      func() string
}

type Option func(*config)

// WithHeader reads and writes the ID under name instead of X-Request-ID.
func WithHeader(name string) Option {
	return func(c *config) {
		if name != "" {
			c.header = http.CanonicalHeaderKey(name)
		}
	}
}

// WithTrustIncoming controls whether an ID sent by the client is reused.
// Enable it only behind a proxy that sets or strips the header.
func WithTrustIncoming(trust bool) Option {
	return func(c *config) {
		c.trustIncoming = trust
	}
}

// WithGenerator replaces the UUIDv4 generator.
func WithGenerator(fn func() string) Option {
	return func(c *config) {
		if fn != nil {
			c.generate = fn
		}
	}
}

// New returns the request ID middleware.
func New(opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		header:        Header,
		trustIncoming: true,
		generate:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if cfg.trustIncoming {
				id = r.Header.Get(cfg.header)
			}
			if !isValid(id) {
				id = cfg.generate()
			}
			w.Header().Set(cfg.header, id)
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
		})
	}
}

// Middleware is New with default options.
func Middleware(next http.Handler) http.Handler {
	return New()(next)
}

func isValid(id string) bool {
	return id != "" && len(id) <= maxIDLength && validID.MatchString(id)
}
