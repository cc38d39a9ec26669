package main

import (
	"github.com/dmitrymomot/magicauth/pkg/auth"
	"github.com/dmitrymomot/magicauth/pkg/config"
	"github.com/dmitrymomot/magicauth/pkg/cookie"
	"github.com/dmitrymomot/magicauth/pkg/email"
	"github.com/dmitrymomot/magicauth/pkg/httpserver"
	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/session"
)

// Backend names for the stores picked at startup.
const (
	backendMemory   = "memory"
	backendPostgres = "postgres"
	backendRedis    = "redis"
	backendMongo    = "mongo"
)

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Service  string `env:"APP_SERVICE" envDefault:"magicauth"`
	LogLevel string `env:"LOG_LEVEL"`

	// TrustProxy enables X-Forwarded-For and X-Request-ID from upstream proxies.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`

	DirectoryStore string `env:"DIRECTORY_STORE" envDefault:"postgres"`
	RateLimitStore string `env:"RATE_LIMIT_STORE" envDefault:"memory"`
	AuditStore     string `env:"AUDIT_STORE" envDefault:"memory"`
	AuditBuffer    int    `env:"AUDIT_ASYNC_BUFFER" envDefault:"256"`

	RolesFile      string `env:"RBAC_ROLES_FILE"`
	EmailCatalog   string `env:"MAGIC_EMAIL_CATALOG"`
	BootstrapAdmin string `env:"MAGIC_BOOTSTRAP_ADMIN"`
}

// settings is every config section the server needs. Store-specific
// sections (pg, redis, mongo) are loaded on first use.
type settings struct {
	App     appConfig
	HTTP    httpserver.Config
	Auth    auth.Config
	Links   loginlink.Config
	Session session.Config
	Cookie  cookie.Config
	Email   email.Config
}

func loadSettings() (settings, error) {
	var s settings
	for _, load := range []func() error{
		func() error { return config.Load(&s.App) },
		func() error { return config.Load(&s.HTTP) },
		func() error { return config.Load(&s.Auth) },
		func() error { return config.Load(&s.Links) },
		func() error { return config.Load(&s.Session) },
		func() error { return config.Load(&s.Cookie) },
		func() error { return config.Load(&s.Email) },
	} {
		if err := load(); err != nil {
			return settings{}, err
		}
	}
	return s, nil
}
