package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/ratelimiter"
)

// Values accepted by Config.AuthMethod.
const (
	AuthMethodMagicOnly = "magic"
	AuthMethodAny       = "any"
)

var ErrInvalidConfig = errors.New("invalid magic auth configuration")

// Config holds the magic link settings read from the environment.
type Config struct {
	AuthMethod        string        `env:"MAGIC_AUTH_METHOD" envDefault:"magic"`
	OwnerRole         string        `env:"MAGIC_OWNER_ROLE" envDefault:"owner"`
	EnrolmentDuration time.Duration `env:"MAGIC_ENROLMENT_DURATION" envDefault:"0s"`
	EnrolmentRole     string        `env:"MAGIC_ENROLMENT_ROLE" envDefault:"student"`
	ResendOnExpired   bool          `env:"MAGIC_RESEND_ON_EXPIRED" envDefault:"true"`

	BaseURL          string `env:"MAGIC_BASE_URL,required"`
	SiteName         string `env:"MAGIC_SITE_NAME" envDefault:"magicauth"`
	PasswordResetURL string `env:"MAGIC_PASSWORD_RESET_URL"` // defaults to <base>/login/forgot_password
	NoticePath       string `env:"MAGIC_NOTICE_PATH" envDefault:"/"`

	RateLimitCapacity int           `env:"MAGIC_RATE_LIMIT_CAPACITY" envDefault:"5"`
	RateLimitRefill   int           `env:"MAGIC_RATE_LIMIT_REFILL" envDefault:"1"`
	RateLimitInterval time.Duration `env:"MAGIC_RATE_LIMIT_INTERVAL" envDefault:"10m"`
}

// RateLimit returns the per-email token bucket for link requests.
func (c Config) RateLimit() ratelimiter.Config {
	return ratelimiter.Config{
		Capacity:       c.RateLimitCapacity,
		RefillRate:     c.RateLimitRefill,
		RefillInterval: c.RateLimitInterval,
	}
}

// ResetURL returns the password reset page used in the unsupported-method notice.
func (c Config) ResetURL() string {
	if c.PasswordResetURL != "" {
		return c.PasswordResetURL
	}
	u, err := url.JoinPath(c.BaseURL, "login", "forgot_password")
	if err != nil {
		return c.BaseURL
	}
	return u
}

// Policy is the set of rules the gate, binder and dispatcher apply.
// It is built once at startup and passed explicitly.
type Policy struct {
	LoginTTL          time.Duration
	InvitationTTL     time.Duration
	AllowAnyMethod    bool
	OwnerAccountRole  string
	EnrolmentDuration time.Duration // zero means unlimited
	EnrolmentRole     string
	ResendOnExpired   bool
}

// DefaultPolicy matches the defaults of Config and loginlink.Config.
func DefaultPolicy() Policy {
	return Policy{
		LoginTTL:         loginlink.DefaultLoginTTL,
		InvitationTTL:    loginlink.DefaultInvitationTTL,
		OwnerAccountRole: "owner",
		EnrolmentRole:    "student",
		ResendOnExpired:  true,
	}
}

// PolicyFromConfig builds the policy. Link lifetimes come from the login link settings.
func PolicyFromConfig(cfg Config, links loginlink.Config) (Policy, error) {
	var anyMethod bool
	switch strings.ToLower(strings.TrimSpace(cfg.AuthMethod)) {
	case AuthMethodMagicOnly:
	case AuthMethodAny:
		anyMethod = true
	default:
		return Policy{}, fmt.Errorf("%w: MAGIC_AUTH_METHOD must be %q or %q, got %q",
			ErrInvalidConfig, AuthMethodMagicOnly, AuthMethodAny, cfg.AuthMethod)
	}
	if cfg.EnrolmentDuration < 0 {
		return Policy{}, fmt.Errorf("%w: MAGIC_ENROLMENT_DURATION must not be negative", ErrInvalidConfig)
	}
	if links.LoginTTL <= 0 || links.InvitationTTL <= 0 {
		return Policy{}, fmt.Errorf("%w: link lifetimes must be positive", ErrInvalidConfig)
	}

	return Policy{
		LoginTTL:          links.LoginTTL,
		InvitationTTL:     links.InvitationTTL,
		AllowAnyMethod:    anyMethod,
		OwnerAccountRole:  cfg.OwnerRole,
		EnrolmentDuration: cfg.EnrolmentDuration,
		EnrolmentRole:     cfg.EnrolmentRole,
		ResendOnExpired:   cfg.ResendOnExpired,
	}, nil
}

// Eligible reports whether the account's method allows link sign-in.
func (p Policy) Eligible(u *User) bool {
	return u.AuthMethod == MethodMagic || p.AllowAnyMethod
}

// TTL returns the lifetime of links of the given kind.
func (p Policy) TTL(kind loginlink.Kind) time.Duration {
	if kind == loginlink.KindInvitation {
		return p.InvitationTTL
	}
	return p.LoginTTL
}
