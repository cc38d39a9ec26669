package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/ratelimiter"
	"github.com/dmitrymomot/magicauth/pkg/session"
)

// Authentication methods a user account can be bound to.
const (
	MethodMagic    = "magic"
	MethodPassword = "password"
	MethodOAuth    = "oauth"
)

// CodeLinkSent is the only answer a link request ever gets back.
const CodeLinkSent = "auth.link_sent"

// User is a host account as seen by the magic link flows.
type User struct {
	ID         uuid.UUID
	Email      string
	FirstName  string
	LastName   string
	AuthMethod string
	Role       string // site role, checked with rbac
	Suspended  bool
	Deleted    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FullName joins the first and last name, falling back to the email.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Available reports whether the account may sign in at all.
func (u *User) Available() bool {
	return !u.Suspended && !u.Deleted
}

// UserDirectory reads and writes host accounts.
// Lookups return ErrUserNotFound when there is no such account.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// Create stores a new user and fills in its ID and timestamps.
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Enroller enrols a user into a course. A zero duration means no end date.
type Enroller interface {
	Enroll(ctx context.Context, courseID, userID uuid.UUID, role string, duration time.Duration) error
}

// RoleAssigner records which accounts an actor owns and with what role.
type RoleAssigner interface {
	AssignOwner(ctx context.Context, actorID, userID uuid.UUID, role string) error
	// OwnerRole returns the role actorID holds on userID, if any.
	OwnerRole(ctx context.Context, actorID, userID uuid.UUID) (string, bool, error)
	ChildrenOf(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error)
}

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
	Tag     string
}

// Messenger delivers messages.
type Messenger interface {
	Send(ctx context.Context, msg Message) error
}

// Sessions starts and ends sessions without touching HTTP.
// *session.Manager implements it.
type Sessions interface {
	Start(ctx context.Context, userID uuid.UUID, data map[string]any) (*session.Session, error)
	Terminate(ctx context.Context, s *session.Session) error
	TerminateUser(ctx context.Context, userID uuid.UUID) error
}

// LinkService issues and consumes login links. *loginlink.Service implements it.
type LinkService interface {
	Issue(ctx context.Context, ownerID uuid.UUID, kind loginlink.Kind) (string, loginlink.Link, error)
	Peek(ctx context.Context, secret string) (loginlink.Link, error)
	ValidateAndConsume(ctx context.Context, secret string, kind loginlink.Kind) (uuid.UUID, error)
	RevokeAll(ctx context.Context, ownerID uuid.UUID) error
	List(ctx context.Context, ownerIDs ...uuid.UUID) ([]loginlink.Link, error)
	TTL(kind loginlink.Kind) time.Duration
}

// RateLimiter throttles link requests per key. *ratelimiter.Bucket implements it.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (*ratelimiter.Result, error)
}

// Ack is returned by RequestLoginLink regardless of what happened internally.
type Ack struct {
	Code string `json:"code"`
}

// ProvisionParams describes a quick registration.
type ProvisionParams struct {
	Email     string
	FirstName string
	LastName  string
	CourseID  uuid.UUID      // uuid.Nil skips enrolment
	Role      string         // enrolment role; empty uses the policy default
	Duration  *time.Duration // enrolment duration; nil uses the policy default
}

// ProvisionResult reports what ProvisionAccount did.
type ProvisionResult struct {
	UserID     uuid.UUID `json:"user_id"`
	Created    bool      `json:"created"`
	Enrolled   bool      `json:"enrolled"`
	Dispatched bool      `json:"dispatched"`
}

// Outcome is a successful token consumption.
type Outcome struct {
	UserID               uuid.UUID
	SessionID            uuid.UUID
	Session              *session.Session // nil when AlreadyAuthenticated
	AlreadyAuthenticated bool
	// WantsURL is the return-to path recorded on the session the request
	// arrived with, if any. It is not sanitized.
	WantsURL string
}

// LinkView is a freshly issued link shown to an administrator.
type LinkView struct {
	UserID    uuid.UUID      `json:"user_id"`
	Kind      loginlink.Kind `json:"kind"`
	URL       string         `json:"url"`
	QRCode    string         `json:"qr_code"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// LinkInfo is link metadata for listings. It never carries the secret.
type LinkInfo struct {
	UserID    uuid.UUID      `json:"user_id"`
	Email     string         `json:"email"`
	FullName  string         `json:"full_name"`
	Kind      loginlink.Kind `json:"kind"`
	IssuedAt  time.Time      `json:"issued_at"`
	ExpiresAt time.Time      `json:"expires_at"`
	Expired   bool           `json:"expired"`
}
