package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/magicauth/pkg/audit"
	"github.com/dmitrymomot/magicauth/pkg/logger"
	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/sanitizer"
	"github.com/dmitrymomot/magicauth/pkg/session"
	"github.com/dmitrymomot/magicauth/pkg/validator"
)

// MagicLinkService is the authentication gate and session binder for
// one-time login links.
type MagicLinkService struct {
	users      UserDirectory
	links      LinkService
	dispatcher *Dispatcher
	sessions   Sessions
	policy     Policy
	enroller   Enroller
	roles      RoleAssigner
	guard      *Guard
	limiter    RateLimiter
	audit      *audit.Logger
	logger     *slog.Logger
	now        func() time.Time
}

type MagicLinkOption func(*MagicLinkService)

// WithLogger sets a custom logger for the service
func WithLogger(l *slog.Logger) MagicLinkOption {
	return func(s *MagicLinkService) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithEnroller(e Enroller) MagicLinkOption {
	return func(s *MagicLinkService) {
		s.enroller = e
	}
}

func WithRoleAssigner(r RoleAssigner) MagicLinkOption {
	return func(s *MagicLinkService) {
		s.roles = r
	}
}

// WithGuard decides which owned accounts appear in a children-only
// ListLinks. Without it that listing is empty.
func WithGuard(g *Guard) MagicLinkOption {
	return func(s *MagicLinkService) {
		s.guard = g
	}
}

// WithRateLimiter throttles RequestLoginLink per normalized email.
func WithRateLimiter(l RateLimiter) MagicLinkOption {
	return func(s *MagicLinkService) {
		s.limiter = l
	}
}

func WithAuditLogger(a *audit.Logger) MagicLinkOption {
	return func(s *MagicLinkService) {
		s.audit = a
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) MagicLinkOption {
	return func(s *MagicLinkService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMagicLinkService creates the service. users, links, dispatcher and
// sessions are required.
func NewMagicLinkService(users UserDirectory, links LinkService, dispatcher *Dispatcher, sessions Sessions, policy Policy, opts ...MagicLinkOption) *MagicLinkService {
	if users == nil || links == nil || dispatcher == nil || sessions == nil {
		panic("auth: users, links, dispatcher and sessions are required")
	}

	s := &MagicLinkService{
		users:      users,
		links:      links,
		dispatcher: dispatcher,
		sessions:   sessions,
		policy:     policy,
		logger:     logger.Noop(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Policy returns the policy the service was built with.
func (s *MagicLinkService) Policy() Policy {
	return s.policy
}

// RequestLoginLink handles "email me a sign-in link".
//
// Only a malformed address produces an error. Unknown, suspended, deleted
// and rate-limited accounts get the same Ack as a successful send, so the
// response never reveals whether or how an account exists.
func (s *MagicLinkService) RequestLoginLink(ctx context.Context, email string) (Ack, error) {
	email = sanitizer.NormalizeEmail(email)
	if err := validator.Apply(validator.ValidEmail("email", email)); err != nil {
		return Ack{}, errors.Join(ErrInvalidEmail, err)
	}

	ack := Ack{Code: CodeLinkSent}
	s.record(ctx, audit.ActionLinkRequested, nil, audit.WithMetadata("email", email))

	if s.limiter != nil {
		res, err := s.limiter.Allow(ctx, "magic:"+email)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "rate limiter unavailable, allowing link request",
				logger.Email(email),
				logger.Error(err),
				logger.Component("magic_link"),
			)
		case !res.Allowed():
			s.logger.InfoContext(ctx, "link request rate limited",
				logger.Email(email),
				logger.Component("magic_link"),
			)
			return ack, nil
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.DebugContext(ctx, "link requested for unknown email",
				logger.Email(email),
				logger.Component("magic_link"),
			)
		} else {
			s.logger.ErrorContext(ctx, "failed to look up user for link request",
				logger.Email(email),
				logger.Error(err),
				logger.Component("magic_link"),
			)
		}
		return ack, nil
	}

	if !user.Available() {
		s.logger.InfoContext(ctx, "link requested for unavailable account",
			logger.UserID(user.ID),
			logger.Component("magic_link"),
		)
		return ack, nil
	}

	if !s.policy.Eligible(user) {
		if err := s.dispatcher.NotifyUnsupportedMethod(ctx, user); err != nil {
			s.logger.ErrorContext(ctx, "failed to send unsupported method notice",
				logger.UserID(user.ID),
				logger.Error(err),
				logger.Component("magic_link"),
			)
		}
		return ack, nil
	}

	if _, err := s.issueAndDispatch(ctx, user, loginlink.KindLogin); err != nil {
		s.logger.ErrorContext(ctx, "failed to issue login link",
			logger.UserID(user.ID),
			logger.Error(err),
			logger.Component("magic_link"),
		)
	}
	return ack, nil
}

// ProvisionAccount creates (or reuses, matched by email) a magic account on
// behalf of actorID, optionally enrols it into a course and sends an
// invitation when the account may sign in with links.
func (s *MagicLinkService) ProvisionAccount(ctx context.Context, actorID uuid.UUID, p ProvisionParams) (ProvisionResult, error) {
	email := sanitizer.NormalizeEmail(p.Email)
	firstName := sanitizer.PersonName(p.FirstName)
	lastName := sanitizer.PersonName(p.LastName)

	rules := []validator.Rule{
		validator.ValidEmail("email", email),
		validator.MaxLenString("email", email, 254),
	}
	if p.Duration != nil {
		rules = append(rules, validator.NonNegativeDuration("duration", *p.Duration))
	}
	if err := validator.Apply(rules...); err != nil {
		if validator.ExtractValidationErrors(err).Has("email") {
			return ProvisionResult{}, errors.Join(ErrInvalidEmail, err)
		}
		return ProvisionResult{}, err
	}

	var result ProvisionResult
	user, err := s.users.FindByEmail(ctx, email)
	if err == nil && user.Deleted {
		// The email of a deleted account is free for a new one.
		err = ErrUserNotFound
	}
	switch {
	case errors.Is(err, ErrUserNotFound):
		user = &User{
			Email:      email,
			FirstName:  firstName,
			LastName:   lastName,
			AuthMethod: MethodMagic,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return ProvisionResult{}, fmt.Errorf("create user: %w", err)
		}
		result.Created = true
	case err != nil:
		return ProvisionResult{}, fmt.Errorf("find user: %w", err)
	}
	result.UserID = user.ID

	if p.CourseID != uuid.Nil {
		if s.enroller == nil {
			s.logger.WarnContext(ctx, "course enrolment requested but no enroller is configured",
				logger.UserID(user.ID),
				logger.Component("magic_link"),
			)
		} else {
			role := p.Role
			if role == "" {
				role = s.policy.EnrolmentRole
			}
			duration := s.policy.EnrolmentDuration
			if p.Duration != nil {
				duration = *p.Duration
			}
			if err := s.enroller.Enroll(ctx, p.CourseID, user.ID, role, duration); err != nil {
				return result, fmt.Errorf("enrol user: %w", err)
			}
			result.Enrolled = true
		}
	}

	if result.Created {
		s.assignOwner(ctx, actorID, user.ID)
	}

	s.record(ctx, audit.ActionAccountProvisioned, nil,
		audit.WithUser(user.ID),
		audit.WithActor(actorID),
		audit.WithMetadata("created", result.Created),
		audit.WithMetadata("enrolled", result.Enrolled),
	)

	if !s.policy.Eligible(user) || !user.Available() {
		s.logger.InfoContext(ctx, "provisioned account does not qualify for an invitation",
			logger.UserID(user.ID),
			logger.ActorID(actorID),
			logger.Component("magic_link"),
		)
		return result, nil
	}

	if _, err := s.issueAndDispatch(ctx, user, loginlink.KindInvitation); err != nil {
		return result, err
	}
	result.Dispatched = true
	return result, nil
}

// ConsumeToken validates secret as a link of kind and binds the owner to a
// session. current is the session the request arrived with, or nil.
//
// The link kind is checked before consuming, so a login secret opened on
// the invitation URL stays usable. Any rejection signs out an
// authenticated current session.
func (s *MagicLinkService) ConsumeToken(ctx context.Context, secret string, kind loginlink.Kind, current *session.Session) (Outcome, error) {
	var wants string
	if current != nil {
		wants = current.WantsURL()
	}

	link, err := s.links.Peek(ctx, secret)
	if err != nil {
		return s.reject(ctx, current, kind, uuid.Nil, linkError(err))
	}
	if link.Kind != kind {
		return s.reject(ctx, current, kind, link.OwnerID, ErrWrongLinkType)
	}

	ownerID, err := s.links.ValidateAndConsume(ctx, secret, kind)
	if err != nil {
		if errors.Is(err, loginlink.ErrExpired) {
			s.resendExpired(ctx, ownerID, kind)
		}
		return s.reject(ctx, current, kind, ownerID, linkError(err))
	}

	user, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return s.reject(ctx, current, kind, ownerID, errors.Join(ErrAccountUnavailable, err))
		}
		return s.reject(ctx, current, kind, ownerID, fmt.Errorf("find link owner: %w", err))
	}
	if !user.Available() {
		return s.reject(ctx, current, kind, ownerID, ErrAccountUnavailable)
	}
	if !s.policy.Eligible(user) {
		return s.reject(ctx, current, kind, ownerID, ErrPolicyDenied)
	}

	if current != nil {
		if current.BelongsTo(user.ID) {
			s.record(ctx, audit.ActionLinkConsumed, nil,
				audit.WithUser(user.ID),
				audit.WithMetadata("kind", string(kind)),
				audit.WithMetadata("already_authenticated", true),
			)
			return Outcome{
				UserID:               user.ID,
				SessionID:            current.ID,
				AlreadyAuthenticated: true,
				WantsURL:             wants,
			}, nil
		}
		// Another user's session, or an anonymous one that must not be
		// carried over into the authenticated state.
		s.terminate(ctx, current)
	}

	sess, err := s.sessions.Start(ctx, user.ID, map[string]any{session.KeyTokenAuth: true})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to start session after link sign-in",
			logger.UserID(user.ID),
			logger.Error(err),
			logger.Component("magic_link"),
		)
		return Outcome{}, fmt.Errorf("start session: %w", err)
	}

	s.record(ctx, audit.ActionLinkConsumed, nil,
		audit.WithUser(user.ID),
		audit.WithMetadata("kind", string(kind)),
	)
	s.logger.InfoContext(ctx, "user signed in with magic link",
		logger.UserID(user.ID),
		logger.LinkKind(kind),
		logger.Component("magic_link"),
	)

	return Outcome{
		UserID:    user.ID,
		SessionID: sess.ID,
		Session:   sess,
		WantsURL:  wants,
	}, nil
}

// Resend issues a fresh link of kind for ownerID and emails it.
func (s *MagicLinkService) Resend(ctx context.Context, ownerID uuid.UUID, kind loginlink.Kind) error {
	if !kind.Valid() {
		return loginlink.ErrInvalidKind
	}
	user, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return err
	}
	if !user.Available() {
		return ErrAccountUnavailable
	}
	if !s.policy.Eligible(user) {
		return ErrPolicyDenied
	}
	_, err = s.issueAndDispatch(ctx, user, kind)
	return err
}

// SendInvitation re-issues and emails the invitation link.
func (s *MagicLinkService) SendInvitation(ctx context.Context, ownerID uuid.UUID) error {
	return s.Resend(ctx, ownerID, loginlink.KindInvitation)
}

// RevokeAll invalidates every outstanding link of ownerID.
func (s *MagicLinkService) RevokeAll(ctx context.Context, ownerID uuid.UUID) error {
	return s.links.RevokeAll(ctx, ownerID)
}

func (s *MagicLinkService) issueAndDispatch(ctx context.Context, user *User, kind loginlink.Kind) (loginlink.Link, error) {
	secret, link, err := s.links.Issue(ctx, user.ID, kind)
	if err != nil {
		return loginlink.Link{}, fmt.Errorf("issue %s link: %w", kind, err)
	}
	s.record(ctx, audit.ActionLinkIssued, nil,
		audit.WithUser(user.ID),
		audit.WithMetadata("kind", string(kind)),
	)

	if err := s.dispatcher.Dispatch(ctx, user, kind, secret); err != nil {
		return link, err
	}
	return link, nil
}

// resendExpired replaces an expired link when the policy allows it. Failures
// are only logged: the caller already reports the link as expired.
func (s *MagicLinkService) resendExpired(ctx context.Context, ownerID uuid.UUID, kind loginlink.Kind) {
	if !s.policy.ResendOnExpired || ownerID == uuid.Nil {
		return
	}
	user, err := s.users.FindByID(ctx, ownerID)
	if err != nil || !user.Available() || !s.policy.Eligible(user) {
		return
	}
	if _, err := s.issueAndDispatch(ctx, user, kind); err != nil {
		s.logger.ErrorContext(ctx, "failed to resend expired link",
			logger.UserID(ownerID),
			logger.LinkKind(kind),
			logger.Error(err),
			logger.Component("magic_link"),
		)
	}
}

func (s *MagicLinkService) reject(ctx context.Context, current *session.Session, kind loginlink.Kind, ownerID uuid.UUID, err error) (Outcome, error) {
	if current != nil && current.IsAuthenticated() {
		s.terminate(ctx, current)
	}

	s.record(ctx, audit.ActionLinkRejected, err,
		audit.WithUser(ownerID),
		audit.WithMetadata("kind", string(kind)),
		audit.WithMetadata("reason", PublicError(err)),
	)
	s.logger.InfoContext(ctx, "magic link rejected",
		logger.UserID(ownerID),
		logger.LinkKind(kind),
		logger.Error(err),
		logger.Component("magic_link"),
	)
	return Outcome{}, err
}

func (s *MagicLinkService) terminate(ctx context.Context, sess *session.Session) {
	if err := s.sessions.Terminate(ctx, sess); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		s.logger.WarnContext(ctx, "failed to terminate session",
			logger.UserID(sess.UserID),
			logger.Error(err),
			logger.Component("magic_link"),
		)
	}
}

func (s *MagicLinkService) assignOwner(ctx context.Context, actorID, userID uuid.UUID) {
	if s.roles == nil || s.policy.OwnerAccountRole == "" || actorID == uuid.Nil || actorID == userID {
		return
	}
	if err := s.roles.AssignOwner(ctx, actorID, userID, s.policy.OwnerAccountRole); err != nil {
		s.logger.ErrorContext(ctx, "failed to assign owner role",
			logger.UserID(userID),
			logger.ActorID(actorID),
			logger.Role(s.policy.OwnerAccountRole),
			logger.Error(err),
			logger.Component("magic_link"),
		)
	}
}

// record writes an audit event; audit failures never fail the operation.
func (s *MagicLinkService) record(ctx context.Context, action string, cause error, opts ...audit.EventOption) {
	var err error
	if cause != nil {
		err = s.audit.LogError(ctx, action, cause, opts...)
	} else {
		err = s.audit.Log(ctx, action, opts...)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to write audit event",
			logger.Event(action),
			logger.Error(err),
			logger.Component("magic_link"),
		)
	}
}

// linkError maps login link store errors to the errors of this package,
// keeping the original in the chain.
func linkError(err error) error {
	switch {
	case errors.Is(err, loginlink.ErrWrongKind), errors.Is(err, loginlink.ErrInvalidKind):
		return errors.Join(ErrWrongLinkType, err)
	case errors.Is(err, loginlink.ErrExpired):
		return errors.Join(ErrExpired, err)
	case errors.Is(err, loginlink.ErrNotFound):
		return errors.Join(ErrNotFound, err)
	default:
		return err
	}
}
