package loginlink

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/magicauth/pkg/logger"
)

const (
	DefaultLoginTTL      = 4 * time.Hour
	DefaultInvitationTTL = 7 * 24 * time.Hour
)

// Service issues and consumes links over a Store.
type Service struct {
	store  Store
	hasher *Hasher
	ttl    map[Kind]time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures Service.
type Option func(*Service)

// WithTTL sets the lifetime of links of the given kind. Non-positive values are ignored.
func WithTTL(kind Kind, ttl time.Duration) Option {
	return func(s *Service) {
		if kind.Valid() && ttl > 0 {
			s.ttl[kind] = ttl
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a Service. Both store and hasher are required.
func NewService(store Store, hasher *Hasher, opts ...Option) *Service {
	if store == nil || hasher == nil {
		panic("loginlink: store and hasher are required")
	}

	s := &Service{
		store:  store,
		hasher: hasher,
		ttl: map[Kind]time.Duration{
			KindLogin:      DefaultLoginTTL,
			KindInvitation: DefaultInvitationTTL,
		},
		now:    time.Now,
		logger: logger.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured lifetime for kind.
func (s *Service) TTL(kind Kind) time.Duration {
	return s.ttl[kind]
}

// Issue creates a new link for (ownerID, kind) and returns its secret.
// Any previous link of the same kind for the owner stops working.
func (s *Service) Issue(ctx context.Context, ownerID uuid.UUID, kind Kind) (string, Link, error) {
	if !kind.Valid() {
		return "", Link{}, ErrInvalidKind
	}

	secret, err := GenerateSecret()
	if err != nil {
		return "", Link{}, err
	}

	now := s.now()
	link := Link{
		OwnerID:   ownerID,
		Kind:      kind,
		Digest:    s.hasher.Digest(secret),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl[kind]),
	}

	if err := s.store.Save(ctx, link); err != nil {
		s.logger.ErrorContext(ctx, "failed to save login link",
			logger.UserID(ownerID),
			logger.LinkKind(kind),
			logger.Error(err),
			logger.Component("loginlink"),
		)
		return "", Link{}, err
	}

	return secret, link, nil
}

// Peek returns the link for secret without consuming it.
// It reports ErrNotFound for malformed or unknown secrets and does not check expiry.
func (s *Service) Peek(ctx context.Context, secret string) (Link, error) {
	if !WellFormed(secret) {
		return Link{}, ErrNotFound
	}
	return s.store.Find(ctx, s.hasher.Digest(secret))
}

// ValidateAndConsume consumes the link for secret and returns its owner.
//
// The link must be of the expected kind; otherwise ErrWrongKind is returned
// and the link stays usable. An expired link is deleted and ErrExpired is
// returned together with the owner ID, so the caller can issue a replacement.
// Unknown, consumed and superseded secrets yield ErrNotFound.
func (s *Service) ValidateAndConsume(ctx context.Context, secret string, kind Kind) (uuid.UUID, error) {
	if !kind.Valid() {
		return uuid.Nil, ErrInvalidKind
	}

	peeked, err := s.Peek(ctx, secret)
	if err != nil {
		return uuid.Nil, err
	}
	if peeked.Kind != kind {
		return uuid.Nil, ErrWrongKind
	}

	link, err := s.store.Take(ctx, peeked.Digest)
	if err != nil {
		// Lost the race to a concurrent consumer or a re-issue.
		return uuid.Nil, err
	}

	if link.Kind != kind {
		// The record was taken, so it cannot be restored; report it as gone.
		s.logger.WarnContext(ctx, "login link kind changed between peek and take",
			logger.UserID(link.OwnerID),
			logger.LinkKind(link.Kind),
			logger.Component("loginlink"),
		)
		return uuid.Nil, errors.Join(ErrNotFound, ErrWrongKind)
	}

	if link.ExpiredAt(s.now()) {
		return link.OwnerID, ErrExpired
	}

	return link.OwnerID, nil
}

// RevokeAll deletes every link of the owner.
func (s *Service) RevokeAll(ctx context.Context, ownerID uuid.UUID) error {
	if err := s.store.DeleteByOwner(ctx, ownerID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke login links",
			logger.UserID(ownerID),
			logger.Error(err),
			logger.Component("loginlink"),
		)
		return err
	}
	return nil
}

// List returns link metadata for the given owners, or for everyone if none are given.
func (s *Service) List(ctx context.Context, ownerIDs ...uuid.UUID) ([]Link, error) {
	return s.store.List(ctx, ownerIDs...)
}

// Cleanup removes expired links. Expiry is enforced at validation time, so
// this only reclaims space.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.now())
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Cleanup(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "login link cleanup failed",
					logger.Error(err),
					logger.Component("loginlink"),
				)
				continue
			}
			if n > 0 {
				s.logger.DebugContext(ctx, "expired login links removed",
					slog.Int64("count", n),
					logger.Component("loginlink"),
				)
			}
		}
	}
}
