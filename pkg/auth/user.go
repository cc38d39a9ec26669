package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/magicauth/pkg/audit"
	"github.com/dmitrymomot/magicauth/pkg/logger"
	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/qrcode"
)

// SuspendUser blocks the account, revokes its links and ends its sessions.
func (s *MagicLinkService) SuspendUser(ctx context.Context, actorID, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Deleted {
		return ErrAccountUnavailable
	}

	if !user.Suspended {
		user.Suspended = true
		if err := s.users.Update(ctx, user); err != nil {
			return fmt.Errorf("suspend user: %w", err)
		}
	}
	if err := s.links.RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("revoke links: %w", err)
	}
	if err := s.sessions.TerminateUser(ctx, userID); err != nil {
		return fmt.Errorf("terminate sessions: %w", err)
	}

	s.record(ctx, audit.ActionAccountSuspended, nil, audit.WithUser(userID), audit.WithActor(actorID))
	s.logger.InfoContext(ctx, "user suspended",
		logger.UserID(userID),
		logger.ActorID(actorID),
		logger.Component("magic_link"),
	)
	return nil
}

// UnsuspendUser lifts a suspension. No link is issued.
func (s *MagicLinkService) UnsuspendUser(ctx context.Context, actorID, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Deleted {
		return ErrAccountUnavailable
	}
	if !user.Suspended {
		return nil
	}

	user.Suspended = false
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("unsuspend user: %w", err)
	}

	s.record(ctx, audit.ActionAccountUnsuspended, nil, audit.WithUser(userID), audit.WithActor(actorID))
	return nil
}

// DeleteUser deletes the account, then its links and sessions.
func (s *MagicLinkService) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.links.RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("revoke links: %w", err)
	}
	if err := s.sessions.TerminateUser(ctx, userID); err != nil {
		return fmt.Errorf("terminate sessions: %w", err)
	}

	s.record(ctx, audit.ActionAccountDeleted, nil, audit.WithUser(userID), audit.WithActor(actorID))
	s.logger.InfoContext(ctx, "user deleted",
		logger.UserID(userID),
		logger.ActorID(actorID),
		logger.Component("magic_link"),
	)
	return nil
}

// UserUpdated reacts to a host-side account change. For magic accounts it
// makes actorID an owner and issues fresh links of both kinds without
// sending them; administrators hand them out with CopyLink or Resend.
func (s *MagicLinkService) UserUpdated(ctx context.Context, actorID, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.AuthMethod != MethodMagic || !user.Available() {
		return nil
	}

	s.assignOwner(ctx, actorID, userID)

	for _, kind := range []loginlink.Kind{loginlink.KindInvitation, loginlink.KindLogin} {
		if _, _, err := s.links.Issue(ctx, userID, kind); err != nil {
			return fmt.Errorf("issue %s link: %w", kind, err)
		}
		s.record(ctx, audit.ActionLinkIssued, nil,
			audit.WithUser(userID),
			audit.WithActor(actorID),
			audit.WithMetadata("kind", string(kind)),
			audit.WithMetadata("dispatched", false),
		)
	}
	return nil
}

// CopyLink issues a new link and returns it for an administrator to hand
// over. Only digests are stored, so the previous link cannot be shown; it
// stops working instead.
func (s *MagicLinkService) CopyLink(ctx context.Context, actorID, ownerID uuid.UUID, kind loginlink.Kind) (LinkView, error) {
	if !kind.Valid() {
		return LinkView{}, loginlink.ErrInvalidKind
	}
	user, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return LinkView{}, err
	}
	if !user.Available() {
		return LinkView{}, ErrAccountUnavailable
	}

	secret, link, err := s.links.Issue(ctx, ownerID, kind)
	if err != nil {
		return LinkView{}, fmt.Errorf("issue %s link: %w", kind, err)
	}
	s.record(ctx, audit.ActionLinkIssued, nil,
		audit.WithUser(ownerID),
		audit.WithActor(actorID),
		audit.WithMetadata("kind", string(kind)),
		audit.WithMetadata("copied", true),
	)

	url := s.dispatcher.LinkURL(kind, secret)
	qr, err := qrcode.DataURI(url)
	if err != nil {
		// The link itself is fine; the QR code is a convenience.
		s.logger.WarnContext(ctx, "failed to render link QR code",
			logger.UserID(ownerID),
			logger.Error(err),
			logger.Component("magic_link"),
		)
	}

	return LinkView{
		UserID:    ownerID,
		Kind:      kind,
		URL:       url,
		QRCode:    qr,
		ExpiresAt: link.ExpiresAt,
	}, nil
}

// ListLinks returns link metadata. With canViewAll every link is listed;
// otherwise only links of accounts viewerID owns with a role that grants
// the child view permission.
func (s *MagicLinkService) ListLinks(ctx context.Context, viewerID uuid.UUID, canViewAll bool) ([]LinkInfo, error) {
	var (
		links []loginlink.Link
		err   error
	)
	if canViewAll {
		links, err = s.links.List(ctx)
	} else {
		if s.roles == nil || s.guard == nil {
			return []LinkInfo{}, nil
		}
		children, cerr := s.roles.ChildrenOf(ctx, viewerID)
		if cerr != nil {
			return nil, fmt.Errorf("list owned accounts: %w", cerr)
		}
		if children, cerr = s.guard.VisibleChildren(ctx, viewerID, children); cerr != nil {
			return nil, fmt.Errorf("filter owned accounts: %w", cerr)
		}
		if len(children) == 0 {
			return []LinkInfo{}, nil
		}
		links, err = s.links.List(ctx, children...)
	}
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	now := s.now()
	owners := make(map[uuid.UUID]*User)
	infos := make([]LinkInfo, 0, len(links))
	for _, l := range links {
		owner, ok := owners[l.OwnerID]
		if !ok {
			owner, err = s.users.FindByID(ctx, l.OwnerID)
			switch {
			case errors.Is(err, ErrUserNotFound):
				owner = nil
			case err != nil:
				return nil, fmt.Errorf("find link owner: %w", err)
			}
			owners[l.OwnerID] = owner
		}
		if owner == nil {
			continue
		}
		infos = append(infos, LinkInfo{
			UserID:    l.OwnerID,
			Email:     owner.Email,
			FullName:  owner.FullName(),
			Kind:      l.Kind,
			IssuedAt:  l.IssuedAt,
			ExpiresAt: l.ExpiresAt,
			Expired:   l.ExpiredAt(now),
		})
	}

	s.record(ctx, audit.ActionLinksViewed, nil,
		audit.WithActor(viewerID),
		audit.WithMetadata("all", canViewAll),
		audit.WithMetadata("count", len(infos)),
	)
	return infos, nil
}
