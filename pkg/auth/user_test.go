package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/rbac"
)

func TestSuspendUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	actorID := uuid.New()

	t.Run("suspends, revokes and signs out", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, harnessConfig{})
		user := magicUser("ann@example.com")
		h.issue(t, user.ID, loginlink.KindLogin)
		h.issue(t, user.ID, loginlink.KindInvitation)

		h.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		h.users.On("Update", mock.Anything, mock.MatchedBy(func(u *User) bool {
			return u.ID == user.ID && u.Suspended
		})).Return(nil).Once()
		h.sessions.On("TerminateUser", mock.Anything, user.ID).Return(nil).Once()

		require.NoError(t, h.svc.SuspendUser(ctx, actorID, user.ID))
		assert.Zero(t, h.linkCount(t))
		h.users.AssertExpectations(t)
		h.sessions.AssertExpectations(t)
	})

	t.Run("unsuspend issues no link", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, harnessConfig{})
		user := magicUser("ann@example.com")
		user.Suspended = true

		h.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		h.users.On("Update", mock.Anything, mock.MatchedBy(func(u *User) bool {
			return !u.Suspended
		})).Return(nil).Once()

		require.NoError(t, h.svc.UnsuspendUser(ctx, actorID, user.ID))
		assert.Zero(t, h.linkCount(t))
		assert.Empty(t, h.messages())
		h.users.AssertExpectations(t)
	})

	t.Run("deleted account cannot be suspended", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, harnessConfig{})
		user := magicUser("ann@example.com")
		user.Deleted = true
		h.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		assert.ErrorIs(t, h.svc.SuspendUser(ctx, actorID, user.ID), ErrAccountUnavailable)
		assert.ErrorIs(t, h.svc.UnsuspendUser(ctx, actorID, user.ID), ErrAccountUnavailable)
	})

	t.Run("delete removes links and sessions", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, harnessConfig{})
		userID := uuid.New()
		h.issue(t, userID, loginlink.KindLogin)

		h.users.On("Delete", mock.Anything, userID).Return(nil).Once()
		h.sessions.On("TerminateUser", mock.Anything, userID).Return(nil).Once()

		require.NoError(t, h.svc.DeleteUser(ctx, actorID, userID))
		assert.Zero(t, h.linkCount(t))
		h.sessions.AssertExpectations(t)
	})

	t.Run("delete of unknown user", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, harnessConfig{})
		userID := uuid.New()
		h.users.On("Delete", mock.Anything, userID).Return(ErrUserNotFound)

		assert.ErrorIs(t, h.svc.DeleteUser(ctx, actorID, userID), ErrUserNotFound)
		h.sessions.AssertNotCalled(t, "TerminateUser", mock.Anything, mock.Anything)
	})
}

func TestUserUpdated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	actorID := uuid.New()

	t.Run("magic account gets owner and both links", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, harnessConfig{})
		user := magicUser("ann@example.com")
		h.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		h.roles.On("AssignOwner", mock.Anything, actorID, user.ID, "owner").Return(nil).Once()

		require.NoError(t, h.svc.UserUpdated(ctx, actorID, user.ID))

		links, err := h.links.List(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, links, 2)
		assert.Empty(t, h.messages())
		h.roles.AssertExpectations(t)
	})

	t.Run("other accounts are left alone", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, harnessConfig{})
		password := magicUser("p@example.com")
		password.AuthMethod = MethodPassword
		suspended := magicUser("s@example.com")
		suspended.Suspended = true
		h.users.On("FindByID", mock.Anything, password.ID).Return(password, nil)
		h.users.On("FindByID", mock.Anything, suspended.ID).Return(suspended, nil)

		require.NoError(t, h.svc.UserUpdated(ctx, actorID, password.ID))
		require.NoError(t, h.svc.UserUpdated(ctx, actorID, suspended.ID))
		assert.Zero(t, h.linkCount(t))
		h.roles.AssertNotCalled(t, "AssignOwner", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("self update assigns no owner", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, harnessConfig{})
		user := magicUser("ann@example.com")
		h.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		require.NoError(t, h.svc.UserUpdated(ctx, user.ID, user.ID))
		h.roles.AssertNotCalled(t, "AssignOwner", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCopyLink(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	actorID := uuid.New()

	t.Run("returns fresh link with qr code", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, harnessConfig{})
		user := magicUser("ann@example.com")
		old := h.issue(t, user.ID, loginlink.KindInvitation)
		h.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		view, err := h.svc.CopyLink(ctx, actorID, user.ID, loginlink.KindInvitation)
		require.NoError(t, err)
		assert.Equal(t, user.ID, view.UserID)
		assert.Equal(t, loginlink.KindInvitation, view.Kind)
		assert.True(t, strings.HasPrefix(view.URL, testBaseURL+"/invitation?key="))
		assert.True(t, strings.HasPrefix(view.QRCode, "data:image/png;base64,"))
		assert.Equal(t, h.clock.Now().Add(DefaultPolicy().InvitationTTL), view.ExpiresAt)
		assert.Empty(t, h.messages())

		_, err = h.links.ValidateAndConsume(ctx, old, loginlink.KindInvitation)
		assert.ErrorIs(t, err, loginlink.ErrNotFound)

		secret := strings.TrimPrefix(view.URL, testBaseURL+"/invitation?key=")
		owner, err := h.links.ValidateAndConsume(ctx, secret, loginlink.KindInvitation)
		require.NoError(t, err)
		assert.Equal(t, user.ID, owner)
	})

	t.Run("refuses unavailable accounts and bad kinds", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, harnessConfig{})
		user := magicUser("ann@example.com")
		user.Suspended = true
		h.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		_, err := h.svc.CopyLink(ctx, actorID, user.ID, loginlink.KindLogin)
		assert.ErrorIs(t, err, ErrAccountUnavailable)

		_, err = h.svc.CopyLink(ctx, actorID, user.ID, loginlink.Kind("reset"))
		assert.ErrorIs(t, err, loginlink.ErrInvalidKind)
		assert.Zero(t, h.linkCount(t))
	})
}

func TestListLinks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	viewerID := uuid.New()

	t.Run("all links skip missing owners", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, harnessConfig{})
		ann := magicUser("ann@example.com")
		gone := uuid.New()
		h.issue(t, ann.ID, loginlink.KindLogin)
		h.issue(t, ann.ID, loginlink.KindInvitation)
		h.issue(t, gone, loginlink.KindLogin)

		h.users.On("FindByID", mock.Anything, ann.ID).Return(ann, nil).Once()
		h.users.On("FindByID", mock.Anything, gone).Return(nil, ErrUserNotFound).Once()

		infos, err := h.svc.ListLinks(ctx, viewerID, true)
		require.NoError(t, err)
		require.Len(t, infos, 2)
		for _, info := range infos {
			assert.Equal(t, ann.ID, info.UserID)
			assert.Equal(t, "Ann Lee", info.FullName)
			assert.False(t, info.Expired)
		}
		h.users.AssertExpectations(t)
	})

	t.Run("owned accounts only", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, harnessConfig{})
		child := magicUser("child@example.com")
		other := uuid.New()
		h.issue(t, child.ID, loginlink.KindLogin)
		h.issue(t, other, loginlink.KindLogin)

		hidden := magicUser("hidden@example.com")
		h.issue(t, hidden.ID, loginlink.KindLogin)

		h.roles.On("ChildrenOf", mock.Anything, viewerID).Return([]uuid.UUID{child.ID, hidden.ID}, nil)
		h.roles.On("OwnerRole", mock.Anything, viewerID, child.ID).Return("owner", true, nil)
		h.roles.On("OwnerRole", mock.Anything, viewerID, hidden.ID).Return(rbac.RoleUser, true, nil)
		h.users.On("FindByID", mock.Anything, child.ID).Return(child, nil)

		h.clock.Advance(5 * time.Hour)

		infos, err := h.svc.ListLinks(ctx, viewerID, false)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, child.ID, infos[0].UserID)
		assert.True(t, infos[0].Expired)
	})

	t.Run("no owned accounts", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, harnessConfig{})
		h.issue(t, uuid.New(), loginlink.KindLogin)
		h.roles.On("ChildrenOf", mock.Anything, viewerID).Return(nil, nil)

		infos, err := h.svc.ListLinks(ctx, viewerID, false)
		require.NoError(t, err)
		assert.Empty(t, infos)
	})
}
