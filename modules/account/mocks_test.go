package account_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/magicauth/pkg/auth"
	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/session"
)

type MockMagicLinks struct {
	mock.Mock
}

func (m *MockMagicLinks) RequestLoginLink(ctx context.Context, email string) (auth.Ack, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(auth.Ack), args.Error(1)
}

func (m *MockMagicLinks) ConsumeToken(ctx context.Context, secret string, kind loginlink.Kind, current *session.Session) (auth.Outcome, error) {
	args := m.Called(ctx, secret, kind, current)
	return args.Get(0).(auth.Outcome), args.Error(1)
}

type MockAdminActions struct {
	mock.Mock
}

func (m *MockAdminActions) ProvisionAccount(ctx context.Context, actorID uuid.UUID, p auth.ProvisionParams) (auth.ProvisionResult, error) {
	args := m.Called(ctx, actorID, p)
	return args.Get(0).(auth.ProvisionResult), args.Error(1)
}

func (m *MockAdminActions) Resend(ctx context.Context, ownerID uuid.UUID, kind loginlink.Kind) error {
	return m.Called(ctx, ownerID, kind).Error(0)
}

func (m *MockAdminActions) CopyLink(ctx context.Context, actorID, ownerID uuid.UUID, kind loginlink.Kind) (auth.LinkView, error) {
	args := m.Called(ctx, actorID, ownerID, kind)
	return args.Get(0).(auth.LinkView), args.Error(1)
}

func (m *MockAdminActions) SuspendUser(ctx context.Context, actorID, userID uuid.UUID) error {
	return m.Called(ctx, actorID, userID).Error(0)
}

func (m *MockAdminActions) UnsuspendUser(ctx context.Context, actorID, userID uuid.UUID) error {
	return m.Called(ctx, actorID, userID).Error(0)
}

func (m *MockAdminActions) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	return m.Called(ctx, actorID, userID).Error(0)
}

func (m *MockAdminActions) UserUpdated(ctx context.Context, actorID, userID uuid.UUID) error {
	return m.Called(ctx, actorID, userID).Error(0)
}

func (m *MockAdminActions) ListLinks(ctx context.Context, viewerID uuid.UUID, canViewAll bool) ([]auth.LinkInfo, error) {
	args := m.Called(ctx, viewerID, canViewAll)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]auth.LinkInfo), args.Error(1)
}

type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) Check(ctx context.Context, actor *auth.User, action auth.Action, target uuid.UUID) error {
	return m.Called(ctx, actor, action, target).Error(0)
}

func (m *MockGuard) ViewScope(actor *auth.User) (bool, bool) {
	args := m.Called(actor)
	return args.Bool(0), args.Bool(1)
}

type MockActorLookup struct {
	mock.Mock
}

func (m *MockActorLookup) FindByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}
