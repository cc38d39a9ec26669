package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/magicauth/pkg/ratelimiter"
	"github.com/dmitrymomot/magicauth/pkg/session"
)

// MockUserDirectory is a mock implementation of UserDirectory.
type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserDirectory) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserDirectory) Create(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserDirectory) Update(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserDirectory) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEnroller is a mock implementation of Enroller.
type MockEnroller struct {
	mock.Mock
}

func (m *MockEnroller) Enroll(ctx context.Context, courseID, userID uuid.UUID, role string, duration time.Duration) error {
	args := m.Called(ctx, courseID, userID, role, duration)
	return args.Error(0)
}

// MockRoleAssigner is a mock implementation of RoleAssigner.
type MockRoleAssigner struct {
	mock.Mock
}

func (m *MockRoleAssigner) AssignOwner(ctx context.Context, actorID, userID uuid.UUID, role string) error {
	args := m.Called(ctx, actorID, userID, role)
	return args.Error(0)
}

func (m *MockRoleAssigner) OwnerRole(ctx context.Context, actorID, userID uuid.UUID) (string, bool, error) {
	args := m.Called(ctx, actorID, userID)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockRoleAssigner) ChildrenOf(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockMessenger is a mock implementation of Messenger.
type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) Send(ctx context.Context, msg Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockSessions is a mock implementation of Sessions.
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Start(ctx context.Context, userID uuid.UUID, data map[string]any) (*session.Session, error) {
	args := m.Called(ctx, userID, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessions) Terminate(ctx context.Context, s *session.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSessions) TerminateUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockRateLimiter is a mock implementation of RateLimiter.
type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Allow(ctx context.Context, key string) (*ratelimiter.Result, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ratelimiter.Result), args.Error(1)
}

// MockAuthorizer is a mock implementation of Authorizer.
type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) Can(role, permission string) error {
	args := m.Called(role, permission)
	return args.Error(0)
}
