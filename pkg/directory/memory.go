package directory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/magicauth/pkg/auth"
)

type ownership struct {
	ownerID uuid.UUID
	userID  uuid.UUID
}

type ownerRecord struct {
	role      string
	createdAt time.Time
}

type courseUser struct {
	courseID uuid.UUID
	userID   uuid.UUID
}

// Memory is an in-process directory for development and tests.
// Returned users are copies.
type Memory struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]auth.User
	owners     map[ownership]ownerRecord
	enrolments map[courseUser]Enrolment
	now        func() time.Time
}

func NewMemory(opts ...Option) *Memory {
	o := newOptions(opts)
	return &Memory{
		users:      make(map[uuid.UUID]auth.User),
		owners:     make(map[ownership]ownerRecord),
		enrolments: make(map[courseUser]Enrolment),
		now:        o.now,
	}
}

func (m *Memory) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = strings.TrimSpace(email)
	for _, u := range m.users {
		if !u.Deleted && strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (m *Memory) FindByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &u, nil
}

func (m *Memory) Create(_ context.Context, user *auth.User) error {
	if err := prepareNew(user, m.now()); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(user.Email, user.ID) {
		return ErrEmailTaken
	}
	if _, ok := m.users[user.ID]; ok {
		return ErrInvalidUser
	}
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) Update(_ context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; !ok {
		return auth.ErrUserNotFound
	}
	if !user.Deleted && m.emailTaken(user.Email, user.ID) {
		return ErrEmailTaken
	}
	user.UpdatedAt = m.now().UTC()
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok || u.Deleted {
		return auth.ErrUserNotFound
	}
	u.Deleted = true
	u.UpdatedAt = m.now().UTC()
	m.users[id] = u
	return nil
}

// emailTaken reports whether a live account other than id uses email.
// Callers hold the lock.
func (m *Memory) emailTaken(email string, id uuid.UUID) bool {
	for _, u := range m.users {
		if u.ID != id && !u.Deleted && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (m *Memory) Enroll(_ context.Context, courseID, userID uuid.UUID, role string, duration time.Duration) error {
	start := m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return auth.ErrUserNotFound
	}
	m.enrolments[courseUser{courseID, userID}] = Enrolment{
		CourseID: courseID,
		UserID:   userID,
		Role:     role,
		StartsAt: start,
		EndsAt:   endsAt(start, duration),
	}
	return nil
}

func (m *Memory) Enrolments(_ context.Context, userID uuid.UUID) ([]Enrolment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Enrolment, 0)
	for k, e := range m.enrolments {
		if k.userID == userID {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b Enrolment) int {
		return a.StartsAt.Compare(b.StartsAt)
	})
	return out, nil
}

func (m *Memory) AssignOwner(_ context.Context, actorID, userID uuid.UUID, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ownership{actorID, userID}
	rec, ok := m.owners[key]
	if !ok {
		rec.createdAt = m.now()
	}
	rec.role = role
	m.owners[key] = rec
	return nil
}

func (m *Memory) OwnerRole(_ context.Context, actorID, userID uuid.UUID) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.owners[ownership{actorID, userID}]
	return rec.role, ok, nil
}

func (m *Memory) ChildrenOf(_ context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type child struct {
		id uuid.UUID
		at time.Time
	}
	var children []child
	for k, rec := range m.owners {
		if k.ownerID != parentID {
			continue
		}
		if u, ok := m.users[k.userID]; ok && u.Deleted {
			continue
		}
		children = append(children, child{k.userID, rec.createdAt})
	}
	slices.SortFunc(children, func(a, b child) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		return strings.Compare(a.id.String(), b.id.String())
	})

	ids := make([]uuid.UUID, len(children))
	for i, c := range children {
		ids[i] = c.id
	}
	return ids, nil
}

var (
	_ auth.UserDirectory = (*Memory)(nil)
	_ auth.Enroller      = (*Memory)(nil)
	_ auth.RoleAssigner  = (*Memory)(nil)
)
