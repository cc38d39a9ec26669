package directory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/magicauth/pkg/auth"
	"github.com/dmitrymomot/magicauth/pkg/directory"
)

type store interface {
	auth.UserDirectory
	auth.Enroller
	auth.RoleAssigner
	Enrolments(ctx context.Context, userID uuid.UUID) ([]directory.Enrolment, error)
}

func newUser(email string) *auth.User {
	return &auth.User{Email: email, FirstName: "Ann", LastName: "Lee", AuthMethod: auth.MethodMagic}
}

// testDirectoryContract runs the behaviour every backend must share.
func testDirectoryContract(t *testing.T, newStore func(t *testing.T) store) {
	ctx := context.Background()

	t.Run("create fills defaults", func(t *testing.T) {
		s := newStore(t)
		u := newUser("ann@example.com")
		require.NoError(t, s.Create(ctx, u))
		assert.NotEqual(t, uuid.Nil, u.ID)
		assert.Equal(t, directory.DefaultRole, u.Role)
		assert.False(t, u.CreatedAt.IsZero())

		got, err := s.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "ann@example.com", got.Email)
		assert.Equal(t, auth.MethodMagic, got.AuthMethod)
	})

	t.Run("email lookup ignores case", func(t *testing.T) {
		s := newStore(t)
		u := newUser("Ann@Example.com")
		require.NoError(t, s.Create(ctx, u))

		got, err := s.FindByEmail(ctx, "ann@example.COM")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = s.FindByEmail(ctx, "bob@example.com")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("duplicate live email", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, newUser("ann@example.com")))
		assert.ErrorIs(t, s.Create(ctx, newUser("ANN@example.com")), directory.ErrEmailTaken)
	})

	t.Run("invalid user", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.Create(ctx, &auth.User{Email: "x@example.com"}), directory.ErrInvalidUser)
	})

	t.Run("update", func(t *testing.T) {
		s := newStore(t)
		u := newUser("ann@example.com")
		require.NoError(t, s.Create(ctx, u))

		u.Suspended = true
		u.Role = "manager"
		require.NoError(t, s.Update(ctx, u))

		got, err := s.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, got.Suspended)
		assert.Equal(t, "manager", got.Role)

		missing := newUser("nobody@example.com")
		missing.ID = uuid.New()
		assert.ErrorIs(t, s.Update(ctx, missing), auth.ErrUserNotFound)
	})

	t.Run("soft delete frees the email", func(t *testing.T) {
		s := newStore(t)
		old := newUser("ann@example.com")
		require.NoError(t, s.Create(ctx, old))
		require.NoError(t, s.Delete(ctx, old.ID))
		assert.ErrorIs(t, s.Delete(ctx, old.ID), auth.ErrUserNotFound)

		got, err := s.FindByID(ctx, old.ID)
		require.NoError(t, err)
		assert.True(t, got.Deleted)

		_, err = s.FindByEmail(ctx, "ann@example.com")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)

		fresh := newUser("ann@example.com")
		require.NoError(t, s.Create(ctx, fresh))
		got, err = s.FindByEmail(ctx, "ann@example.com")
		require.NoError(t, err)
		assert.Equal(t, fresh.ID, got.ID)
	})

	t.Run("enrolment", func(t *testing.T) {
		s := newStore(t)
		u := newUser("ann@example.com")
		require.NoError(t, s.Create(ctx, u))
		unlimited, limited := uuid.New(), uuid.New()

		require.NoError(t, s.Enroll(ctx, unlimited, u.ID, "student", 0))
		require.NoError(t, s.Enroll(ctx, limited, u.ID, "student", 24*time.Hour))
		require.NoError(t, s.Enroll(ctx, limited, u.ID, "teacher", 48*time.Hour))

		list, err := s.Enrolments(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		for _, e := range list {
			switch e.CourseID {
			case unlimited:
				assert.Nil(t, e.EndsAt)
			case limited:
				assert.Equal(t, "teacher", e.Role)
				require.NotNil(t, e.EndsAt)
				assert.WithinDuration(t, e.StartsAt.Add(48*time.Hour), *e.EndsAt, time.Second)
			default:
				t.Fatalf("unexpected course %s", e.CourseID)
			}
		}
	})

	t.Run("ownership", func(t *testing.T) {
		s := newStore(t)
		parent, child, other := newUser("p@example.com"), newUser("c@example.com"), newUser("o@example.com")
		for _, u := range []*auth.User{parent, child, other} {
			require.NoError(t, s.Create(ctx, u))
		}

		require.NoError(t, s.AssignOwner(ctx, parent.ID, child.ID, "owner"))
		require.NoError(t, s.AssignOwner(ctx, parent.ID, child.ID, "owner"))

		role, ok, err := s.OwnerRole(ctx, parent.ID, child.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "owner", role)

		_, ok, err = s.OwnerRole(ctx, parent.ID, other.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		children, err := s.ChildrenOf(ctx, parent.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{child.ID}, children)

		require.NoError(t, s.Delete(ctx, child.ID))
		children, err = s.ChildrenOf(ctx, parent.ID)
		require.NoError(t, err)
		assert.Empty(t, children)
	})
}
