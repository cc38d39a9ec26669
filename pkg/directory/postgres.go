package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/magicauth/pkg/auth"
)

// DB is the subset of pgx used by Postgres.
// *pgxpool.Pool, *pgx.Conn and pgx.Tx all satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres keeps accounts in the users, user_owners and course_enrolments tables.
type Postgres struct {
	db  DB
	now func() time.Time
}

func NewPostgres(db DB, opts ...Option) *Postgres {
	o := newOptions(opts)
	return &Postgres{db: db, now: o.now}
}

const (
	userColumns = `id, email, first_name, last_name, auth_method, role, suspended, deleted, created_at, updated_at`

	// Deleted accounts keep their row but release the email.
	pgFindUserByEmail = `
SELECT ` + userColumns + ` FROM users
WHERE lower(email) = lower($1) AND NOT deleted
LIMIT 1`

	pgFindUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	pgCreateUser = `
INSERT INTO users (` + userColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	pgUpdateUser = `
UPDATE users
SET email = $2, first_name = $3, last_name = $4, auth_method = $5, role = $6,
    suspended = $7, deleted = $8, updated_at = $9
WHERE id = $1`

	pgDeleteUser = `UPDATE users SET deleted = TRUE, updated_at = $2 WHERE id = $1 AND NOT deleted`

	pgEnroll = `
INSERT INTO course_enrolments (course_id, user_id, role, starts_at, ends_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (course_id, user_id) DO UPDATE
SET role = EXCLUDED.role, starts_at = EXCLUDED.starts_at, ends_at = EXCLUDED.ends_at`

	pgEnrolments = `
SELECT course_id, user_id, role, starts_at, ends_at FROM course_enrolments
WHERE user_id = $1 ORDER BY starts_at`

	pgAssignOwner = `
INSERT INTO user_owners (owner_id, user_id, role, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (owner_id, user_id) DO UPDATE SET role = EXCLUDED.role`

	pgOwnerRole = `SELECT role FROM user_owners WHERE owner_id = $1 AND user_id = $2`

	pgChildrenOf = `
SELECT o.user_id FROM user_owners o
JOIN users u ON u.id = o.user_id
WHERE o.owner_id = $1 AND NOT u.deleted
ORDER BY o.created_at, o.user_id`
)

func (p *Postgres) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return scanUser(p.db.QueryRow(ctx, pgFindUserByEmail, strings.TrimSpace(email)))
}

func (p *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return scanUser(p.db.QueryRow(ctx, pgFindUserByID, id))
}

// Create inserts user, filling in its ID, role and timestamps when unset.
func (p *Postgres) Create(ctx context.Context, user *auth.User) error {
	if err := prepareNew(user, p.now()); err != nil {
		return err
	}
	_, err := p.db.Exec(ctx, pgCreateUser,
		user.ID, user.Email, user.FirstName, user.LastName, user.AuthMethod, user.Role,
		user.Suspended, user.Deleted, user.CreatedAt, user.UpdatedAt,
	)
	return execError(err)
}

func (p *Postgres) Update(ctx context.Context, user *auth.User) error {
	user.UpdatedAt = p.now().UTC()
	tag, err := p.db.Exec(ctx, pgUpdateUser,
		user.ID, user.Email, user.FirstName, user.LastName, user.AuthMethod, user.Role,
		user.Suspended, user.Deleted, user.UpdatedAt,
	)
	if err != nil {
		return execError(err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// Delete marks the account deleted. Deleting twice reports auth.ErrUserNotFound.
func (p *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := p.db.Exec(ctx, pgDeleteUser, id, p.now().UTC())
	if err != nil {
		return execError(err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// Enroll adds or renews a course membership starting now.
func (p *Postgres) Enroll(ctx context.Context, courseID, userID uuid.UUID, role string, duration time.Duration) error {
	start := p.now().UTC()
	_, err := p.db.Exec(ctx, pgEnroll, courseID, userID, role, start, endsAt(start, duration))
	return execError(err)
}

func (p *Postgres) Enrolments(ctx context.Context, userID uuid.UUID) ([]Enrolment, error) {
	rows, err := p.db.Query(ctx, pgEnrolments, userID)
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	defer rows.Close()

	out := make([]Enrolment, 0)
	for rows.Next() {
		var e Enrolment
		if err := rows.Scan(&e.CourseID, &e.UserID, &e.Role, &e.StartsAt, &e.EndsAt); err != nil {
			return nil, errors.Join(ErrStoreFailure, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return out, nil
}

func (p *Postgres) AssignOwner(ctx context.Context, actorID, userID uuid.UUID, role string) error {
	_, err := p.db.Exec(ctx, pgAssignOwner, actorID, userID, role, p.now().UTC())
	return execError(err)
}

func (p *Postgres) OwnerRole(ctx context.Context, actorID, userID uuid.UUID) (string, bool, error) {
	var role string
	err := p.db.QueryRow(ctx, pgOwnerRole, actorID, userID).Scan(&role)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, errors.Join(ErrStoreFailure, err)
	}
	return role, true, nil
}

func (p *Postgres) ChildrenOf(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := p.db.Query(ctx, pgChildrenOf, parentID)
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Join(ErrStoreFailure, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return ids, nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.AuthMethod, &u.Role,
		&u.Suspended, &u.Deleted, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return &u, nil
}

// execError maps a unique violation on users_email_idx to ErrEmailTaken.
func execError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "users_email_idx" {
		return errors.Join(ErrEmailTaken, err)
	}
	return errors.Join(ErrStoreFailure, err)
}

// prepareNew validates a user about to be created and fills defaults.
func prepareNew(user *auth.User, now time.Time) error {
	if user == nil || strings.TrimSpace(user.Email) == "" || user.AuthMethod == "" {
		return ErrInvalidUser
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = DefaultRole
	}
	now = now.UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	return nil
}

var (
	_ auth.UserDirectory = (*Postgres)(nil)
	_ auth.Enroller      = (*Postgres)(nil)
	_ auth.RoleAssigner  = (*Postgres)(nil)
)
