package loginlink

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgx used by PostgresStore.
// *pgxpool.Pool, *pgx.Conn and pgx.Tx all satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps links in the login_links table (see migrations).
// The primary key on (owner_id, kind) enforces one record per owner and kind;
// the unique index on digest serves lookups.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a store over db.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	pgSaveLink = `
INSERT INTO login_links (owner_id, kind, digest, issued_at, expires_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (owner_id, kind) DO UPDATE
SET digest = EXCLUDED.digest, issued_at = EXCLUDED.issued_at, expires_at = EXCLUDED.expires_at`

	pgFindLink = `
SELECT owner_id, kind, digest, issued_at, expires_at FROM login_links WHERE digest = $1`

	pgTakeLink = `
DELETE FROM login_links WHERE digest = $1
RETURNING owner_id, kind, digest, issued_at, expires_at`

	pgDeleteByOwner = `DELETE FROM login_links WHERE owner_id = $1`

	pgDeleteExpired = `DELETE FROM login_links WHERE expires_at < $1`

	pgListLinks = `
SELECT owner_id, kind, digest, issued_at, expires_at FROM login_links
WHERE cardinality($1::uuid[]) = 0 OR owner_id = ANY($1::uuid[])
ORDER BY issued_at DESC, owner_id, kind`
)

func (s *PostgresStore) Save(ctx context.Context, link Link) error {
	_, err := s.db.Exec(ctx, pgSaveLink, link.OwnerID, string(link.Kind), link.Digest, link.IssuedAt, link.ExpiresAt)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, digest string) (Link, error) {
	return scanLink(s.db.QueryRow(ctx, pgFindLink, digest))
}

// Take relies on DELETE ... RETURNING: when several transactions delete the
// same row, only one of them gets it back.
func (s *PostgresStore) Take(ctx context.Context, digest string) (Link, error) {
	return scanLink(s.db.QueryRow(ctx, pgTakeLink, digest))
}

func (s *PostgresStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, pgDeleteByOwner, ownerID); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, pgDeleteExpired, before)
	if err != nil {
		return 0, errors.Join(ErrStoreFailure, err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) List(ctx context.Context, ownerIDs ...uuid.UUID) ([]Link, error) {
	ids := make([]string, len(ownerIDs))
	for i, id := range ownerIDs {
		ids[i] = id.String()
	}

	rows, err := s.db.Query(ctx, pgListLinks, ids)
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	defer rows.Close()

	links := make([]Link, 0)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return links, nil
}

func scanLink(row pgx.Row) (Link, error) {
	var (
		link Link
		kind string
	)
	err := row.Scan(&link.OwnerID, &kind, &link.Digest, &link.IssuedAt, &link.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Link{}, ErrNotFound
		}
		return Link{}, errors.Join(ErrStoreFailure, err)
	}
	link.Kind = Kind(kind)
	return link, nil
}
