package loginlink

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists links. Implementations must make Save and Take atomic:
// Save replaces any existing record for (OwnerID, Kind), and Take removes and
// returns the record in one step so that only one caller can ever receive it.
// Stores never evaluate expiry; the Service does.
type Store interface {
	// Save inserts link or replaces the existing record with the same owner and kind.
	Save(ctx context.Context, link Link) error

	// Find returns the record for digest without removing it.
	Find(ctx context.Context, digest string) (Link, error)

	// Take removes the record for digest and returns it.
	Take(ctx context.Context, digest string) (Link, error)

	// DeleteByOwner removes every record of the owner.
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error

	// DeleteExpired removes records that expired before the given instant.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)

	// List returns records of the given owners, or every record if none are given.
	List(ctx context.Context, ownerIDs ...uuid.UUID) ([]Link, error)
}
