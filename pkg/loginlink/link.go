package loginlink

import (
	"time"

	"github.com/google/uuid"
)

// Link is a stored login link. The secret itself is never part of it.
type Link struct {
	OwnerID   uuid.UUID `json:"owner_id"`
	Kind      Kind      `json:"kind"`
	Digest    string    `json:"digest"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExpiredAt reports whether the link is past its expiry at the given instant.
// A link is still valid at exactly ExpiresAt.
func (l Link) ExpiredAt(now time.Time) bool {
	return now.After(l.ExpiresAt)
}
