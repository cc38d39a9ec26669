package ratelimiter

import (
	"context"
	"time"
)

// Store keeps bucket state. ConsumeTokens takes tokens only when enough are
// available; otherwise it leaves the bucket untouched and reports the
// shortfall as a negative remaining count.
type Store interface {
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}
