// Package loginlink issues, validates and consumes single-use, time-bound
// login links.
//
// A link belongs to one owner (a user ID) and has a Kind: KindLogin for
// ordinary sign-in links and KindInvitation for links sent when an account is
// provisioned. Each kind has its own TTL. At most one live link of each kind
// exists per owner: issuing a new one replaces the previous record, so the old
// secret stops working immediately, even before it would have expired.
//
// Secrets are 32-character alphanumeric strings drawn from crypto/rand. They
// are handed to the caller once and never stored. Stores only see an
// HMAC-SHA256 digest keyed with material derived (HKDF) from the application
// secret, so a leaked table cannot be replayed as links.
//
// # Consumption
//
// ValidateAndConsume is single-use under concurrency. The Store contract
// requires Take to read and delete a record atomically, so exactly one of N
// concurrent callers presenting the same secret gets the owner back and the
// rest observe ErrNotFound. Expired links are deleted by the same Take and
// reported as ErrExpired once; a retry sees ErrNotFound.
//
// The expected kind is checked with a non-destructive Find before the Take,
// so presenting an invitation link to the login endpoint returns ErrWrongKind
// and leaves the link usable.
//
// # Stores
//
//   - MemoryStore: mutex-guarded maps, for tests and single-process setups.
//   - PostgresStore: pgx; upsert on (owner_id, kind) and DELETE ... RETURNING.
//   - RedisStore: go-redis; Lua scripts keep the owner index and the digest
//     key consistent.
//   - MongoStore: mongo-driver v2; upsert plus FindOneAndDelete.
//
// # Usage
//
//	hasher, err := loginlink.NewHasher([]byte(cfg.SecretKey))
//	if err != nil {
//		return err
//	}
//	svc := loginlink.NewService(loginlink.NewMemoryStore(), hasher,
//		loginlink.WithTTL(loginlink.KindLogin, 4*time.Hour),
//		loginlink.WithLogger(log),
//	)
//
//	secret, link, err := svc.Issue(ctx, userID, loginlink.KindLogin)
//	// ... email secret to the user ...
//	ownerID, err := svc.ValidateAndConsume(ctx, secret, loginlink.KindLogin)
package loginlink
