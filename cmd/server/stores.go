package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrymomot/magicauth/pkg/audit"
	"github.com/dmitrymomot/magicauth/pkg/auth"
	"github.com/dmitrymomot/magicauth/pkg/directory"
	"github.com/dmitrymomot/magicauth/pkg/email/templates"
	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/ratelimiter"
	"github.com/dmitrymomot/magicauth/pkg/rbac"
	"github.com/dmitrymomot/magicauth/pkg/session"
)

var errUnknownBackend = errors.New("unknown store backend")

// userStore is the account directory the service and guard share.
type userStore interface {
	auth.UserDirectory
	auth.Enroller
	auth.RoleAssigner
}

func openDirectory(ctx context.Context, b *backends, driver string) (userStore, error) {
	switch driver {
	case backendPostgres:
		pool, err := b.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return directory.NewPostgres(pool), nil
	case backendMemory:
		return directory.NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: directory %q", errUnknownBackend, driver)
	}
}

func openLinkStore(ctx context.Context, b *backends, cfg loginlink.Config) (loginlink.Store, error) {
	switch cfg.Store {
	case loginlink.DriverPostgres:
		pool, err := b.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return loginlink.NewPostgresStore(pool), nil
	case loginlink.DriverRedis:
		client, err := b.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return loginlink.NewRedisStore(client, loginlink.WithRedisRetention(cfg.RedisRetention)), nil
	case loginlink.DriverMongo:
		db, err := b.mongoDatabase(ctx)
		if err != nil {
			return nil, err
		}
		store := loginlink.NewMongoStore(db.Collection(cfg.MongoCollection))
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case loginlink.DriverMemory:
		return loginlink.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: login links %q", errUnknownBackend, cfg.Store)
	}
}

func openSessionStore(ctx context.Context, b *backends, cfg session.Config) (session.Store, error) {
	switch cfg.Store {
	case session.StoreRedis:
		client, err := b.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return session.NewRedisStore(client, "magicauth:session:"), nil
	case session.StoreMemory:
		return session.NewMemoryStore(cfg.CleanupInterval), nil
	default:
		return nil, fmt.Errorf("%w: sessions %q", errUnknownBackend, cfg.Store)
	}
}

func openRateLimiter(ctx context.Context, b *backends, driver string, cfg ratelimiter.Config) (*ratelimiter.Bucket, error) {
	var store ratelimiter.Store
	switch driver {
	case backendRedis:
		client, err := b.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		store = ratelimiter.NewRedisStore(client, "magicauth:ratelimit:")
	case backendMemory:
		store = ratelimiter.NewMemoryStore()
	default:
		return nil, fmt.Errorf("%w: rate limiter %q", errUnknownBackend, driver)
	}
	return ratelimiter.NewBucket(store, cfg)
}

func openAuditStorage(ctx context.Context, b *backends, driver string) (audit.Storage, error) {
	switch driver {
	case backendMongo:
		db, err := b.mongoDatabase(ctx)
		if err != nil {
			return nil, err
		}
		storage := audit.NewMongoStorage(db.Collection("audit_events"))
		if err := storage.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return storage, nil
	case backendMemory:
		return audit.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("%w: audit %q", errUnknownBackend, driver)
	}
}

// roleSource reads roles from a YAML file when one is configured and
// falls back to the built-in admin, manager, user and owner roles.
func roleSource(path string) rbac.RoleSource {
	if path == "" {
		return rbac.NewInMemRoleSource(rbac.DefaultRoles())
	}
	return rbac.NewFileRoleSource(path)
}

func loadCatalog(path string) (*templates.Catalog, error) {
	if path == "" {
		return templates.DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read email catalog: %w", err)
	}
	return templates.ParseCatalog(raw)
}

// bootstrapAdmin creates the first administrator account so the admin API
// can be used on an empty directory. An existing account is promoted.
func bootstrapAdmin(ctx context.Context, users auth.UserDirectory, address string) (*auth.User, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return nil, nil
	}

	user, err := users.FindByEmail(ctx, address)
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		user = &auth.User{
			Email:      address,
			AuthMethod: auth.MethodMagic,
			Role:       rbac.RoleAdmin,
		}
		if err := users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create bootstrap admin: %w", err)
		}
		return user, nil
	case err != nil:
		return nil, err
	case user.Role != rbac.RoleAdmin:
		user.Role = rbac.RoleAdmin
		if err := users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("promote bootstrap admin: %w", err)
		}
	}
	return user, nil
}
