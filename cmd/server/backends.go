package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/magicauth/migrations"
	"github.com/dmitrymomot/magicauth/pkg/config"
	"github.com/dmitrymomot/magicauth/pkg/httpserver"
	"github.com/dmitrymomot/magicauth/pkg/logger"
	mongodb "github.com/dmitrymomot/magicauth/pkg/mongo"
	"github.com/dmitrymomot/magicauth/pkg/pg"
	"github.com/dmitrymomot/magicauth/pkg/redis"
)

// backends opens each database on first use so only the configured
// drivers need to be reachable.
type backends struct {
	log     *slog.Logger
	pool    *pgxpool.Pool
	redis   *goredis.Client
	mongo   *mongo.Client
	mongoDB string
	checks  []httpserver.Check
}

func (b *backends) postgres(ctx context.Context) (*pgxpool.Pool, error) {
	if b.pool != nil {
		return b.pool, nil
	}

	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := pg.Migrate(ctx, pool, migrations.FS, cfg, b.log); err != nil {
			pool.Close()
			return nil, err
		}
	}

	b.pool = pool
	b.checks = append(b.checks, httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)})
	b.log.InfoContext(ctx, "connected to postgres", logger.Component("backends"))
	return pool, nil
}

func (b *backends) redisClient(ctx context.Context) (*goredis.Client, error) {
	if b.redis != nil {
		return b.redis, nil
	}

	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	b.redis = client
	b.checks = append(b.checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
	b.log.InfoContext(ctx, "connected to redis", logger.Component("backends"))
	return client, nil
}

func (b *backends) mongoDatabase(ctx context.Context) (*mongo.Database, error) {
	if b.mongo != nil {
		return b.mongo.Database(b.mongoDB), nil
	}

	var cfg mongodb.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	client, err := mongodb.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	b.mongo = client
	b.mongoDB = cfg.Database
	b.checks = append(b.checks, httpserver.Check{Name: "mongo", Probe: mongodb.Healthcheck(client)})
	b.log.InfoContext(ctx, "connected to mongodb", logger.Component("backends"))
	return client.Database(cfg.Database), nil
}

func (b *backends) close(ctx context.Context) error {
	var errs []error
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if b.mongo != nil {
		if err := b.mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close mongodb: %w", err))
		}
	}
	return errors.Join(errs...)
}
