package directory_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/magicauth/migrations"
	"github.com/dmitrymomot/magicauth/pkg/directory"
	"github.com/dmitrymomot/magicauth/pkg/logger"
	"github.com/dmitrymomot/magicauth/pkg/pg"
)

func TestPostgres_Contract(t *testing.T) {
	url := os.Getenv("TEST_PG_CONN_URL")
	if url == "" {
		t.Skip("TEST_PG_CONN_URL is not set")
	}

	ctx := context.Background()
	cfg := pg.Config{
		ConnectionString: url,
		MaxOpenConns:     10,
		MaxIdleConns:     1,
		RetryAttempts:    1,
		MigrationsTable:  "magicauth_schema_migrations",
	}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pg.Migrate(ctx, pool, migrations.FS, cfg, logger.Noop()))

	testDirectoryContract(t, func(t *testing.T) store {
		_, err := pool.Exec(ctx, "TRUNCATE users CASCADE")
		require.NoError(t, err)
		return directory.NewPostgres(pool)
	})
}
