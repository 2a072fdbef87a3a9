package dbtest

import (
	"context"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib" // golang postgres driver
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const EnvDSN = "PG_TEST_DSN"

// Open connects to the database named by PG_TEST_DSN, recreates the public
// schema and applies migrations. The test is skipped when the variable is
// unset.
func Open(tb testing.TB, migrations ...string) *sqlx.DB {
	tb.Helper()

	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		tb.Skipf("%s is not set", EnvDSN)
	}

	rq := require.New(tb)
	ctx := context.Background()

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	rq.NoError(err)

	tb.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public`)
	rq.NoError(err)

	_, err = Migrate(ctx, db, migrations...)
	rq.NoError(err)

	return db
}
