package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// testDB connects to the Postgres named by TEST_DB_DSN and ensures the
// schema. Tests using it are skipped when the variable is unset; point
// it at a disposable database to run them.
func testDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithPassword(os.Getenv("TEST_DB_PASSWORD")),
	))
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, CreateTableUserProgress(ctx, db))
	require.NoError(t, CreateTableClass(ctx, db))
	require.NoError(t, CreateTableCounter(ctx, db))
	return db
}

// testID yields ids unique across runs so tests never collide on rows
// left behind in the shared test database.
func testID(t *testing.T) string {
	return fmt.Sprintf("%s-%d", t.Name(), time.Now().UnixNano())
}
