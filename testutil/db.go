package testutil

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/storage/database"
)

const memoryDSN = ":memory:?_pragma=foreign_keys(1)"

// PrepareDB opens a fresh in-memory sqlite database holding the latest schema.
// The database is closed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conf := *core.Conf
	conf.Database.Engine = database.EngineSQLite
	conf.Database.DSN = memoryDSN

	db, err := database.Open(&conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetLogger(goose.NopLogger())
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}
