package database

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgUniqueViolation = "23505"

func IsNoRows(err error) bool {
	return errors.Cause(err) == sql.ErrNoRows
}

// IsUniqueViolation reports whether err was caused by a unique constraint, whatever the engine.
func IsUniqueViolation(err error) bool {
	switch cause := errors.Cause(err).(type) {
	case *pq.Error:
		return cause.Code == pgUniqueViolation
	case *pgconn.PgError:
		return cause.Code == pgUniqueViolation
	case *sqlite.Error:
		return cause.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || cause.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	default:
		return false
	}
}
