package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // driver: postgres
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // driver: sqlite

	"github.com/trezcool/pal/core"
	appfs "github.com/trezcool/pal/fs"
)

// Engines
const (
	EnginePostgres = "postgres" // lib/pq
	EnginePgx      = "pgx"      // jackc/pgx stdlib
	EngineSQLite   = "sqlite"   // modernc
)

const (
	migrationsDir     = "migrations"
	defaultSQLiteDSN  = "file:pal.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	postgresAdminDB   = "postgres"
	maxPingAttempts   = 30
	pingBackoffFactor = 100 * time.Millisecond
)

var gooseDialects = map[string]string{
	EnginePostgres: "postgres",
	EnginePgx:      "postgres",
	EngineSQLite:   "sqlite3",
}

func isPostgres(engine string) bool {
	return engine == EnginePostgres || engine == EnginePgx
}

func postgresDSN(dbName string, admin bool, conf *core.Config) string {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func open(dbName string, admin bool, conf *core.Config) (*sqlx.DB, error) {
	engine := conf.Database.Engine
	switch {
	case engine == EngineSQLite:
		dsn := conf.Database.DSN
		if dsn == "" {
			dsn = defaultSQLiteDSN
		}
		db, err := sqlx.Open(engine, dsn)
		if err != nil {
			return nil, err
		}
		// sqlite serializes writers; a single connection also keeps in-memory databases alive.
		db.SetMaxOpenConns(1)
		return db, nil

	case isPostgres(engine):
		dsn := conf.Database.DSN
		if dsn == "" || admin {
			dsn = postgresDSN(dbName, admin, conf)
		}
		return sqlx.Open(engine, dsn)

	default:
		return nil, errors.Errorf("unsupported database engine: %q", engine)
	}
}

// Open opens the application database.
func Open(conf *core.Config) (*sqlx.DB, error) {
	db, err := open(conf.Database.Name, false, conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	return db, nil
}

// Ping waits for the database to be ready. Waits 100ms longer between each attempt.
func Ping(ctx context.Context, db *sqlx.DB) error {
	var err error
	for attempts := 1; attempts <= maxPingAttempts; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * pingBackoffFactor):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

func exists(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (bool, error) {
	var found bool
	err := db.GetContext(ctx, &found, db.Rebind(query), args...)
	if err != nil && !IsNoRows(err) {
		return false, err
	}
	return found, nil
}

func createAppUser(ctx context.Context, db *sqlx.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}

	found, err := exists(ctx, db, "SELECT true FROM pg_roles WHERE rolname = ?", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if !found {
		// identifiers and passwords cannot be bound as parameters in DDL
		q := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD '%s'", conf.Database.User, conf.Database.Password)
		if _, err = db.ExecContext(ctx, q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(ctx context.Context, db *sqlx.DB, conf *core.Config) error {
	found, err := exists(ctx, db, "SELECT true FROM pg_database WHERE datname = ?", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !found {
		if _, err = db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the application role and database on postgres engines.
// sqlite databases are created on open.
func CreateIfNotExist(ctx context.Context, conf *core.Config) error {
	if !isPostgres(conf.Database.Engine) {
		return nil
	}

	// connect as admin
	adminDB, err := open(postgresAdminDB, true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = adminDB.Close() }()
	if err = Ping(ctx, adminDB); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(ctx, adminDB, conf); err != nil {
		return err
	}

	// create DB as app user
	userDB, err := sqlx.Open(conf.Database.Engine, postgresDSN(postgresAdminDB, false, conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = userDB.Close() }()
	return createDB(ctx, userDB, conf)
}

// SetupMigrations points goose to the embedded migrations for the given engine.
func SetupMigrations(engine string) error {
	dialect, ok := gooseDialects[engine]
	if !ok {
		return errors.Errorf("unsupported database engine: %q", engine)
	}
	goose.SetBaseFS(appfs.FS)
	return errors.Wrap(goose.SetDialect(dialect), "setting goose dialect")
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if err := SetupMigrations(db.DriverName()); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, migrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunMigrations runs any goose command (up, down, status, redo, version...) on the embedded migrations.
func RunMigrations(ctx context.Context, db *sqlx.DB, command string, args ...string) error {
	if err := SetupMigrations(db.DriverName()); err != nil {
		return err
	}
	return errors.Wrapf(goose.RunContext(ctx, command, db.DB, migrationsDir, args...), "running goose %s", command)
}
