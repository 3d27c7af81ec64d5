// Package storage opens database connections for the cleaner and classifies
// driver errors. PostgreSQL is the production backend; SQLite is supported
// for local runs and tests.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	sqlite "modernc.org/sqlite"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// pgUndefinedTable is the PostgreSQL SQLSTATE for "relation does not exist".
const pgUndefinedTable = "42P01"

// Options selects the driver and its data source.
type Options struct {
	Driver string

	// PostgreSQL
	PGUsername string
	PGPassword string
	PGHost     string
	PGPort     int
	PGDBName   string
	PGParams   string

	// SQLite
	SQLiteDataSource string
}

// Open validates the driver, builds the data source name and opens the
// connection. The connection is verified with a ping so that a misconfigured
// database fails the run immediately instead of at first query.
func Open(ctx context.Context, opts Options, logger zerolog.Logger) (*sql.DB, error) {
	log := logger.With().Str("component", "storage").Logger()

	var dataSource string
	switch opts.Driver {
	case DriverSQLite:
		dataSource = opts.SQLiteDataSource
	case DriverPostgres:
		dataSource = fmt.Sprintf(
			"postgresql://%v:%v@%v:%v/%v?%v",
			opts.PGUsername,
			opts.PGPassword,
			opts.PGHost,
			opts.PGPort,
			opts.PGDBName,
			opts.PGParams,
		)
	default:
		return nil, fmt.Errorf("driver %q is not supported", opts.Driver)
	}

	db, err := sql.Open(opts.Driver, dataSource)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug().Str("driver", opts.Driver).Msg("database connection established")
	return db, nil
}

// IsUndefinedTable reports whether err means the queried table does not
// exist. The cleaner treats a missing table as "zero matching rows", never
// as a failure.
//
// PostgreSQL reports SQLSTATE 42P01 via a typed *pq.Error. SQLite has no
// dedicated error code for a missing table (it raises the generic
// SQLITE_ERROR), so for that backend the driver's documented "no such
// table" message is accepted as well.
func IsUndefinedTable(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUndefinedTable
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return strings.Contains(sqliteErr.Error(), "no such table")
	}

	return false
}

// TableExists probes whether table is present in the target schema. A probe
// that fails with an undefined-table error means the table is absent; any
// other error is returned to the caller. The probe runs outside the cleanup
// transaction because a failed statement inside a PostgreSQL transaction
// aborts it.
func TableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	// table names cannot be bound as parameters; callers pass only the
	// fixed, known table set
	// #nosec G202
	query := "SELECT 1 FROM " + table + " LIMIT 1"

	var one int
	err := db.QueryRowContext(ctx, query).Scan(&one)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return true, nil
	case IsUndefinedTable(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed to probe table %s: %w", table, err)
	}
}
