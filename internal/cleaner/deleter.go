package cleaner

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/report-cleaner/internal/storage"
)

// Deleter removes aged report records and all rows referencing them, inside
// a single transaction per cleanup pass.
type Deleter struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewDeleter creates a Deleter on an open database handle.
func NewDeleter(db *sql.DB, logger zerolog.Logger) *Deleter {
	return &Deleter{
		db:     db,
		logger: logger.With().Str("component", "deleter").Logger(),
	}
}

// Run performs one cleanup pass for the given selection.
//
// Tables absent from the target schema are treated as already empty: they
// are probed before the transaction opens (a failed statement inside a
// PostgreSQL transaction aborts it) and skipped with a zero count. Dependent
// rows are deleted before the report records they reference, all within one
// read-committed transaction, so a concurrent writer can never observe a
// report record without its dependents half-deleted. Any failure rolls the
// whole pass back and surfaces as a CleanupError.
func (d *Deleter) Run(ctx context.Context, sel Selection) (*CleanupResult, error) {
	result := newCleanupResult()

	present, err := d.probeTables(ctx)
	if err != nil {
		return nil, &CleanupError{Err: err}
	}

	if !present[reportTable] {
		// no primary table means nothing can be older than the cutoff
		d.logger.Info().Str("table", reportTable).Msg("Primary table absent, nothing to clean")
		return result, nil
	}

	d.logger.Info().Time("cutoff", sel.Cutoff).Int("clusters", len(sel.Clusters)).Msg("Cleanup started")

	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, &CleanupError{Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}

	for _, table := range dependentTables {
		if !present[table.TableName] {
			d.logger.Debug().Str("table", table.TableName).Msg("Table absent, skipped")
			continue
		}

		query, args := sel.deleteDependentQuery(table)
		affected, err := execDelete(ctx, tx, query, args)
		if err != nil {
			rollback(tx, d.logger)
			return nil, &CleanupError{Table: table.TableName, Err: err}
		}
		result.DeletionsForTable[table.TableName] = affected
		d.logger.Info().Int("affected", affected).Str("table", table.TableName).Msg("Deleted dependent rows")
	}

	query, args := sel.deleteReportQuery()
	affected, err := execDelete(ctx, tx, query, args)
	if err != nil {
		rollback(tx, d.logger)
		return nil, &CleanupError{Table: reportTable, Err: err}
	}
	result.DeletionsForTable[reportTable] = affected
	d.logger.Info().Int("affected", affected).Str("table", reportTable).Msg("Deleted report records")

	if err := tx.Commit(); err != nil {
		return nil, &CleanupError{Err: fmt.Errorf("failed to commit transaction: %w", err)}
	}

	d.logger.Info().Int("total", result.TotalDeletions()).Msg("Cleanup finished")
	return result, nil
}

// probeTables checks which of the known tables exist in the target schema.
func (d *Deleter) probeTables(ctx context.Context) (map[string]bool, error) {
	present := make(map[string]bool, len(dependentTables)+1)
	for _, table := range KnownTables() {
		exists, err := storage.TableExists(ctx, d.db, table)
		if err != nil {
			return nil, err
		}
		present[table] = exists
	}
	return present, nil
}

func execDelete(ctx context.Context, tx *sql.Tx, query string, args []interface{}) (int, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func rollback(tx *sql.Tx, logger zerolog.Logger) {
	if err := tx.Rollback(); err != nil {
		logger.Error().Err(err).Msg("Transaction rollback failed")
	}
}
