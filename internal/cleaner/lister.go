package cleaner

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// OldRecord is one aged report row returned by the lister.
type OldRecord struct {
	Cluster     ClusterName
	ReportedAt  time.Time
	LastChecked time.Time
}

// AgeDays returns the record age in whole days relative to now, rounded up.
func (r OldRecord) AgeDays(now time.Time) int {
	return int(math.Ceil(now.Sub(r.ReportedAt).Hours() / 24))
}

// Lister runs the selection as a read-only query and writes the matching
// cluster identifiers to an output file, one per line.
type Lister struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewLister creates a Lister on an open database handle.
func NewLister(db *sql.DB, logger zerolog.Logger) *Lister {
	return &Lister{
		db:     db,
		logger: logger.With().Str("component", "lister").Logger(),
	}
}

// List returns all records matching the selection, ordered by timestamp and
// cluster so that repeated runs on unchanged data produce identical output.
// Any database failure yields a QueryError.
func (l *Lister) List(ctx context.Context, sel Selection) ([]OldRecord, error) {
	query, args := sel.listQuery()

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	defer rows.Close()

	var records []OldRecord
	for rows.Next() {
		var rec OldRecord
		if err := rows.Scan(&rec.Cluster, &rec.ReportedAt, &rec.LastChecked); err != nil {
			return nil, &QueryError{Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Err: err}
	}

	return records, nil
}

// Run lists all matching records, logs them, and writes their identifiers to
// outputPath when it is non-empty. The result set is collected fully before
// the file is touched, so a QueryError never leaves a partially written
// file behind. An empty result set produces a zero-byte file, with no
// header and no trailing newline.
func (l *Lister) Run(ctx context.Context, sel Selection, outputPath string) (int, error) {
	records, err := l.List(ctx, sel)
	if err != nil {
		return 0, err
	}

	for _, rec := range records {
		l.logger.Info().
			Str("cluster", string(rec.Cluster)).
			Str("reported", rec.ReportedAt.Format(time.RFC3339)).
			Str("lastChecked", rec.LastChecked.Format(time.RFC3339)).
			Int("age", rec.AgeDays(sel.Now)).
			Msg("Old report")
	}
	l.logger.Info().Int("count", len(records)).Msg("Listing finished")

	if outputPath == "" {
		return len(records), nil
	}
	if err := writeClusterList(outputPath, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func writeClusterList(outputPath string, records []OldRecord) error {
	// the output path is operator-supplied by design
	// #nosec G304
	fout, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	writer := bufio.NewWriter(fout)
	for _, rec := range records {
		if _, err := fmt.Fprintf(writer, "%s\n", rec.Cluster); err != nil {
			fout.Close()
			return fmt.Errorf("failed to write output file: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		fout.Close()
		return fmt.Errorf("failed to flush output file: %w", err)
	}
	return fout.Close()
}
