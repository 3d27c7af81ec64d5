package cleaner

import (
	"fmt"
	"strings"
	"time"
)

// Selection is the immutable predicate for one run: report records older
// than Cutoff, optionally restricted to an explicit cluster allow-list.
//
// The cutoff is computed exactly once per invocation from a single "now"
// snapshot, so the lister, the deleter and any subsequent summary pass all
// agree on which records are in scope.
type Selection struct {
	Now      time.Time
	Cutoff   time.Time
	Clusters ClusterList
}

// NewSelection derives the cutoff from the given snapshot time and age
// threshold. Callers capture now once and thread it through explicitly; the
// snapshot is retained so record ages are reported against the same instant
// the cutoff was derived from.
func NewSelection(now time.Time, threshold time.Duration, clusters ClusterList) Selection {
	return Selection{
		Now:      now,
		Cutoff:   now.Add(-threshold),
		Clusters: clusters,
	}
}

// reportPredicate renders the WHERE clause over the report table columns and
// the corresponding bind arguments. Placeholders start at $1.
func (s Selection) reportPredicate() (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(reportTimestamp)
	sb.WriteString(" < $1")

	args := []interface{}{s.Cutoff}

	if len(s.Clusters) > 0 {
		sb.WriteString(" AND ")
		sb.WriteString(reportKey)
		sb.WriteString(" IN (")
		for i, cluster := range s.Clusters {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", len(args)+1)
			args = append(args, string(cluster))
		}
		sb.WriteString(")")
	}

	return sb.String(), args
}

// listQuery selects the identifiers and timestamps of all matching records
// in an order that is stable across repeated runs on unchanged data.
func (s Selection) listQuery() (string, []interface{}) {
	predicate, args := s.reportPredicate()
	query := fmt.Sprintf(
		"SELECT %s, %s, last_checked_at FROM %s WHERE %s ORDER BY %s, %s",
		reportKey, reportTimestamp, reportTable, predicate, reportTimestamp, reportKey,
	)
	return query, args
}

// deleteDependentQuery deletes rows from a dependent table whose key
// references a report record matched by the predicate.
func (s Selection) deleteDependentQuery(table TableAndKey) (string, []interface{}) {
	predicate, args := s.reportPredicate()
	query := fmt.Sprintf(
		"DELETE FROM %s WHERE %s IN (SELECT %s FROM %s WHERE %s)",
		table.TableName, table.KeyName, reportKey, reportTable, predicate,
	)
	return query, args
}

// deleteReportQuery deletes the matched report records themselves.
func (s Selection) deleteReportQuery() (string, []interface{}) {
	predicate, args := s.reportPredicate()
	return fmt.Sprintf("DELETE FROM %s WHERE %s", reportTable, predicate), args
}
