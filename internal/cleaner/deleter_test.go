package cleaner

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectProbe(mock sqlmock.Sqlmock, table string, exists bool) {
	probe := mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM " + table + " LIMIT 1"))
	if exists {
		probe.WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	} else {
		probe.WillReturnError(&pq.Error{Code: "42P01"})
	}
}

func expectAllProbes(mock sqlmock.Sqlmock) {
	for _, table := range KnownTables() {
		expectProbe(mock, table, true)
	}
}

func testSelection() Selection {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return NewSelection(now, 90*24*time.Hour, nil)
}

func TestDeleterRunDeletesAllTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sel := testSelection()

	expectAllProbes(mock)
	mock.ExpectBegin()
	for i, table := range dependentTables {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM "+table.TableName)).
			WithArgs(sel.Cutoff).
			WillReturnResult(sqlmock.NewResult(0, int64(i+1)))
	}
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM report WHERE reported_at < $1")).
		WithArgs(sel.Cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectCommit()

	deleter := NewDeleter(db, zerolog.Nop())

	result, err := deleter.Run(context.Background(), sel)
	require.NoError(t, err)

	assert.Equal(t, 1, result.DeletionsForTable["cluster_rule_toggle"])
	assert.Equal(t, 4, result.DeletionsForTable["rule_hit"])
	assert.Equal(t, 7, result.DeletionsForTable["report"])
	assert.Equal(t, 17, result.TotalDeletions())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleterRunSkipsAbsentDependentTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sel := testSelection()

	for _, table := range KnownTables() {
		expectProbe(mock, table, table != "rule_hit")
	}
	mock.ExpectBegin()
	for _, table := range dependentTables {
		if table.TableName == "rule_hit" {
			continue
		}
		mock.ExpectExec(regexpDelete(table.TableName)).
			WithArgs(sel.Cutoff).
			WillReturnResult(sqlmock.NewResult(0, 2))
	}
	mock.ExpectExec(regexpDelete("report")).
		WithArgs(sel.Cutoff).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	deleter := NewDeleter(db, zerolog.Nop())

	result, err := deleter.Run(context.Background(), sel)
	require.NoError(t, err)

	assert.Equal(t, 0, result.DeletionsForTable["rule_hit"], "an absent table counts as zero rows")
	assert.Equal(t, 2, result.DeletionsForTable["report"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleterRunReportTableAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for _, table := range KnownTables() {
		expectProbe(mock, table, table != "report")
	}

	deleter := NewDeleter(db, zerolog.Nop())

	result, err := deleter.Run(context.Background(), testSelection())
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalDeletions())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleterRunRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sel := testSelection()

	expectAllProbes(mock)
	mock.ExpectBegin()
	mock.ExpectExec(regexpDelete("cluster_rule_toggle")).
		WithArgs(sel.Cutoff).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	deleter := NewDeleter(db, zerolog.Nop())

	result, err := deleter.Run(context.Background(), sel)
	require.Error(t, err)
	assert.Nil(t, result)

	var cleanupErr *CleanupError
	require.ErrorAs(t, err, &cleanupErr)
	assert.Equal(t, "cluster_rule_toggle", cleanupErr.Table)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleterRunProbeFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM cluster_rule_toggle LIMIT 1")).
		WillReturnError(errors.New("connection refused"))

	deleter := NewDeleter(db, zerolog.Nop())

	_, err = deleter.Run(context.Background(), testSelection())
	require.Error(t, err)

	var cleanupErr *CleanupError
	assert.ErrorAs(t, err, &cleanupErr)
}

func regexpDelete(table string) string {
	return regexp.QuoteMeta("DELETE FROM " + table)
}
