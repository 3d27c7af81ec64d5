package cleaner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var listQueryPattern = regexp.QuoteMeta(
	"SELECT cluster, reported_at, last_checked_at FROM report" +
		" WHERE reported_at < $1 ORDER BY reported_at, cluster",
)

func TestListerRunWritesOnePerLine(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	reported := now.AddDate(-1, 0, 0)

	mock.ExpectQuery(listQueryPattern).
		WillReturnRows(sqlmock.NewRows([]string{"cluster", "reported_at", "last_checked_at"}).
			AddRow("00000000-0000-0000-0000-000000000000", reported, reported).
			AddRow("11111111-1111-1111-1111-111111111111", reported, reported))

	output := filepath.Join(t.TempDir(), "clusters.txt")
	lister := NewLister(db, zerolog.Nop())

	count, err := lister.Run(context.Background(), NewSelection(now, 90*24*time.Hour, nil), output)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t,
		"00000000-0000-0000-0000-000000000000\n11111111-1111-1111-1111-111111111111\n",
		string(content))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListerRunEmptyResultWritesEmptyFile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(listQueryPattern).
		WillReturnRows(sqlmock.NewRows([]string{"cluster", "reported_at", "last_checked_at"}))

	output := filepath.Join(t.TempDir(), "clusters.txt")
	lister := NewLister(db, zerolog.Nop())

	count, err := lister.Run(context.Background(), NewSelection(time.Now(), 90*24*time.Hour, nil), output)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	info, err := os.Stat(output)
	require.NoError(t, err, "an empty result must still produce the output file")
	assert.Equal(t, int64(0), info.Size(), "empty result must produce a zero-byte file")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListerRunQueryErrorLeavesNoFile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(listQueryPattern).WillReturnError(errors.New("connection reset"))

	output := filepath.Join(t.TempDir(), "clusters.txt")
	lister := NewLister(db, zerolog.Nop())

	_, err = lister.Run(context.Background(), NewSelection(time.Now(), 90*24*time.Hour, nil), output)
	require.Error(t, err)

	var queryErr *QueryError
	assert.ErrorAs(t, err, &queryErr)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "a failed query must not leave an output file behind")
}

func TestListerRunWithoutOutputPath(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reported := time.Now().AddDate(-1, 0, 0)
	mock.ExpectQuery(listQueryPattern).
		WillReturnRows(sqlmock.NewRows([]string{"cluster", "reported_at", "last_checked_at"}).
			AddRow("00000000-0000-0000-0000-000000000000", reported, reported))

	lister := NewLister(db, zerolog.Nop())

	count, err := lister.Run(context.Background(), NewSelection(time.Now(), 90*24*time.Hour, nil), "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListerListClusterFilterArgs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cluster := "5d5892d4-1f74-4ccf-91af-548dfc9767aa"
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	sel := NewSelection(now, 90*24*time.Hour, ClusterList{ClusterName(cluster)})

	mock.ExpectQuery(regexp.QuoteMeta("AND cluster IN ($2)")).
		WithArgs(sel.Cutoff, cluster).
		WillReturnRows(sqlmock.NewRows([]string{"cluster", "reported_at", "last_checked_at"}))

	lister := NewLister(db, zerolog.Nop())

	records, err := lister.List(context.Background(), sel)
	require.NoError(t, err)
	assert.Empty(t, records)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListerRunLogsAgeAgainstSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// a fixed snapshot far in the past: the logged age must be derived
	// from it, not from the wall clock at logging time
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	reported := now.AddDate(0, 0, -100)

	mock.ExpectQuery(listQueryPattern).
		WillReturnRows(sqlmock.NewRows([]string{"cluster", "reported_at", "last_checked_at"}).
			AddRow("00000000-0000-0000-0000-000000000000", reported, reported))

	var buf bytes.Buffer
	lister := NewLister(db, zerolog.New(&buf))

	_, err = lister.Run(context.Background(), NewSelection(now, 90*24*time.Hour, nil), "")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"age":100`)
}

func TestOldRecordAgeDays(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := OldRecord{ReportedAt: now.Add(-36 * time.Hour)}

	assert.Equal(t, 2, rec.AgeDays(now), "partial days round up")
}
