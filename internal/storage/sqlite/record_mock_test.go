package sqlite_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/lifecycle"
	"github.com/igraphixwebpreview/RoadReportHub/internal/storage/sqlite"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

var incidentRowColumns = []string{
	"id", "user_id", "type", "latitude", "longitude", "media_kind", "media_uri",
	"notes", "location_name", "reported_at", "active", "verified_count", "dismissed_count",
}

func incidentRow(id uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows(incidentRowColumns).AddRow(
		id.String(), "reporter", "roadblock", 13.9, -60.9, "photo", "p.jpg",
		nil, nil, time.Now().UnixNano(), true, 0, 0,
	)
}

func TestSQLite_RecordRollsBackWhenInsertFails(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := sqlite.NewWithDB(db, discard())
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id")).
		WithArgs(id.String()).
		WillReturnRows(incidentRow(id))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("u1", id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verifications")).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	applied := false
	apply := func(st lifecycle.State) lifecycle.State {
		applied = true
		return st
	}

	_, err = s.Record(context.Background(), vote("u1", id, domain.ActionConfirm), apply)
	require.ErrorIs(t, err, e.ErrInternal)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_RecordDuplicateInsideTransaction(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := sqlite.NewWithDB(db, discard())
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id")).
		WithArgs(id.String()).
		WillReturnRows(incidentRow(id))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("u1", id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err = s.Record(context.Background(), vote("u1", id, domain.ActionDismiss), transition(domain.ActionDismiss))
	require.ErrorIs(t, err, e.ErrDuplicateVote)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_RecordCommitFailure(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := sqlite.NewWithDB(db, discard())
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id")).
		WithArgs(id.String()).
		WillReturnRows(incidentRow(id))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verifications")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE incidents SET active = ?")).
		WithArgs(true, 1, 0, id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	_, err = s.Record(context.Background(), vote("u1", id, domain.ActionConfirm), transition(domain.ActionConfirm))
	require.ErrorIs(t, err, e.ErrInternal)
	assert.NoError(t, mock.ExpectationsWereMet())
}
