package restaurant

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/Additional-Code/bistro/internal/database"
)

func matchAnything(string, string) error { return nil }

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	sqldb, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherFunc(matchAnything)))
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(&database.Connections{Writer: db, Reader: db, Driver: "sqlite3"}), mock
}

func TestListPropagatesQueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	boom := errors.New("connection reset")
	mock.ExpectQuery("").WillReturnError(boom)

	_, err := repo.List(context.Background(), ListFilters{})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsPropagatesQueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	boom := errors.New("query timeout")
	mock.ExpectQuery("").WillReturnError(boom)

	_, err := repo.Stats(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}

func TestStatsForAllPropagatesQueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	boom := errors.New("disk I/O error")
	mock.ExpectQuery("").WillReturnError(boom)

	_, err := repo.StatsForAll(context.Background())
	assert.ErrorIs(t, err, boom)
}
