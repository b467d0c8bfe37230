package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func expectCreates(mock sqlmock.Sqlmock) {
	for _, table := range []string{"inventory", "customers", "orders", "order_items"} {
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS " + table + " (")).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
}

func TestMigrateFreshDatabaseSkipsExistingColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectCreates(mock)
	for _, col := range evolvedColumns {
		mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.COLUMNS")).
			WithArgs(col.Table, col.Name).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	}

	require.NoError(t, Migrate(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateAddsMissingColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectCreates(mock)
	for _, col := range evolvedColumns {
		present := 1
		if col.Name == "order_access_hash" || col.Name == "weight_grams" {
			present = 0
		}
		mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.COLUMNS")).
			WithArgs(col.Table, col.Name).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(present))
		if present == 0 {
			mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE " + col.Table + " ADD COLUMN " + col.Name + " " + col.Definition)).
				WillReturnResult(sqlmock.NewResult(0, 0))
		}
	}

	require.NoError(t, Migrate(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnCreateFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS inventory (")).
		WillReturnError(errors.New("access denied"))

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	require.Contains(t, err.Error(), "access denied")
	require.NoError(t, mock.ExpectationsWereMet())
}
