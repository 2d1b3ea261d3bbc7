package migrations

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	createUsers   = regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")
	alterUsername = regexp.QuoteMeta("ALTER TABLE users MODIFY username VARCHAR(64) COLLATE utf8mb4_bin NOT NULL")
)

func TestAutoMigrateUsers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(createUsers).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(alterUsername).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, AutoMigrateUsers(3, db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoMigrateUsers_UsernameIsCaseSensitive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`(?s)` + createUsers + `.*` + regexp.QuoteMeta("username VARCHAR(64) COLLATE utf8mb4_bin NOT NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(alterUsername).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, AutoMigrateUsers(0, db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoMigrateUsers_RetriesThenFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("db not ready")
	mock.ExpectExec(createUsers).WillReturnError(boom)
	mock.ExpectExec(createUsers).WillReturnError(boom)

	assert.ErrorIs(t, AutoMigrateUsers(1, db), boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
