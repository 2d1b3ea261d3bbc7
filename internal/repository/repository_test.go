package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexZx-05/Multiple-step-form/internal/entity"
)

func newMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepository(db), mock
}

func userRow(username string) *sqlmock.Rows {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "username", "password_hash", "profession", "company_name", "address_line1",
		"country", "state", "city", "subscription_plan", "newsletter", "profile_photo", "created_at", "updated_at",
	}).AddRow(7, username, "$2a$hash", "employee", "Acme", "1 Main St", "India", "Karnataka", "Bengaluru", "basic", true, "", now, now)
}

func TestGetUserByUsername(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = ?")).
		WithArgs("alice").
		WillReturnRows(userRow("alice"))

	user, err := repo.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)
	assert.Equal(t, "Acme", user.CompanyName)
	assert.True(t, user.Newsletter)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = ?")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsernameExists(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.UsernameExists(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateUser(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(12, 1))

	user, err := repo.CreateUser(context.Background(), &entity.User{Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 12, user.ID)
}

func TestCreateUser_Duplicate(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'bob' for key 'username_idx'"})

	_, err := repo.CreateUser(context.Background(), &entity.User{Username: "bob"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUpsertUser_ReturnsStoredRow(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE")).
		WithArgs("alice", "$2a$hash", "employee", "Acme", "1 Main St", "India", "Karnataka", "Bengaluru", "basic", true, "").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = ?")).
		WithArgs("alice").
		WillReturnRows(userRow("alice"))

	user, err := repo.UpsertUser(context.Background(), &entity.User{
		Username: "alice", PasswordHash: "$2a$hash", Profession: "employee", CompanyName: "Acme",
		AddressLine1: "1 Main St", Country: "India", State: "Karnataka", City: "Bengaluru",
		SubscriptionPlan: "basic", Newsletter: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
