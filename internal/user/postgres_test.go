package user

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPGWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

var userRowColumns = []string{"id", "username", "email", "password_hash", "profile_picture", "is_admin", "created_at", "updated_at"}

func TestPostgresCreate(t *testing.T) {
	s, mock := newPGWithMock(t)
	u := newUser("a@x.com")

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).
		WithArgs(u.ID, "amit", "a@x.com", "$2a$10$hash", u.ProfilePicture, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Create(context.Background(), u))
	assert.False(t, u.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateUniqueViolation(t *testing.T) {
	s, mock := newPGWithMock(t)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := s.Create(context.Background(), newUser("a@x.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestPostgresCreateDBError(t *testing.T) {
	s, mock := newPGWithMock(t)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	err := s.Create(context.Background(), newUser("a@x.com"))
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestPostgresFindByEmail(t *testing.T) {
	s, mock := newPGWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u-1", "amit", "a@x.com", "hash", "", true, now, now))

	got, err := s.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.True(t, got.IsAdmin)
}

func TestPostgresFindByIDNotFound(t *testing.T) {
	s, mock := newPGWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*WHERE\s+id\s*=\s*\$1$`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresUpdate(t *testing.T) {
	s, mock := newPGWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)^UPDATE\s+users\s+SET.*COALESCE.*RETURNING`).
		WithArgs("u-1", "amitkumar", nil, nil, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u-1", "amitkumar", "a@x.com", "hash", "", false, now, now))

	got, err := s.Update(context.Background(), "u-1", Update{Username: strPtr("amitkumar")})
	require.NoError(t, err)
	assert.Equal(t, "amitkumar", got.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateDuplicateEmail(t *testing.T) {
	s, mock := newPGWithMock(t)

	mock.ExpectQuery(`(?s)^UPDATE\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := s.Update(context.Background(), "u-1", Update{Email: strPtr("taken@x.com")})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestPostgresDelete(t *testing.T) {
	s, mock := newPGWithMock(t)

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+users`).
		WithArgs("u-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Delete(context.Background(), "u-1"))
	assert.ErrorIs(t, s.Delete(context.Background(), "u-2"), ErrNotFound)
}

func TestPostgresMalformedIDIsNotFound(t *testing.T) {
	s, mock := newPGWithMock(t)
	invalid := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "not-a-uuid"`}

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+users`).
		WithArgs("not-a-uuid").
		WillReturnError(invalid)
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*WHERE\s+id\s*=\s*\$1$`).
		WithArgs("not-a-uuid").
		WillReturnError(invalid)
	mock.ExpectQuery(`(?s)^UPDATE\s+users`).
		WillReturnError(invalid)

	ctx := context.Background()
	assert.ErrorIs(t, s.Delete(ctx, "not-a-uuid"), ErrNotFound)
	_, err := s.FindByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Update(ctx, "not-a-uuid", Update{Username: strPtr("amitkumar")})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
