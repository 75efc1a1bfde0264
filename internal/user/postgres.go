package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	// pgUniqueViolation は一意制約違反の SQLSTATE です。
	pgUniqueViolation = "23505"
	// pgInvalidText は UUID として解釈できない id を渡したときの SQLSTATE です。
	pgInvalidText = "22P02"
)

// DBTX は *sql.DB と *sql.Tx の双方が満たす最小限のインターフェースです。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore は PostgreSQL に users テーブルとして保存する Store です。
// メールアドレスの一意性は users_email_key インデックスが保証します。
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore は PostgresStore を作成します。
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, username, email, password_hash, profile_picture, is_admin, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, u *User) error {
	stamp(u, time.Now().UTC())

	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, u.ProfilePicture, u.IsAdmin, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, email))
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) Update(ctx context.Context, id string, upd Update) (*User, error) {
	query := `UPDATE users SET
			username = COALESCE($2, username),
			email = COALESCE($3, email),
			profile_picture = COALESCE($4, profile_picture),
			password_hash = COALESCE($5, password_hash),
			updated_at = $6
		WHERE id = $1
		RETURNING ` + userColumns

	row := s.db.QueryRowContext(ctx, query,
		id, upd.Username, upd.Email, upd.ProfilePicture, upd.PasswordHash, time.Now().UTC())
	u, err := s.scanOne(row)
	if err != nil && isUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	return u, err
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return ErrNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.ProfilePicture, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// isInvalidID は id が UUID 形式でないために失敗したかを返します。
// そのような id のユーザーは存在しないので、他のストアと同じく ErrNotFound として扱います。
func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidText
}
