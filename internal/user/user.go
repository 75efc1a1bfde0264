// Package user はユーザーレコードと、その永続化を担う Store を提供します。
package user

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound は該当するユーザーが存在しないことを表します。
	ErrNotFound = errors.New("user: not found")
	// ErrDuplicateEmail はメールアドレスの一意制約に違反したことを表します。
	ErrDuplicateEmail = errors.New("user: email already exists")
)

// User はユーザーレコードです。パスワードハッシュは JSON に含まれません。
type User struct {
	ID             string    `json:"_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	ProfilePicture string    `json:"profilePicture"`
	IsAdmin        bool      `json:"isAdmin"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Update は部分更新の内容です。nil のフィールドは変更しません。
// 管理者フラグはここからは変更できません。
type Update struct {
	Username       *string
	Email          *string
	ProfilePicture *string
	PasswordHash   *string
}

// Store はユーザーレコードの永続化層です。
//
// Create はメールアドレスの一意性をアトミックに保証し、重複時は ErrDuplicateEmail を返します。
// 存在しないレコードに対する操作は ErrNotFound を返します。形式として不正な id も同様です。
// FindByID はトークンに入っている id でレコードを引くための入口です。
// RedisStore.FindByEmail もインデックスから得た id でこれを経由します。
type Store interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, id string, upd Update) (*User, error)
	Delete(ctx context.Context, id string) error
}

func (u *User) apply(upd Update, now time.Time) {
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.ProfilePicture != nil {
		u.ProfilePicture = *upd.ProfilePicture
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	u.UpdatedAt = now
}

func stamp(u *User, now time.Time) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}
