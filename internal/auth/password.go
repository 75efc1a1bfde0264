package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost はパスワードハッシュの既定コストです。
const DefaultBcryptCost = 10

var (
	// ErrPasswordMismatch はパスワードがハッシュと一致しないことを表します。
	ErrPasswordMismatch = errors.New("auth: password mismatch")
	// ErrPasswordTooLong は bcrypt の入力上限（72バイト）を超えたことを表します。
	ErrPasswordTooLong = errors.New("auth: password too long")
)

// PasswordHasher は bcrypt によるソルト付きハッシュと比較を行います。
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher は PasswordHasher を作成します。範囲外のコストは既定値に置き換えます。
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash は平文パスワードのハッシュを返します。
func (h *PasswordHasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(hash), nil
}

// Compare は平文がハッシュと一致するかを検証します。比較は定数時間で行われます。
func (h *PasswordHasher) Compare(hash, plain string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return err
	}
	return nil
}
