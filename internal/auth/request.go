package auth

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/nikhilkumar688/SamayBihar/internal/apperr"
)

const (
	msgAllFieldsRequired = "All fields are required"
	msgNameRequired      = "Name is required"
)

// SignupRequest は POST /api/auth/signup のリクエストです。
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate は必須項目がそろっているかを検証します。
func (r SignupRequest) Validate() error {
	return ValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error(msgAllFieldsRequired)),
		validation.Field(&r.Email, validation.Required.Error(msgAllFieldsRequired)),
		validation.Field(&r.Password, validation.Required.Error(msgAllFieldsRequired)),
	))
}

// SigninRequest は POST /api/auth/signin のリクエストです。
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate はリクエストを検証します。
func (r SigninRequest) Validate() error {
	return ValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error(msgAllFieldsRequired)),
		validation.Field(&r.Password, validation.Required.Error(msgAllFieldsRequired)),
	))
}

// GoogleRequest は POST /api/auth/google のリクエストです。
// 上流の IdP が検証済みの値として扱い、ここでは再検証しません。
// Name は新規作成時のみ必要なので、Service 側で確認します。
type GoogleRequest struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	ProfilePhotoURL string `json:"profilePhotoUrl"`
}

// Validate はメールアドレスの有無を検証します。
func (r GoogleRequest) Validate() error {
	return ValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("Email is required")),
	))
}

// ValidationError は ozzo-validation のエラーを apperr.Validation に変換します。
// 複数のフィールドが不正な場合はフィールド名順で最初のメッセージを使います。
func ValidationError(err error) error {
	if err == nil {
		return nil
	}

	var internal validation.InternalError
	if errors.As(err, &internal) {
		return apperr.Internal(err)
	}

	var fields validation.Errors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return apperr.Validation(err.Error())
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return apperr.Validation(fields[keys[0]].Error())
}
