package account

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/nikhilkumar688/SamayBihar/internal/auth"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// UpdateUserRequest は PUT /api/user/update/:userId のリクエストです。
// 空文字の項目は未指定として扱います。
type UpdateUserRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture"`
	Password       string `json:"password"`
}

// Validate は指定された項目だけを検証します。パスワード、ユーザー名の順に判定します。
func (r UpdateUserRequest) Validate() error {
	return auth.ValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Password,
			validation.Length(8, 0).Error("Password must be at least 8 characters"),
		),
		validation.Field(&r.Username,
			validation.Length(5, 20).Error("Username must be between 5 and 20 characters"),
			validation.By(noSpaces),
			validation.Match(usernamePattern).Error("Username can only contain letters and numbers"),
		),
	))
}

// Normalize は保存前にユーザー名を小文字化します。
func (r *UpdateUserRequest) Normalize() {
	r.Username = strings.ToLower(r.Username)
}

func noSpaces(value interface{}) error {
	s, _ := value.(string)
	if strings.Contains(s, " ") {
		return errors.New("Username cannot contain spaces")
	}
	return nil
}
