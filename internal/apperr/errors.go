// Package apperr はAPI全体で共有するエラー分類を提供します。
//
// ハンドラーやサービスは *Error を返し、HTTP 境界（httpx.ErrorHandler）が
// ステータスコードとメッセージを共通のJSONエンベロープに変換します。
package apperr

import (
	"errors"
	"net/http"
)

// Kind はエラーの分類です。
type Kind string

const (
	KindValidation     Kind = "VALIDATION_ERROR"
	KindConflict       Kind = "CONFLICT"
	KindNotFound       Kind = "NOT_FOUND"
	KindAuthentication Kind = "AUTHENTICATION_ERROR"
	KindAuthorization  Kind = "AUTHORIZATION_ERROR"
	KindInternal       Kind = "INTERNAL_ERROR"
)

// InternalMessage はクライアントに返す汎用の500メッセージです。
const InternalMessage = "Internal Server Error"

// Error はクライアントに返却できるエラーを表します。
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation は入力不備（400）を表します。
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: message}
}

// Conflict は一意制約違反（400）を表します。
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Status: http.StatusBadRequest, Message: message}
}

// NotFound は対象が存在しないこと（404）を表します。
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: message}
}

// Authentication は認証失敗を表します。資格情報の誤りは400、トークン不備は401です。
func Authentication(status int, message string) *Error {
	return &Error{Kind: KindAuthentication, Status: status, Message: message}
}

// Authorization は権限不足（403）を表します。
func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Status: http.StatusForbidden, Message: message}
}

// Internal は想定外の失敗を包みます。原因はログにのみ出力されます。
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: InternalMessage, Err: err}
}

// From は任意のエラーを *Error に変換します。分類されていないものは Internal 扱いです。
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// IsKind は err が指定した分類かどうかを返します。
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
