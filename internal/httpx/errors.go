// Package httpx は gin 用の共通ミドルウェアとエラー応答を提供します。
package httpx

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nikhilkumar688/SamayBihar/internal/apperr"
)

// ErrorResponse はすべての失敗応答で共通のエンベロープです。
type ErrorResponse struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// Fail はエラーをコンテキストに積み、後続のハンドラーを中断します。
// 応答の書き込みは ErrorHandler が行います。
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler は c.Errors の最後のエラーをエンベロープに変換する唯一の境界です。
// 分類されていないエラーは500とし、原因はログにのみ出力します。
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := apperr.From(c.Errors.Last().Err)
		if appErr.Status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request.Context(), "request failed",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", appErr.Err,
			)
		}

		c.JSON(appErr.Status, ErrorResponse{
			Success:    false,
			StatusCode: appErr.Status,
			Message:    appErr.Message,
		})
	}
}

// Recovery は panic を500エラーとして ErrorHandler に渡します。
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		Fail(c, apperr.Internal(fmt.Errorf("panic: %v", recovered)))
	})
}
