package httpx

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/nikhilkumar688/SamayBihar/internal/apperr"
)

// ErrInvalidBody は JSON として解釈できないリクエストボディを表します。
var ErrInvalidBody = apperr.Validation("Request body must be valid JSON")

// BindJSON はボディを dst に読み込みます。
// 空ボディはエラーにせず、必須項目の検証に任せます。
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	return true
}
