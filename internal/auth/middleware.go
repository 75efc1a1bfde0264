package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nikhilkumar688/SamayBihar/internal/apperr"
	"github.com/nikhilkumar688/SamayBihar/internal/httpx"
)

// ContextIdentityKey は、検証済みの呼び出し元をハンドラー間で共有するためのキーです。
const ContextIdentityKey = "auth.identity"

var (
	// ErrNoToken はトークンが無いリクエストへの 401 です。
	ErrNoToken      = apperr.Authentication(http.StatusUnauthorized, "Unauthorized: No token provided")
	errInvalidToken = apperr.Authentication(http.StatusUnauthorized, "Unauthorized: Invalid token")
)

// RequireToken はアクセストークンを検証するミドルウェアを返します。
// クッキーを優先し、無ければ Authorization: Bearer を参照します。
// ユーザーストアは参照せず、トークンの内容を有効期限まで信頼します。
func (m *Manager) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.tokenFromRequest(c)
		if token == "" {
			httpx.Fail(c, ErrNoToken)
			return
		}

		identity, err := m.tokens.Verify(token)
		if err != nil {
			m.logger.WarnContext(c.Request.Context(), "token validation failed",
				"error", err,
				"path", c.Request.URL.Path,
			)
			httpx.Fail(c, errInvalidToken)
			return
		}

		c.Set(ContextIdentityKey, identity)
		c.Next()
	}
}

func (m *Manager) tokenFromRequest(c *gin.Context) string {
	if v, err := c.Cookie(m.cookie.Name); err == nil && v != "" {
		return v
	}
	return bearerToken(c.GetHeader("Authorization"))
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// IdentityFrom はミドルウェアが設定した呼び出し元を取り出します。
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ContextIdentityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}
