// Package auth は認証・認可機能を提供します。
package auth

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nikhilkumar688/SamayBihar/internal/apperr"
	"github.com/nikhilkumar688/SamayBihar/internal/httpx"
	"github.com/nikhilkumar688/SamayBihar/internal/metrics"
)

// CookieName はアクセストークンを保持するクッキー名です。
const CookieName = "access_token"

// CookieOptions はセッションクッキーの属性です。
type CookieOptions struct {
	Name   string
	MaxAge int  // 秒
	Secure bool // 本番環境のみ true
}

// Manager は認証系ハンドラーとトークン検証ミドルウェアをまとめた構造体です。
type Manager struct {
	svc     *Service
	tokens  *TokenIssuer
	cookie  CookieOptions
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewManager は認証マネージャーを作成します。
func NewManager(svc *Service, tokens *TokenIssuer, cookie CookieOptions, m *metrics.Metrics, logger *slog.Logger) *Manager {
	if cookie.Name == "" {
		cookie.Name = CookieName
	}
	if cookie.MaxAge <= 0 {
		cookie.MaxAge = int(tokens.TTL().Seconds())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		svc:     svc,
		tokens:  tokens,
		cookie:  cookie,
		metrics: m,
		logger:  logger,
	}
}

// SetSessionCookie は HttpOnly / SameSite=Lax のアクセストークンクッキーを設定します。
func (m *Manager) SetSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, token, m.cookie.MaxAge, "/", "", m.cookie.Secure, true)
}

// ClearSessionCookie はアクセストークンクッキーを失効させます。
func (m *Manager) ClearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, "", -1, "/", "", m.cookie.Secure, true)
}

func (m *Manager) fail(c *gin.Context, flow string, err error) {
	m.metrics.ObserveAuth(flow, outcome(err))
	httpx.Fail(c, err)
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	switch apperr.From(err).Kind {
	case apperr.KindValidation:
		return "invalid"
	case apperr.KindConflict:
		return "conflict"
	case apperr.KindNotFound:
		return "not_found"
	case apperr.KindAuthentication:
		return "rejected"
	default:
		return "error"
	}
}
