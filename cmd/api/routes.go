package main

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nikhilkumar688/SamayBihar/internal/account"
	"github.com/nikhilkumar688/SamayBihar/internal/auth"
	"github.com/nikhilkumar688/SamayBihar/internal/config"
	"github.com/nikhilkumar688/SamayBihar/internal/httpx"
	"github.com/nikhilkumar688/SamayBihar/internal/metrics"
	"github.com/nikhilkumar688/SamayBihar/internal/user"
)

// newRouter はミドルウェアとルーティングを設定した gin エンジンを返します。
func newRouter(cfg *config.Config, log *slog.Logger, users user.Store, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(
		httpx.RequestLogger(log),
		m.Middleware(),
		newCORS(cfg),
		httpx.ErrorHandler(log),
		httpx.Recovery(),
	)

	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	svc := auth.NewService(users, hasher, tokens, auth.ServiceOptions{
		DefaultProfilePicture: cfg.DefaultProfilePicture,
		Logger:                log,
	})
	authManager := auth.NewManager(svc, tokens, auth.CookieOptions{
		Name:   auth.CookieName,
		MaxAge: int(cfg.TokenTTL.Seconds()),
		Secure: cfg.IsProduction(),
	}, m, log)
	accounts := account.NewHandler(users, hasher, authManager, log)

	router.GET("/health", handleHealth)
	router.GET("/metrics", m.Handler())

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/signup", authManager.Signup)
			authRoutes.POST("/signin", authManager.Signin)
			authRoutes.POST("/google", authManager.Google)
		}

		userRoutes := api.Group("/user")
		{
			// サインアウトはクッキーを消すだけなのでトークン不要
			userRoutes.POST("/signout", authManager.Signout)
			userRoutes.PUT("/update/:userId", authManager.RequireToken(), accounts.Update)
			userRoutes.DELETE("/delete/:userId", authManager.RequireToken(), accounts.Delete)
		}
	}

	return router
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": serviceName,
		"version": version,
	})
}

// newCORS は許可オリジンを末尾スラッシュの有無を無視して照合する CORS ミドルウェアを返します。
func newCORS(cfg *config.Config) gin.HandlerFunc {
	allowed := cfg.AllowedOrigins()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOriginFunc = func(origin string) bool {
		return slices.Contains(allowed, strings.TrimRight(origin, "/"))
	}
	corsConfig.AllowMethods = []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
	}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization",
	}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	return cors.New(corsConfig)
}
