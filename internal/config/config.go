// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ストアの種類
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// EnvProduction は本番環境を表す APP_ENV の値です。
const EnvProduction = "production"

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	AppEnv  string // 実行環境 (development, production)
	GinMode string // Ginの実行モード (debug, release, test)

	// 認証設定
	JWTSecret  string        // アクセストークン署名用の秘密鍵
	TokenTTL   time.Duration // トークンとクッキーの有効期限
	BcryptCost int           // パスワードハッシュのコスト

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// ストア設定
	StoreDriver    string // memory, postgres, redis
	DatabaseURL    string // PostgreSQL接続URL
	RedisURL       string // Redis接続URL
	MigrateOnStart bool   // 起動時にマイグレーションを適用するか

	// ユーザー設定
	DefaultProfilePicture string // プロフィール画像の既定URL

	// ログ設定
	LogLevel string
}

// Load は環境変数から設定を読み込みます。
// .env.local / .env ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:    getEnv("PORT", "5000"),
		AppEnv:  getEnv("APP_ENV", "development"),
		GinMode: getEnv("GIN_MODE", "debug"),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		TokenTTL:   time.Duration(getEnvAsInt("TOKEN_TTL_HOURS", 7*24)) * time.Hour,
		BcryptCost: getEnvAsInt("BCRYPT_COST", 10),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://samaybihar.vercel.app"),

		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		MigrateOnStart: getEnvAsBool("MIGRATE_ON_START", true),

		DefaultProfilePicture: getEnv("DEFAULT_PROFILE_PICTURE", "https://cdn-icons-png.flaticon.com/512/149/149071.png"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err == nil {
			continue
		}

		cwd, err := os.Getwd()
		if err != nil {
			continue
		}
		parent := filepath.Dir(cwd)
		if parent == "" || parent == cwd {
			continue
		}
		_ = godotenv.Load(filepath.Join(parent, name))
	}
}

// Validate は設定の妥当性を検証します。
// 署名鍵が無い状態ではトークンを発行できないため、常に必須です。
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL_HOURS must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31 (got %d)", c.BcryptCost)
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_DRIVER=redis")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	return nil
}

// IsProduction は本番環境かどうかを返します。Secure クッキーの判定に使います。
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// AllowedOrigins は CORS 許可オリジンを末尾スラッシュを除いた配列で返します。
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します。
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
