package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/nikhilkumar688/SamayBihar/internal/config"
	"github.com/nikhilkumar688/SamayBihar/internal/database"
	"github.com/nikhilkumar688/SamayBihar/internal/user"
)

const storePingTimeout = 5 * time.Second

// storeHandle は選択したユーザーストアと、その接続を閉じる関数の組です。
type storeHandle struct {
	users user.Store
	close func() error
}

func (h *storeHandle) Close() {
	if h.close != nil {
		_ = h.close()
	}
}

// setupStore は STORE_DRIVER に応じてユーザーストアを初期化します。
func setupStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*storeHandle, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.MigrateOnStart {
			if err := database.NewMigrator(db, log).Up(ctx); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		log.Info("user store ready", "driver", cfg.StoreDriver)
		return &storeHandle{users: user.NewPostgresStore(db), close: db.Close}, nil

	case config.StoreRedis:
		rdb, err := openRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("user store ready", "driver", cfg.StoreDriver)
		return &storeHandle{users: user.NewRedisStore(rdb), close: rdb.Close}, nil

	default:
		log.Warn("using in-memory user store; data is lost on restart")
		return &storeHandle{users: user.NewMemoryStore()}, nil
	}
}

func openPostgres(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	pingCtx, cancel := context.WithTimeout(ctx, storePingTimeout)
	defer cancel()
	return database.Open(pingCtx, cfg.DatabaseURL)
}

func openRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, storePingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}
