// Package database は PostgreSQL 接続とスキーママイグレーションを扱います。
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/nikhilkumar688/SamayBihar/internal/migrations"
)

// Open は pgx の database/sql ドライバーで接続し、疎通を確認します。
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrator は埋め込みマイグレーションを goose で適用します。
type Migrator struct {
	db  *sql.DB
	fs  fs.FS
	log *slog.Logger
}

// NewMigrator は Migrator を作成します。
func NewMigrator(db *sql.DB, log *slog.Logger) *Migrator {
	if log == nil {
		log = slog.Default()
	}
	return &Migrator{db: db, fs: migrations.FS, log: log}
}

// gooseUpContext はテスト用の差し替えポイントです。
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Up は未適用のマイグレーションをすべて適用します。
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.configure(); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	m.log.Info("applying migrations")
	if err := gooseUpContext(runCtx, m.db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	m.log.Info("migrations applied")
	return nil
}

// Status は適用済み・未適用のマイグレーションを出力します。
func (m *Migrator) Status(ctx context.Context) error {
	if err := m.configure(); err != nil {
		return err
	}
	if err := goose.StatusContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	return nil
}

func (m *Migrator) configure() error {
	goose.SetBaseFS(m.fs)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}
	return nil
}
