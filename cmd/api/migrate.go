package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikhilkumar688/SamayBihar/internal/config"
	"github.com/nikhilkumar688/SamayBihar/internal/database"
	"github.com/nikhilkumar688/SamayBihar/internal/logging"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), func(ctx context.Context, m *database.Migrator) error {
					return m.Up(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), func(ctx context.Context, m *database.Migrator) error {
					return m.Status(ctx)
				})
			},
		},
	)
	return cmd
}

func withMigrator(ctx context.Context, fn func(context.Context, *database.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logging.New(serviceName, logging.ParseLevel(cfg.LogLevel), os.Stderr)

	db, err := openPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, database.NewMigrator(db, log))
}
