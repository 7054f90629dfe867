package main

import (
	"context"

	"github.com/spf13/cobra"

	"linkage/internal/platform/config"
	"linkage/internal/platform/logger"
	"linkage/internal/platform/migrate"
	"linkage/internal/platform/postgres"
	dErrors "linkage/pkg/domain-errors"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the relationship database schema",
	}
	cmd.AddCommand(
		migrateSubcommand("up", "Apply all pending migrations", (*migrate.Migrator).Up),
		migrateSubcommand("down", "Roll back the most recent migration", (*migrate.Migrator).Down),
		migrateSubcommand("status", "Show applied and pending migrations", (*migrate.Migrator).Status),
	)
	return cmd
}

func migrateSubcommand(use, short string, run func(*migrate.Migrator, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return dErrors.New(dErrors.CodeValidation, "DATABASE_URL is required for migrations").WithField("DATABASE_URL")
			}
			ctx := cmd.Context()
			db, err := postgres.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			return run(migrate.New(db, logger.New(cfg.LogLevel, cfg.LogFormat)), ctx)
		},
	}
}
