package main

import (
	"context"
	"fmt"
	"time"

	"taste-match/internal/database"
	"taste-match/internal/database/migration"
	dbpostgres "taste-match/internal/database/postgres"
	"taste-match/internal/database/seeder"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), opts, func(ctx context.Context, db database.DB, log *zap.Logger) error {
				return migration.Embedded(log.Named("migration")).Run(ctx, db.SQLDB())
			})
		},
	}
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo diners",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), opts, func(ctx context.Context, db database.DB, log *zap.Logger) error {
				runner := seeder.Runner{Seeders: seeder.Defaults(), Logger: log.Named("seeder")}
				applied, err := runner.Run(ctx, db)
				if err != nil {
					return err
				}
				log.Info("seed completed", zap.Strings("seeders", applied), zap.Int("diners", len(seeder.DemoDiners)))
				return nil
			})
		},
	}
}

func withDB(parent context.Context, opts *rootOptions, fn func(ctx context.Context, db database.DB, log *zap.Logger) error) error {
	cfg, log, err := opts.setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	return fn(ctx, db, log)
}
