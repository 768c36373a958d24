package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/geekskaran/Cattel-Backend/src/internal/config"
	"github.com/geekskaran/Cattel-Backend/src/internal/database"
	"github.com/geekskaran/Cattel-Backend/src/internal/server"
	"github.com/geekskaran/Cattel-Backend/src/pkg/utils"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := utils.NewLogger()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			db, err := database.Initialize(cfg)
			if err != nil {
				return fmt.Errorf("initialize database: %w", err)
			}
			defer func() {
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}
			}()

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("starting cattleserver", "version", Version)
			return server.New(cfg, db, logger).Start(ctx)
		},
	}
}
