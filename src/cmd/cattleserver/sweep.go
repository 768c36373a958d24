package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geekskaran/Cattel-Backend/src/internal/cache"
	"github.com/geekskaran/Cattel-Backend/src/internal/config"
	"github.com/geekskaran/Cattel-Backend/src/internal/database"
	"github.com/geekskaran/Cattel-Backend/src/internal/identify"
	"github.com/geekskaran/Cattel-Backend/src/internal/identity"
	"github.com/geekskaran/Cattel-Backend/src/internal/notifications"
	"github.com/geekskaran/Cattel-Backend/src/internal/transfer"
	"github.com/geekskaran/Cattel-Backend/src/pkg/utils"
)

// sweepCmd expires stale identification and transfer requests once and
// exits. Intended to run from cron.
func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire stale identification and transfer requests",
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

			identityStore := identity.NewStore(db)
			notifier := notifications.NewService(db, identityStore, notifications.NewMailer(cfg), logger)

			ctx := cmd.Context()

			expiredIdent, err := identify.NewService(db, cfg, identityStore, notifier, cache.NewManager(cfg), logger).ExpireStale(ctx)
			if err != nil {
				return fmt.Errorf("expire identification requests: %w", err)
			}

			expiredTransfers, err := transfer.NewService(db, cfg, identityStore, notifier, logger).ExpireStale(ctx)
			if err != nil {
				return fmt.Errorf("expire transfer requests: %w", err)
			}

			fmt.Printf("Expired %d identification requests, %d transfer requests\n", expiredIdent, expiredTransfers)
			return nil
		},
	}
}
