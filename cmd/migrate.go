package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/catalog-backend/internal/data/db"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the catalog tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			dbs, err := db.NewService(log, cfg.DB)
			if err != nil {
				return err
			}
			defer dbs.Close()

			if err := dbs.AutoMigrateAll(); err != nil {
				return fmt.Errorf("automigrate: %w", err)
			}
			log.Info("Migration complete", "driver", dbs.Driver())
			return nil
		},
	}
}
