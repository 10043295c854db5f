package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/catalog-backend/internal/app"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Catalog backend for items and categories",
		Long:          `Serves the item and category catalog over HTTP and pushes every change to connected WebSocket and SSE subscribers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "",
		"YAML config file; environment variables override it")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newSeedCmd(opts),
	)
	return cmd
}

// load resolves configuration and builds the logger for a subcommand.
func (o *rootOptions) load() (app.Config, *logger.Logger, error) {
	v, err := app.NewViper(o.configFile)
	if err != nil {
		return app.Config{}, nil, err
	}
	cfg, err := app.LoadConfig(v)
	if err != nil {
		return app.Config{}, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return app.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
