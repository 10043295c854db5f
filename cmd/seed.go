package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/catalog-backend/internal/app"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load categories and items from a YAML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			path := cfg.SeedFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no seed file given (argument or SEED_FILE)")
			}
			data, err := app.LoadSeedFile(path)
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), log, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := app.Seed(cmd.Context(), log, a.Services, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "categories=%d items=%d skipped=%d\n",
				res.CategoriesCreated, res.ItemsCreated, res.Skipped)
			return nil
		},
	}
}
