package cli

import (
	"github.com/spf13/cobra"

	"github.com/hubooks/reading-service/internal/database"
)

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the readers and sessions tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()
			err = database.Migrate(cmd.Context(), db)
			printResult(opts.out, err == nil, "migrate", []string{"driver=" + cfg.DBDriver}, err)
			return err
		},
	}
}
