package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/hubooks/reading-service/internal/config"
)

type options struct {
	envFile string
	out     io.Writer
}

func (o *options) loadConfig() (*config.Config, error) {
	return config.LoadFile(o.envFile)
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "readingsvc",
		Short:         "Reading progress service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.out = cmd.OutOrStdout()
		},
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "optional dotenv file; process environment wins")
	cmd.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newReaderCommand(opts),
		newHealthCommand(opts),
	)
	return cmd
}
