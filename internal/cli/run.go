package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/warden/internal/wire"
)

// RunCmd returns the run command.
func RunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot",
		Long: `Connect to Discord and run the enabled modules until interrupted.

Each module with expiring grants runs its own periodic sweeper. On
restart the sweepers pick up any grants that expired while the bot was
down.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cmd)

			bot, err := wire.BuildBot(cfg, log)
			if err != nil {
				return err
			}
			defer bot.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return bot.Run(ctx)
		},
	}
}
