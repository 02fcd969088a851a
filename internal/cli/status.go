package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/warden/internal/adapters/cli"
	"github.com/example/warden/internal/wire"
)

// StatusCmd returns the status command.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show active grant counts",
		Long:  "Show the number of active grants per kind from the local database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			store, database, err := wire.OpenStore(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			return cliadapter.NewStatusAdapter(store, os.Stdout).Show(context.Background())
		},
	}
}
