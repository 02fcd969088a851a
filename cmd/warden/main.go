package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/warden/internal/cli"
	"github.com/example/warden/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "warden",
		Short:   "Warden - time-bounded role and moderation bot",
		Version: version.String(),
		Long: `Warden manages time-bounded role grants for a Discord guild:
join roles, temporary roles, exiles, warnings, switching roles, and
persistent roles. Every grant is recorded before it is applied, so a
restart never loses a pending expiry.`,
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default ~/.warden/config.json)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.ExileCmd())
	rootCmd.AddCommand(cli.WarnCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
