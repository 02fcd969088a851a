package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/warden/internal/config"
)

// InitCmd returns the init command.
func InitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Write a starter config file with every module present but disabled.

Fill in the bot token, guild ID, and the role IDs for the modules you
want, then enable them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString(flagConfig)
			if path == "" {
				var err error
				path, err = config.DefaultPath()
				if err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := starterConfig()
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Printf("Wrote %s.\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}

func starterConfig() *config.Config {
	day := config.Duration{Duration: 24 * time.Hour}
	minute := config.Duration{Duration: time.Minute}
	return &config.Config{
		Bot: config.BotConfig{
			Token:   "your-bot-token",
			GuildID: "your-guild-id",
		},
		Modules: config.ModulesConfig{
			TempRoles:      config.TempRolesConfig{Duration: day, CheckInterval: minute},
			Exile:          config.ExileConfig{StripRoles: true, CheckInterval: minute},
			Warns:          config.WarnsConfig{Expiry: config.Duration{Duration: 30 * 24 * time.Hour}, CheckInterval: minute},
			SwitchingRoles: config.SwitchingRolesConfig{Duration: day, CheckInterval: minute},
		},
	}
}
