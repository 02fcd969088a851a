package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/warden/internal/core/grant"
	"github.com/example/warden/internal/wire"
)

// WarnCmd returns the warn command group.
func WarnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warn",
		Short: "Manage warnings",
		Long:  "Warn members, remove warnings, and inspect warn counts.",
	}

	cmd.AddCommand(warnAddCmd())
	cmd.AddCommand(warnRemoveCmd())
	cmd.AddCommand(warnCountCmd())
	return cmd
}

func warnAddCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "add [member-id]",
		Short: "Warn a member",
		Long: `Record a warning and assign the next tier role.

When the member already holds the maximum tier, the configured overflow
action (ban) runs instead.

Examples:
  warden warn add 123456789 --reason "rule 3"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bot, err := buildModerationBot(cmd)
			if err != nil {
				return err
			}
			defer bot.Close()

			if bot.Warns == nil {
				return fmt.Errorf("the warns module is not enabled")
			}
			if err := bot.Warns.AddWarn(context.Background(), args[0], reason); err != nil {
				return err
			}
			count, err := bot.Warns.WarnCount(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Warned %s (%d active).\n", args[0], count)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded with the warning")
	return cmd
}

func warnRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [member-id]",
		Short: "Remove a member's oldest warning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bot, err := buildModerationBot(cmd)
			if err != nil {
				return err
			}
			defer bot.Close()

			if bot.Warns == nil {
				return fmt.Errorf("the warns module is not enabled")
			}
			if err := bot.Warns.RemoveWarn(context.Background(), args[0]); err != nil {
				return err
			}
			count, err := bot.Warns.WarnCount(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Removed a warning from %s (%d active).\n", args[0], count)
			return nil
		},
	}
}

func warnCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count [member-id]",
		Short: "Show a member's warn count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// Counting reads the local database only.
			store, database, err := wire.OpenStore(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			count, err := store.CountBySubject(context.Background(), grant.KindWarn, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s has %d active warnings.\n", args[0], count)
			return nil
		},
	}
}
