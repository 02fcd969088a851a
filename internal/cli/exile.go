package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/warden/internal/wire"
)

// ExileCmd returns the exile command group.
func ExileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exile",
		Short: "Manage exiles",
		Long:  "Exile members, lift exiles, and inspect exile state.",
	}

	cmd.AddCommand(exileAddCmd())
	cmd.AddCommand(exileRemoveCmd())
	cmd.AddCommand(exileShowCmd())
	return cmd
}

// buildModerationBot assembles the bot for commands that mutate the
// guild over the REST API. No gateway connection is opened; module
// initialization resolves the configured roles.
func buildModerationBot(cmd *cobra.Command) (*wire.Bot, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	bot, err := wire.BuildBot(cfg, newLogger(cmd))
	if err != nil {
		return nil, err
	}
	bot.Dispatcher.Init(context.Background())
	return bot, nil
}

func exileAddCmd() *cobra.Command {
	var reason string
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "add [member-id]",
		Short: "Exile a member",
		Long: `Exile a member, confining them to the exile role set.

A duration of 0 exiles indefinitely; otherwise the member is readmitted
automatically once the duration elapses.

Examples:
  warden exile add 123456789 --reason "spamming"
  warden exile add 123456789 --reason "cooling off" --duration 24h`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bot, err := buildModerationBot(cmd)
			if err != nil {
				return err
			}
			defer bot.Close()

			if bot.Exile == nil {
				return fmt.Errorf("the exile module is not enabled")
			}
			if err := bot.Exile.Exile(context.Background(), args[0], reason, duration); err != nil {
				return err
			}
			fmt.Printf("Exiled %s.\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded with the exile")
	cmd.Flags().DurationVar(&duration, "duration", 0, "auto-readmit after this duration (0 = indefinite)")
	return cmd
}

func exileRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [member-id]",
		Short: "Lift an exile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bot, err := buildModerationBot(cmd)
			if err != nil {
				return err
			}
			defer bot.Close()

			if bot.Exile == nil {
				return fmt.Errorf("the exile module is not enabled")
			}
			if err := bot.Exile.Readmit(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Readmitted %s.\n", args[0])
			return nil
		},
	}
}

func exileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [member-id]",
		Short: "Show a member's exile state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bot, err := buildModerationBot(cmd)
			if err != nil {
				return err
			}
			defer bot.Close()

			if bot.Exile == nil {
				return fmt.Errorf("the exile module is not enabled")
			}
			since, found, err := bot.Exile.ExiledSince(context.Background(), args[0])
			if err != nil {
				return err
			}
			if !found {
				fmt.Printf("%s is not exiled.\n", args[0])
				return nil
			}
			fmt.Printf("%s has been exiled since %s.\n", args[0], since.Format(time.RFC1123))
			return nil
		},
	}
}
