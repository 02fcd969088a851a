// Package cli implements the warden commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/warden/internal/adapters/cli"
	"github.com/example/warden/internal/config"
	"github.com/example/warden/internal/ports/secondary"
)

// Flag names shared by every command.
const (
	flagConfig  = "config"
	flagVerbose = "verbose"
)

// loadConfig resolves the --config flag (or the default path) and
// loads the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(flagConfig)
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return cfg, nil
}

// newLogger builds the logger honoring --verbose.
func newLogger(cmd *cobra.Command) secondary.Logger {
	verbose, _ := cmd.Flags().GetBool(flagVerbose)
	return cliadapter.NewColorLogger(os.Stderr, verbose)
}
