package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/warden/internal/config"
	"github.com/example/warden/internal/db"
	"github.com/example/warden/internal/version"
)

// CheckResult is the outcome of one health check.
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // only shown when Status != "✓"
}

// DoctorCmd returns the doctor command.
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the warden environment",
		Long: `Health check for the warden installation.

Validates:
- Config file presence and validity
- Database file and schema
- Enabled module configuration

Examples:
  warden doctor           # Run full health check
  warden doctor --quiet   # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var results []CheckResult
			hasErrors := false

			cfg, result := checkConfig(cmd)
			results = append(results, result)
			if cfg != nil {
				results = append(results, checkDatabase(cfg))
				results = append(results, checkModules(cfg))
			}

			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
				}
			}

			if !quiet {
				fmt.Printf("warden %s\n\n", version.String())
				for _, r := range results {
					fmt.Printf("%s %s\n", r.Status, r.Name)
					if r.Status != "✓" && r.Details != "" {
						fmt.Printf("  %s\n", r.Details)
					}
				}
			}

			if hasErrors {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&quiet, "quiet", false, "exit code only")
	return cmd
}

func checkConfig(cmd *cobra.Command) (*config.Config, CheckResult) {
	path, _ := cmd.Flags().GetString(flagConfig)
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, CheckResult{Name: "config", Status: "✗", Details: err.Error()}
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, CheckResult{Name: "config", Status: "✗", Details: err.Error()}
	}
	return cfg, CheckResult{Name: fmt.Sprintf("config (%s)", path), Status: "✓"}
}

func checkDatabase(cfg *config.Config) CheckResult {
	path := cfg.Database.Path
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return CheckResult{Name: "database", Status: "✗", Details: err.Error()}
		}
	}

	database, err := db.Open(path)
	if err != nil {
		return CheckResult{Name: "database", Status: "✗", Details: err.Error()}
	}
	defer database.Close()

	var version int
	err = database.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return CheckResult{Name: "database", Status: "⚠", Details: "schema version unreadable: " + err.Error()}
	}
	return CheckResult{Name: fmt.Sprintf("database (%s, schema v%d)", path, version), Status: "✓"}
}

func checkModules(cfg *config.Config) CheckResult {
	enabled := 0
	m := &cfg.Modules
	for _, on := range []bool{
		m.JoinRoles.Enabled, m.TempRoles.Enabled, m.Exile.Enabled,
		m.Warns.Enabled, m.SwitchingRoles.Enabled, m.PersistentRoles.Enabled,
	} {
		if on {
			enabled++
		}
	}
	if enabled == 0 {
		return CheckResult{Name: "modules", Status: "⚠", Details: "no modules enabled; the bot will idle"}
	}
	return CheckResult{Name: fmt.Sprintf("modules (%d enabled)", enabled), Status: "✓"}
}
