package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Duration wraps time.Duration so config files can say "24h" or "30m".
type Duration struct {
	time.Duration
}

// UnmarshalJSON accepts a Go duration string.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"24h\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("failed to parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalJSON writes the duration back as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Config is the full bot configuration.
type Config struct {
	Bot      BotConfig      `json:"bot"`
	Database DatabaseConfig `json:"database"`
	Modules  ModulesConfig  `json:"modules"`
}

// BotConfig holds platform connection settings.
type BotConfig struct {
	Token   string `json:"token"`
	GuildID string `json:"guild_id"`

	// ModeratorRoleIDs may invoke the moderation commands.
	ModeratorRoleIDs []string `json:"moderator_role_ids,omitempty"`
}

// DatabaseConfig holds storage settings.
type DatabaseConfig struct {
	// Path is the SQLite database file. Empty means the default
	// location under the user's home directory.
	Path string `json:"path,omitempty"`
}

// ModulesConfig enables and configures the grant-kind modules. A
// disabled module is never constructed; its stored grants stay dormant
// until it is enabled again.
type ModulesConfig struct {
	JoinRoles       JoinRolesConfig       `json:"join_roles"`
	TempRoles       TempRolesConfig       `json:"temp_roles"`
	Exile           ExileConfig           `json:"exile"`
	Warns           WarnsConfig           `json:"warns"`
	SwitchingRoles  SwitchingRolesConfig  `json:"switching_roles"`
	PersistentRoles PersistentRolesConfig `json:"persistent_roles"`
}

// JoinRolesConfig configures roles granted permanently on join.
type JoinRolesConfig struct {
	Enabled bool     `json:"enabled"`
	RoleIDs []string `json:"role_ids,omitempty"`
}

// TempRolesConfig configures roles granted on join for a window.
type TempRolesConfig struct {
	Enabled       bool     `json:"enabled"`
	RoleIDs       []string `json:"role_ids,omitempty"`
	Duration      Duration `json:"duration"`
	CheckInterval Duration `json:"check_interval"`
}

// ExileConfig configures the exile module.
type ExileConfig struct {
	Enabled       bool     `json:"enabled"`
	RoleIDs       []string `json:"role_ids,omitempty"`
	StripRoles    bool     `json:"strip_roles"`
	CheckInterval Duration `json:"check_interval"`
}

// WarnsConfig configures the warns module.
type WarnsConfig struct {
	Enabled       bool     `json:"enabled"`
	TierRoleIDs   []string `json:"tier_role_ids,omitempty"`
	Expiry        Duration `json:"expiry"`
	CheckInterval Duration `json:"check_interval"`
	BanOnLimit    bool     `json:"ban_on_limit"`
	BanReason     string   `json:"ban_reason,omitempty"`
}

// SwitchingRolesConfig configures tracked-role countdowns.
type SwitchingRolesConfig struct {
	Enabled bool `json:"enabled"`

	// Roles maps a tracked role ID to the follow-up role IDs.
	Roles         map[string][]string `json:"roles,omitempty"`
	Duration      Duration            `json:"duration"`
	CheckInterval Duration            `json:"check_interval"`
}

// PersistentRolesConfig configures departure snapshots.
type PersistentRolesConfig struct {
	Enabled bool `json:"enabled"`

	// ExcludeRoleIDs are extra roles to leave out of snapshots. The
	// warn tier roles and the guild's everyone role are always
	// excluded; they need not be listed here.
	ExcludeRoleIDs []string `json:"exclude_role_ids,omitempty"`
}

// defaultCheckInterval backs any expiring module whose config leaves
// the interval unset.
const defaultCheckInterval = time.Minute

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config file, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	for _, d := range []*Duration{
		&c.Modules.TempRoles.CheckInterval,
		&c.Modules.Exile.CheckInterval,
		&c.Modules.Warns.CheckInterval,
		&c.Modules.SwitchingRoles.CheckInterval,
	} {
		if d.Duration <= 0 {
			d.Duration = defaultCheckInterval
		}
	}
}

// Validate rejects configurations the bot cannot run with.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("bot.token is required")
	}
	if c.Bot.GuildID == "" {
		return fmt.Errorf("bot.guild_id is required")
	}

	m := &c.Modules
	if m.JoinRoles.Enabled && len(m.JoinRoles.RoleIDs) == 0 {
		return fmt.Errorf("modules.join_roles: role_ids is required when enabled")
	}
	if m.TempRoles.Enabled {
		if len(m.TempRoles.RoleIDs) == 0 {
			return fmt.Errorf("modules.temp_roles: role_ids is required when enabled")
		}
		if m.TempRoles.Duration.Duration <= 0 {
			return fmt.Errorf("modules.temp_roles: duration must be positive")
		}
	}
	if m.Exile.Enabled && len(m.Exile.RoleIDs) == 0 {
		return fmt.Errorf("modules.exile: role_ids is required when enabled")
	}
	if m.Warns.Enabled && len(m.Warns.TierRoleIDs) == 0 {
		return fmt.Errorf("modules.warns: tier_role_ids is required when enabled")
	}
	if m.SwitchingRoles.Enabled {
		if len(m.SwitchingRoles.Roles) == 0 {
			return fmt.Errorf("modules.switching_roles: roles is required when enabled")
		}
		if m.SwitchingRoles.Duration.Duration <= 0 {
			return fmt.Errorf("modules.switching_roles: duration must be positive")
		}
	}
	return nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".warden", "config.json"), nil
}
