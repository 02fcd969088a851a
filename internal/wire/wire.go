// Package wire assembles the bot from its configuration: database,
// store, Discord session, modules, dispatcher, and sweepers.
package wire

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/example/warden/internal/adapters/discord"
	"github.com/example/warden/internal/adapters/sqlite"
	"github.com/example/warden/internal/app"
	"github.com/example/warden/internal/config"
	"github.com/example/warden/internal/db"
	"github.com/example/warden/internal/ports/primary"
	"github.com/example/warden/internal/ports/secondary"
)

// Bot is the fully assembled application.
type Bot struct {
	Session    *discordgo.Session
	Store      secondary.GrantStore
	Dispatcher *app.Dispatcher
	Reconciler *app.Reconciler

	// Exile and Warns back the moderation commands; nil when the
	// module is disabled.
	Exile primary.ExileService
	Warns primary.WarnService

	sweepers []*app.Sweeper
	database *sql.DB
	log      secondary.Logger
}

// BuildBot wires the application from config. Disabled modules are not
// constructed; their stored grants stay dormant.
func BuildBot(cfg *config.Config, log secondary.Logger) (*Bot, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}

	session, err := discordgo.New("Bot " + cfg.Bot.Token)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	store := sqlite.NewGrantRepository(database)
	adapter := discord.NewAdapter(session, cfg.Bot.GuildID)

	bot := &Bot{
		Session:    session,
		Store:      store,
		Dispatcher: app.NewDispatcher(log),
		database:   database,
		log:        log,
	}
	bot.buildModules(cfg, store, adapter, log)

	bot.Reconciler = app.NewReconciler(bot.Dispatcher, log)
	discord.BindEvents(session, cfg.Bot.GuildID, bot.Reconciler)

	return bot, nil
}

func (b *Bot) buildModules(cfg *config.Config, store secondary.GrantStore, adapter *discord.Adapter, log secondary.Logger) {
	m := &cfg.Modules

	if m.JoinRoles.Enabled {
		b.Dispatcher.Register(app.NewJoinRoles(store, adapter, adapter, log, app.JoinRolesConfig{
			RoleIDs: m.JoinRoles.RoleIDs,
		}))
	}

	if m.TempRoles.Enabled {
		mod := app.NewTempRoles(store, adapter, adapter, log, app.TempRolesConfig{
			RoleIDs:  m.TempRoles.RoleIDs,
			Duration: m.TempRoles.Duration.Duration,
		})
		b.Dispatcher.Register(mod)
		b.sweepers = append(b.sweepers, app.NewSweeper(store, mod, m.TempRoles.CheckInterval.Duration, log))
	}

	if m.Exile.Enabled {
		mod := app.NewExile(store, adapter, adapter, log, app.ExileConfig{
			RoleIDs:    m.Exile.RoleIDs,
			StripRoles: m.Exile.StripRoles,
		})
		b.Dispatcher.Register(mod)
		b.sweepers = append(b.sweepers, app.NewSweeper(store, mod, m.Exile.CheckInterval.Duration, log))
		b.Exile = mod
	}

	if m.Warns.Enabled {
		mod := app.NewWarns(store, adapter, adapter, adapter, log, app.WarnsConfig{
			TierRoleIDs: m.Warns.TierRoleIDs,
			Expiry:      m.Warns.Expiry.Duration,
			BanOnLimit:  m.Warns.BanOnLimit,
			BanReason:   m.Warns.BanReason,
		})
		b.Dispatcher.Register(mod)
		if mod.CanExpire() {
			b.sweepers = append(b.sweepers, app.NewSweeper(store, mod, m.Warns.CheckInterval.Duration, log))
		}
		b.Warns = mod
	}

	if m.SwitchingRoles.Enabled {
		mod := app.NewSwitchingRoles(store, adapter, adapter, log, app.SwitchingRolesConfig{
			Roles:    m.SwitchingRoles.Roles,
			Duration: m.SwitchingRoles.Duration.Duration,
		})
		b.Dispatcher.Register(mod)
		b.sweepers = append(b.sweepers, app.NewSweeper(store, mod, m.SwitchingRoles.CheckInterval.Duration, log))
	}

	if m.PersistentRoles.Enabled {
		b.Dispatcher.Register(app.NewPersistentRoles(store, adapter, adapter, log, app.PersistentRolesConfig{
			ExcludeRoleIDs: persistentExcludeRoles(cfg),
		}))
	}
}

// persistentExcludeRoles builds the snapshot exclusion set: the
// operator's configured exclusions, every warn tier role (the warns
// module owns their lifecycle, so a snapshot must never resurrect
// them), and the guild's implicit everyone role (its ID equals the
// guild ID and it cannot be granted).
func persistentExcludeRoles(cfg *config.Config) []string {
	seen := make(map[string]struct{})
	var excludes []string
	add := func(ids ...string) {
		for _, id := range ids {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			excludes = append(excludes, id)
		}
	}

	add(cfg.Modules.PersistentRoles.ExcludeRoleIDs...)
	add(cfg.Modules.Warns.TierRoleIDs...)
	add(cfg.Bot.GuildID)
	return excludes
}

// Run connects to the gateway, initializes the modules, starts the
// sweepers, and blocks until the context is canceled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer b.Session.Close()

	b.Dispatcher.Init(ctx)
	b.log.Info("running with %d modules, %d sweepers", len(b.Dispatcher.Modules()), len(b.sweepers))

	for _, s := range b.sweepers {
		go s.Run(ctx)
	}

	<-ctx.Done()
	b.log.Info("shutting down")
	return nil
}

// Close releases the database handle.
func (b *Bot) Close() error {
	return b.database.Close()
}

// OpenStore opens the configured database for offline commands that
// only need the grant store.
func OpenStore(cfg *config.Config) (secondary.GrantStore, *sql.DB, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = db.DefaultPath()
		if err != nil {
			return nil, nil, err
		}
	}
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return sqlite.NewGrantRepository(database), database, nil
}
