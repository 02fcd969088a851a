package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/example/warden/internal/app"
	"github.com/example/warden/internal/ports/secondary"
)

// BindEvents routes gateway member events for the guild into the
// reconciler. Discord delivers events at least once and in no
// guaranteed order; the reconciler and the store's conditional
// operations absorb that downstream.
func BindEvents(session *discordgo.Session, guildID string, reconciler *app.Reconciler) {
	session.Identify.Intents |= discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	session.AddHandler(func(s *discordgo.Session, e *discordgo.GuildMemberAdd) {
		if e.GuildID != guildID || e.Member == nil {
			return
		}
		reconciler.MemberJoined(context.Background(), toMember(e.Member))
	})

	session.AddHandler(func(s *discordgo.Session, e *discordgo.GuildMemberRemove) {
		if e.GuildID != guildID || e.Member == nil {
			return
		}
		reconciler.MemberLeft(context.Background(), toMember(e.Member))
	})

	session.AddHandler(func(s *discordgo.Session, e *discordgo.GuildMemberUpdate) {
		if e.GuildID != guildID || e.Member == nil {
			return
		}
		var before *secondary.Member
		if e.BeforeUpdate != nil {
			before = toMember(e.BeforeUpdate)
		}
		reconciler.MemberUpdated(context.Background(), before, toMember(e.Member))
	})
}
