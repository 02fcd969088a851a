// Package discord implements the directory, role mutation, and
// moderation ports over the Discord API.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/example/warden/internal/ports/secondary"
)

// Adapter implements secondary.Directory, secondary.RoleMutator, and
// secondary.Moderator against one guild.
type Adapter struct {
	session *discordgo.Session
	guildID string
}

var (
	_ secondary.Directory   = (*Adapter)(nil)
	_ secondary.RoleMutator = (*Adapter)(nil)
	_ secondary.Moderator   = (*Adapter)(nil)
)

// NewAdapter creates an adapter bound to the guild.
func NewAdapter(session *discordgo.Session, guildID string) *Adapter {
	return &Adapter{session: session, guildID: guildID}
}

// ResolveMember fetches the member, returning secondary.ErrNotFound
// for members no longer in the guild.
func (a *Adapter) ResolveMember(ctx context.Context, id string) (*secondary.Member, error) {
	member, err := a.session.GuildMember(a.guildID, id, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("member %s: %w", id, secondary.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch member %s: %w", id, err)
	}
	return toMember(member), nil
}

// ResolveRole looks the role up in the guild's role list, returning
// secondary.ErrNotFound for deleted roles.
func (a *Adapter) ResolveRole(ctx context.Context, id string) (*secondary.Role, error) {
	roles, err := a.session.GuildRoles(a.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild roles: %w", err)
	}
	for _, role := range roles {
		if role.ID == id {
			return &secondary.Role{ID: role.ID, Name: role.Name}, nil
		}
	}
	return nil, fmt.Errorf("role %s: %w", id, secondary.ErrNotFound)
}

// Grant adds each role to the member.
func (a *Adapter) Grant(ctx context.Context, memberID string, roleIDs []string) error {
	for _, roleID := range roleIDs {
		if err := a.session.GuildMemberRoleAdd(a.guildID, memberID, roleID, discordgo.WithContext(ctx)); err != nil {
			if isNotFound(err) {
				return fmt.Errorf("grant role %s to %s: %w", roleID, memberID, secondary.ErrNotFound)
			}
			return fmt.Errorf("failed to grant role %s to %s: %w", roleID, memberID, err)
		}
	}
	return nil
}

// Revoke removes each role from the member.
func (a *Adapter) Revoke(ctx context.Context, memberID string, roleIDs []string) error {
	for _, roleID := range roleIDs {
		if err := a.session.GuildMemberRoleRemove(a.guildID, memberID, roleID, discordgo.WithContext(ctx)); err != nil {
			if isNotFound(err) {
				return fmt.Errorf("revoke role %s from %s: %w", roleID, memberID, secondary.ErrNotFound)
			}
			return fmt.Errorf("failed to revoke role %s from %s: %w", roleID, memberID, err)
		}
	}
	return nil
}

// SetExact replaces the member's whole role set in one call.
func (a *Adapter) SetExact(ctx context.Context, memberID string, roleIDs []string) error {
	if roleIDs == nil {
		roleIDs = []string{}
	}
	_, err := a.session.GuildMemberEdit(a.guildID, memberID,
		&discordgo.GuildMemberParams{Roles: &roleIDs},
		discordgo.WithContext(ctx),
	)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("set roles of %s: %w", memberID, secondary.ErrNotFound)
		}
		return fmt.Errorf("failed to set roles of %s: %w", memberID, err)
	}
	return nil
}

// Ban removes the member from the guild permanently.
func (a *Adapter) Ban(ctx context.Context, memberID, reason string) error {
	err := a.session.GuildBanCreateWithReason(a.guildID, memberID, reason, 0, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("ban %s: %w", memberID, secondary.ErrNotFound)
		}
		return fmt.Errorf("failed to ban %s: %w", memberID, err)
	}
	return nil
}

// toMember converts a Discord member into the port representation.
func toMember(m *discordgo.Member) *secondary.Member {
	member := &secondary.Member{
		RoleIDs: append([]string(nil), m.Roles...),
	}
	if m.User != nil {
		member.ID = m.User.ID
		member.Username = m.User.Username
	}
	return member
}

// isNotFound reports whether the API rejected the call because the
// target no longer exists.
func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}
