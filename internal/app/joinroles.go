package app

import (
	"context"
	"fmt"

	"github.com/example/warden/internal/core/grant"
	"github.com/example/warden/internal/ports/secondary"
)

// JoinRoles grants a fixed role set to every member on join and keeps
// it until the member leaves. The grant never expires on its own, so
// this module has no sweeper.
type JoinRoles struct {
	engine
	roleIDs []string
}

// JoinRolesConfig configures the join-roles module.
type JoinRolesConfig struct {
	// RoleIDs are the roles granted on join.
	RoleIDs []string
}

// NewJoinRoles creates the join-roles module.
func NewJoinRoles(store secondary.GrantStore, dir secondary.Directory, mut secondary.RoleMutator, log secondary.Logger, cfg JoinRolesConfig) *JoinRoles {
	return &JoinRoles{
		engine:  newEngine(grant.KindJoinRole, store, dir, mut, log),
		roleIDs: cfg.RoleIDs,
	}
}

// Name identifies the module.
func (m *JoinRoles) Name() string { return "join-roles" }

// Init resolves the configured roles fail-soft.
func (m *JoinRoles) Init(ctx context.Context) error {
	m.resolveRoles(ctx, m.roleIDs)
	return nil
}

// MemberJoined records the grant and applies the roles. Duplicate
// delivery is absorbed by the conditional insert: the second call
// finds the record present and does nothing.
func (m *JoinRoles) MemberJoined(ctx context.Context, member *secondary.Member) error {
	if len(m.roles) == 0 {
		return nil
	}

	rec := grant.New(m.kind, member.ID, m.now()).WithRoles(m.roles)
	created, err := m.store.Insert(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to record join-role grant for [%s]: %w", member.ID, err)
	}
	if !created {
		m.log.Debug("%s: [%s] already granted", m.kind, member.ID)
		return nil
	}

	if err := m.mut.Grant(ctx, member.ID, m.roles); err != nil {
		return fmt.Errorf("failed to apply join roles to [%s]: %w", member.ID, err)
	}
	m.log.Info("%s: granted to [%s]", m.kind, member.ID)
	return nil
}

// MemberLeft deletes the bookkeeping row. Nothing is reapplied; the
// member took the roles with them.
func (m *JoinRoles) MemberLeft(ctx context.Context, member *secondary.Member) error {
	if _, err := m.store.DeleteBySubject(ctx, m.kind, member.ID); err != nil {
		return fmt.Errorf("failed to release join-role grant for [%s]: %w", member.ID, err)
	}
	return nil
}

// RolesChanged is not join-triggered; nothing to do.
func (m *JoinRoles) RolesChanged(ctx context.Context, member *secondary.Member, added []string) error {
	return nil
}
