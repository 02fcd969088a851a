package app

import (
	"context"
	"fmt"

	"github.com/example/warden/internal/core/grant"
	"github.com/example/warden/internal/core/roleset"
	"github.com/example/warden/internal/ports/secondary"
)

// PersistentRoles snapshots a member's role set when they leave and
// restores it when they rejoin. The grant is keyed to absence from the
// group, not to time, so it never expires and has no sweeper.
type PersistentRoles struct {
	engine
	excludeIDs []string
}

// PersistentRolesConfig configures the persistent-roles module.
type PersistentRolesConfig struct {
	// ExcludeRoleIDs are never snapshotted: warn tier roles (the
	// warns module owns their lifecycle) and the guild's implicit
	// everyone role.
	ExcludeRoleIDs []string
}

// NewPersistentRoles creates the persistent-roles module.
func NewPersistentRoles(store secondary.GrantStore, dir secondary.Directory, mut secondary.RoleMutator, log secondary.Logger, cfg PersistentRolesConfig) *PersistentRoles {
	return &PersistentRoles{
		engine:     newEngine(grant.KindPersistentRole, store, dir, mut, log),
		excludeIDs: cfg.ExcludeRoleIDs,
	}
}

// Name identifies the module.
func (m *PersistentRoles) Name() string { return "persistent-roles" }

// Init has no roles to cache; the exclusion list is plain config.
func (m *PersistentRoles) Init(ctx context.Context) error {
	return nil
}

// MemberJoined restores the snapshot taken at departure, then drops
// the record. Roles deleted while the member was away are resolved
// fail-soft and skipped.
func (m *PersistentRoles) MemberJoined(ctx context.Context, member *secondary.Member) error {
	deleted, err := m.store.DeleteBySubject(ctx, m.kind, member.ID)
	if err != nil {
		return fmt.Errorf("failed to release persistent-role grant for [%s]: %w", member.ID, err)
	}
	if len(deleted) == 0 {
		return nil
	}

	restorable := m.resolveEach(ctx, deleted[0].Payload.Roles)
	if len(restorable) == 0 {
		m.log.Debug("%s: nothing restorable for [%s]", m.kind, member.ID)
		return nil
	}

	if err := m.mut.Grant(ctx, member.ID, restorable); err != nil {
		return fmt.Errorf("failed to restore roles to [%s]: %w", member.ID, err)
	}
	m.log.Info("%s: restored %d roles to [%s]", m.kind, len(restorable), member.ID)
	return nil
}

// MemberLeft snapshots the departing member's roles. Any stale record
// is deleted first so an older snapshot can never be resurrected over
// this one.
func (m *PersistentRoles) MemberLeft(ctx context.Context, member *secondary.Member) error {
	if _, err := m.store.DeleteBySubject(ctx, m.kind, member.ID); err != nil {
		return fmt.Errorf("failed to clear stale snapshot for [%s]: %w", member.ID, err)
	}

	snapshot := roleset.Exclude(member.RoleIDs, m.excludeIDs...)
	if len(snapshot) == 0 {
		m.log.Debug("%s: no roles to save for [%s]", m.kind, member.ID)
		return nil
	}

	rec := grant.New(m.kind, member.ID, m.now()).WithRoles(snapshot)
	if _, err := m.store.Insert(ctx, rec); err != nil {
		return fmt.Errorf("failed to save snapshot for [%s]: %w", member.ID, err)
	}
	m.log.Info("%s: saved %d roles for [%s]", m.kind, len(snapshot), member.ID)
	return nil
}

// RolesChanged is departure-triggered; nothing to do.
func (m *PersistentRoles) RolesChanged(ctx context.Context, member *secondary.Member, added []string) error {
	return nil
}
