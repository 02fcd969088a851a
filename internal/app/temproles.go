package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/warden/internal/core/grant"
	"github.com/example/warden/internal/ports/secondary"
)

// TempRoles grants a fixed role set on join for a limited window. The
// sweeper removes the roles once the window elapses; leaving early
// just drops the bookkeeping row.
type TempRoles struct {
	engine
	roleIDs  []string
	duration time.Duration
}

// TempRolesConfig configures the temp-roles module.
type TempRolesConfig struct {
	// RoleIDs are the roles granted on join.
	RoleIDs []string

	// Duration is how long the roles stay on the member.
	Duration time.Duration
}

// NewTempRoles creates the temp-roles module.
func NewTempRoles(store secondary.GrantStore, dir secondary.Directory, mut secondary.RoleMutator, log secondary.Logger, cfg TempRolesConfig) *TempRoles {
	return &TempRoles{
		engine:   newEngine(grant.KindTempRole, store, dir, mut, log),
		roleIDs:  cfg.RoleIDs,
		duration: cfg.Duration,
	}
}

// Name identifies the module.
func (m *TempRoles) Name() string { return "temp-roles" }

// Init resolves the configured roles fail-soft.
func (m *TempRoles) Init(ctx context.Context) error {
	m.resolveRoles(ctx, m.roleIDs)
	return nil
}

// MemberJoined records a time-bounded grant and applies the roles.
// Idempotent under duplicate delivery.
func (m *TempRoles) MemberJoined(ctx context.Context, member *secondary.Member) error {
	if len(m.roles) == 0 {
		return nil
	}

	rec := grant.New(m.kind, member.ID, m.now()).
		WithExpiry(m.duration).
		WithRoles(m.roles)
	created, err := m.store.Insert(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to record temp-role grant for [%s]: %w", member.ID, err)
	}
	if !created {
		m.log.Debug("%s: [%s] already granted", m.kind, member.ID)
		return nil
	}

	if err := m.mut.Grant(ctx, member.ID, m.roles); err != nil {
		return fmt.Errorf("failed to apply temp roles to [%s]: %w", member.ID, err)
	}
	m.log.Info("%s: granted to [%s] for %s", m.kind, member.ID, m.duration)
	return nil
}

// MemberLeft deletes the bookkeeping row without reapplying anything.
func (m *TempRoles) MemberLeft(ctx context.Context, member *secondary.Member) error {
	if _, err := m.store.DeleteBySubject(ctx, m.kind, member.ID); err != nil {
		return fmt.Errorf("failed to release temp-role grant for [%s]: %w", member.ID, err)
	}
	return nil
}

// RolesChanged is not join-triggered; nothing to do.
func (m *TempRoles) RolesChanged(ctx context.Context, member *secondary.Member, added []string) error {
	return nil
}

// Revoke removes the granted roles once the window has elapsed. The
// roles recorded in the payload are removed, not the currently
// configured set, so configuration changes do not strand old grants.
func (m *TempRoles) Revoke(ctx context.Context, claimed grant.Claimed) error {
	member, err := m.resolveSubject(ctx, claimed.SubjectID)
	if err != nil {
		return err
	}

	roles := claimed.Payload.Roles
	if len(roles) == 0 {
		roles = m.roles
	}
	if err := m.mut.Revoke(ctx, member.ID, roles); err != nil {
		return fmt.Errorf("failed to remove temp roles from [%s]: %w", member.ID, err)
	}
	m.log.Info("%s: expired for [%s]", m.kind, member.ID)
	return nil
}
