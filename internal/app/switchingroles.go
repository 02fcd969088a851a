package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/warden/internal/core/grant"
	"github.com/example/warden/internal/ports/secondary"
)

// SwitchingRoles watches for tracked roles appearing on members. Each
// newly added tracked role starts its own countdown; when it elapses
// the tracked role comes off and the configured follow-up roles go on.
// Grants are keyed by the tracked role ID, so one member can run
// several countdowns independently.
type SwitchingRoles struct {
	engine
	mapping  map[string][]string
	duration time.Duration

	// after maps each tracked role that resolved at Init to its
	// resolved follow-up roles.
	after map[string][]string
}

// SwitchingRolesConfig configures the switching-roles module.
type SwitchingRolesConfig struct {
	// Roles maps a tracked role ID to the follow-up role IDs
	// granted once the countdown elapses.
	Roles map[string][]string

	// Duration is the countdown applied to every tracked role.
	Duration time.Duration
}

// NewSwitchingRoles creates the switching-roles module.
func NewSwitchingRoles(store secondary.GrantStore, dir secondary.Directory, mut secondary.RoleMutator, log secondary.Logger, cfg SwitchingRolesConfig) *SwitchingRoles {
	return &SwitchingRoles{
		engine:   newEngine(grant.KindSwitchingRole, store, dir, mut, log),
		mapping:  cfg.Roles,
		duration: cfg.Duration,
	}
}

// Name identifies the module.
func (m *SwitchingRoles) Name() string { return "switching-roles" }

// Init resolves every tracked role and its follow-up roles fail-soft.
// A tracked role that no longer exists drops out of the watch set.
func (m *SwitchingRoles) Init(ctx context.Context) error {
	m.after = make(map[string][]string, len(m.mapping))
	for trackedID, afterIDs := range m.mapping {
		if _, err := m.dir.ResolveRole(ctx, trackedID); err != nil {
			m.log.Error("%s: failed to resolve tracked role [%s], skipping: %v", m.kind, trackedID, err)
			continue
		}
		m.after[trackedID] = m.resolveEach(ctx, afterIDs)
	}
	return nil
}

// RolesChanged starts a countdown for every tracked role in the added
// set. Duplicate delivery of the same change is absorbed by the
// conditional insert keyed on the tracked role.
func (m *SwitchingRoles) RolesChanged(ctx context.Context, member *secondary.Member, added []string) error {
	for _, roleID := range added {
		if _, tracked := m.after[roleID]; !tracked {
			continue
		}

		rec := grant.New(m.kind, member.ID, m.now()).
			WithKey(roleID).
			WithExpiry(m.duration).
			WithRoles([]string{roleID})
		created, err := m.store.Insert(ctx, rec)
		if err != nil {
			return fmt.Errorf("failed to record switching-role grant for [%s]: %w", member.ID, err)
		}
		if created {
			m.log.Info("%s: [%s] received tracked role [%s]", m.kind, member.ID, roleID)
		}
	}
	return nil
}

// MemberJoined is change-triggered; nothing to do.
func (m *SwitchingRoles) MemberJoined(ctx context.Context, member *secondary.Member) error {
	return nil
}

// MemberLeft drops any pending countdowns for the subject.
func (m *SwitchingRoles) MemberLeft(ctx context.Context, member *secondary.Member) error {
	if _, err := m.store.DeleteBySubject(ctx, m.kind, member.ID); err != nil {
		return fmt.Errorf("failed to release switching-role grants for [%s]: %w", member.ID, err)
	}
	return nil
}

// Revoke swaps the elapsed tracked role for its follow-up set.
func (m *SwitchingRoles) Revoke(ctx context.Context, claimed grant.Claimed) error {
	member, err := m.resolveSubject(ctx, claimed.SubjectID)
	if err != nil {
		return err
	}

	trackedID := claimed.Key
	if err := m.mut.Revoke(ctx, member.ID, []string{trackedID}); err != nil {
		return fmt.Errorf("failed to remove tracked role from [%s]: %w", member.ID, err)
	}
	if after := m.after[trackedID]; len(after) > 0 {
		if err := m.mut.Grant(ctx, member.ID, after); err != nil {
			return fmt.Errorf("failed to apply follow-up roles to [%s]: %w", member.ID, err)
		}
	}
	m.log.Info("%s: switched [%s] off tracked role [%s]", m.kind, member.ID, trackedID)
	return nil
}
