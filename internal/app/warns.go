package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/warden/internal/core/grant"
	"github.com/example/warden/internal/core/roleset"
	"github.com/example/warden/internal/ports/primary"
	"github.com/example/warden/internal/ports/secondary"
)

// ErrWarnLimit is returned when a warn would exceed the maximum tier
// and no overflow action is configured.
var ErrWarnLimit = errors.New("subject already holds the maximum warn tier")

// ErrNoWarns is returned when removing a warn from a subject that has
// none.
var ErrNoWarns = errors.New("subject has no warns")

// Warns tracks moderator warnings as append-only rows. The active warn
// count is derived by counting rows, never stored as a running total,
// so concurrent dispatch cannot lose updates. Each warn maps to one
// tier role; the count selects the tier. Beyond the last tier the
// overflow action (ban) runs instead.
type Warns struct {
	engine
	modr      secondary.Moderator
	tierIDs   []string
	expiry    time.Duration
	banOnMax  bool
	banReason string
}

// WarnsConfig configures the warns module.
type WarnsConfig struct {
	// TierRoleIDs are the tier roles in escalating order. Their
	// count is the maximum warn tier.
	TierRoleIDs []string

	// Expiry is how long a warn row lives. Zero disables expiry.
	Expiry time.Duration

	// BanOnLimit runs a ban instead of a tier when the subject
	// already holds the maximum.
	BanOnLimit bool

	// BanReason is attached to overflow bans.
	BanReason string
}

// NewWarns creates the warns module.
func NewWarns(store secondary.GrantStore, dir secondary.Directory, mut secondary.RoleMutator, modr secondary.Moderator, log secondary.Logger, cfg WarnsConfig) *Warns {
	return &Warns{
		engine:    newEngine(grant.KindWarn, store, dir, mut, log),
		modr:      modr,
		tierIDs:   cfg.TierRoleIDs,
		expiry:    cfg.Expiry,
		banOnMax:  cfg.BanOnLimit,
		banReason: cfg.BanReason,
	}
}

var _ primary.WarnService = (*Warns)(nil)

// Name identifies the module.
func (m *Warns) Name() string { return "warns" }

// Init resolves the tier roles fail-soft, preserving escalation order.
func (m *Warns) Init(ctx context.Context) error {
	m.resolveRoles(ctx, m.tierIDs)
	return nil
}

// CanExpire reports whether warn rows age out. The wire layer only
// attaches a sweeper when they do.
func (m *Warns) CanExpire() bool { return m.expiry > 0 }

// AddWarn appends a warn row and grants the tier role the new count
// selects. At the maximum tier no row is appended; the overflow action
// runs exactly once per overflowing call.
func (m *Warns) AddWarn(ctx context.Context, subjectID, reason string) error {
	member, err := m.resolveSubject(ctx, subjectID)
	if err != nil {
		return err
	}

	count, err := m.store.CountBySubject(ctx, m.kind, subjectID)
	if err != nil {
		return fmt.Errorf("failed to count warns for [%s]: %w", subjectID, err)
	}

	if count >= len(m.roles) {
		if !m.banOnMax {
			return fmt.Errorf("warn [%s]: %w", subjectID, ErrWarnLimit)
		}
		if err := m.modr.Ban(ctx, subjectID, m.banReason); err != nil {
			return fmt.Errorf("failed to ban [%s] on warn limit: %w", subjectID, err)
		}
		m.log.Info("%s: [%s] hit the warn limit and was banned", m.kind, subjectID)
		return nil
	}

	rec := grant.New(m.kind, subjectID, m.now()).
		WithExpiry(m.expiry).
		WithReason(reason)
	if err := m.store.Append(ctx, rec); err != nil {
		return fmt.Errorf("failed to record warn for [%s]: %w", subjectID, err)
	}

	tier := m.roles[count]
	if err := m.mut.Grant(ctx, member.ID, []string{tier}); err != nil {
		return fmt.Errorf("failed to apply warn tier to [%s]: %w", subjectID, err)
	}
	m.log.Info("%s: [%s] warned, tier %d of %d (%s)", m.kind, subjectID, count+1, len(m.roles), reason)
	return nil
}

// RemoveWarn deletes the oldest warn row and removes the highest tier
// role the subject currently holds.
func (m *Warns) RemoveWarn(ctx context.Context, subjectID string) error {
	deleted, err := m.store.DeleteOldest(ctx, m.kind, subjectID)
	if err != nil {
		return fmt.Errorf("failed to delete warn for [%s]: %w", subjectID, err)
	}
	if !deleted {
		return fmt.Errorf("remove warn [%s]: %w", subjectID, ErrNoWarns)
	}

	member, err := m.resolveSubject(ctx, subjectID)
	if err != nil {
		// The row is gone; a departed subject has no role to remove.
		if errors.Is(err, secondary.ErrNotFound) {
			return nil
		}
		return err
	}

	if tier, ok := m.highestHeldTier(member); ok {
		if err := m.mut.Revoke(ctx, member.ID, []string{tier}); err != nil {
			return fmt.Errorf("failed to remove warn tier from [%s]: %w", subjectID, err)
		}
	}
	m.log.Info("%s: removed a warn from [%s]", m.kind, subjectID)
	return nil
}

// WarnCount returns the subject's active warn count.
func (m *Warns) WarnCount(ctx context.Context, subjectID string) (int, error) {
	count, err := m.store.CountBySubject(ctx, m.kind, subjectID)
	if err != nil {
		return 0, fmt.Errorf("failed to count warns for [%s]: %w", subjectID, err)
	}
	return count, nil
}

// MemberJoined does nothing; warn rows persist across departure.
func (m *Warns) MemberJoined(ctx context.Context, member *secondary.Member) error {
	return nil
}

// MemberLeft keeps the rows; a rejoin resumes with the same count.
func (m *Warns) MemberLeft(ctx context.Context, member *secondary.Member) error {
	return nil
}

// RolesChanged is moderator-triggered; nothing to do.
func (m *Warns) RolesChanged(ctx context.Context, member *secondary.Member, added []string) error {
	return nil
}

// Revoke handles one expired warn row: the highest currently-held tier
// role comes off. Tier roles shift downward as warns expire, so the
// held set is consulted rather than the role recorded at warn time.
func (m *Warns) Revoke(ctx context.Context, claimed grant.Claimed) error {
	member, err := m.resolveSubject(ctx, claimed.SubjectID)
	if err != nil {
		return err
	}

	tier, ok := m.highestHeldTier(member)
	if !ok {
		m.log.Debug("%s: [%s] holds no tier role for the expired warn", m.kind, member.ID)
		return nil
	}
	if err := m.mut.Revoke(ctx, member.ID, []string{tier}); err != nil {
		return fmt.Errorf("failed to remove expired warn tier from [%s]: %w", member.ID, err)
	}
	m.log.Info("%s: warn expired for [%s]", m.kind, member.ID)
	return nil
}

// highestHeldTier returns the highest tier role the member holds.
func (m *Warns) highestHeldTier(member *secondary.Member) (string, bool) {
	for i := len(m.roles) - 1; i >= 0; i-- {
		if roleset.Contains(member.RoleIDs, m.roles[i]) {
			return m.roles[i], true
		}
	}
	return "", false
}
