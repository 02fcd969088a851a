package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/warden/internal/core/grant"
	"github.com/example/warden/internal/ports/primary"
	"github.com/example/warden/internal/ports/secondary"
)

// ErrAlreadyExiled is returned when exiling a subject that already has
// an active exile.
var ErrAlreadyExiled = errors.New("subject is already exiled")

// ErrNotExiled is returned when readmitting a subject with no active
// exile.
var ErrNotExiled = errors.New("subject is not exiled")

// Exile confines a subject to the exile role set on moderator action.
// With strip enabled the subject's full role set is snapshotted into
// the grant payload and restored exactly on readmission. The record
// survives departure: a subject that leaves and rejoins is re-exiled.
type Exile struct {
	engine
	roleIDs []string
	strip   bool
}

// ExileConfig configures the exile module.
type ExileConfig struct {
	// RoleIDs are the roles that mark an exiled member.
	RoleIDs []string

	// StripRoles replaces the member's whole role set with the
	// exile roles, snapshotting the prior set for readmission.
	StripRoles bool
}

// NewExile creates the exile module.
func NewExile(store secondary.GrantStore, dir secondary.Directory, mut secondary.RoleMutator, log secondary.Logger, cfg ExileConfig) *Exile {
	return &Exile{
		engine:  newEngine(grant.KindExile, store, dir, mut, log),
		roleIDs: cfg.RoleIDs,
		strip:   cfg.StripRoles,
	}
}

var _ primary.ExileService = (*Exile)(nil)

// Name identifies the module.
func (m *Exile) Name() string { return "exile" }

// Init resolves the configured roles fail-soft.
func (m *Exile) Init(ctx context.Context) error {
	m.resolveRoles(ctx, m.roleIDs)
	return nil
}

// Exile places the subject under the exile role set. A zero duration
// exiles until explicitly lifted; otherwise the sweeper readmits the
// subject once the duration elapses.
func (m *Exile) Exile(ctx context.Context, subjectID, reason string, d time.Duration) error {
	member, err := m.resolveSubject(ctx, subjectID)
	if err != nil {
		return err
	}

	rec := grant.New(m.kind, subjectID, m.now()).
		WithExpiry(d).
		WithReason(reason)
	if m.strip {
		rec.WithRoles(member.RoleIDs)
	}

	created, err := m.store.Insert(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to record exile for [%s]: %w", subjectID, err)
	}
	if !created {
		return fmt.Errorf("exile [%s]: %w", subjectID, ErrAlreadyExiled)
	}

	if err := m.applyExile(ctx, subjectID); err != nil {
		return err
	}
	m.log.Info("%s: [%s] exiled (%s)", m.kind, subjectID, reason)
	return nil
}

// Readmit lifts the exile. The snapshot taken at exile time is
// restored exactly; without a snapshot only the exile roles are
// removed.
func (m *Exile) Readmit(ctx context.Context, subjectID string) error {
	deleted, err := m.store.DeleteBySubject(ctx, m.kind, subjectID)
	if err != nil {
		return fmt.Errorf("failed to release exile for [%s]: %w", subjectID, err)
	}
	if len(deleted) == 0 {
		return fmt.Errorf("readmit [%s]: %w", subjectID, ErrNotExiled)
	}

	if err := m.restore(ctx, deleted[0]); err != nil {
		return err
	}
	m.log.Info("%s: [%s] readmitted", m.kind, subjectID)
	return nil
}

// ExiledSince reports when the subject's active exile began.
func (m *Exile) ExiledSince(ctx context.Context, subjectID string) (time.Time, bool, error) {
	since, found, err := m.store.OldestGrantedAt(ctx, m.kind, subjectID)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to look up exile for [%s]: %w", subjectID, err)
	}
	return since, found, nil
}

// MemberJoined reapplies the exile roles when an exiled subject
// rejoins: leaving and rejoining does not lift an exile.
func (m *Exile) MemberJoined(ctx context.Context, member *secondary.Member) error {
	count, err := m.store.CountBySubject(ctx, m.kind, member.ID)
	if err != nil {
		return fmt.Errorf("failed to check exile for [%s]: %w", member.ID, err)
	}
	if count == 0 {
		return nil
	}

	if err := m.applyExile(ctx, member.ID); err != nil {
		return err
	}
	m.log.Info("%s: [%s] rejoined while exiled, roles reapplied", m.kind, member.ID)
	return nil
}

// MemberLeft keeps the record; the exile outlives membership.
func (m *Exile) MemberLeft(ctx context.Context, member *secondary.Member) error {
	return nil
}

// RolesChanged is moderator-triggered; nothing to do.
func (m *Exile) RolesChanged(ctx context.Context, member *secondary.Member, added []string) error {
	return nil
}

// Revoke readmits the subject once a timed exile elapses.
func (m *Exile) Revoke(ctx context.Context, claimed grant.Claimed) error {
	if err := m.restore(ctx, claimed); err != nil {
		return err
	}
	m.log.Info("%s: timed exile elapsed for [%s]", m.kind, claimed.SubjectID)
	return nil
}

// applyExile puts the exile role set on the subject, replacing the
// whole set when strip is enabled.
func (m *Exile) applyExile(ctx context.Context, subjectID string) error {
	if m.strip {
		if err := m.mut.SetExact(ctx, subjectID, m.roles); err != nil {
			return fmt.Errorf("failed to strip roles of [%s]: %w", subjectID, err)
		}
		return nil
	}
	if err := m.mut.Grant(ctx, subjectID, m.roles); err != nil {
		return fmt.Errorf("failed to apply exile roles to [%s]: %w", subjectID, err)
	}
	return nil
}

// restore undoes an exile from its claimed record.
func (m *Exile) restore(ctx context.Context, claimed grant.Claimed) error {
	member, err := m.resolveSubject(ctx, claimed.SubjectID)
	if err != nil {
		return err
	}

	if claimed.Payload.Roles != nil {
		if err := m.mut.SetExact(ctx, member.ID, claimed.Payload.Roles); err != nil {
			return fmt.Errorf("failed to restore snapshot for [%s]: %w", member.ID, err)
		}
		return nil
	}
	if err := m.mut.Revoke(ctx, member.ID, m.roles); err != nil {
		return fmt.Errorf("failed to remove exile roles from [%s]: %w", member.ID, err)
	}
	return nil
}
