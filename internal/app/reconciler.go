package app

import (
	"context"

	"github.com/example/warden/internal/core/roleset"
	"github.com/example/warden/internal/ports/secondary"
)

// Reconciler sits between the platform event source and the
// dispatcher. It normalizes at-least-once, unordered event delivery:
// duplicate joins and leaves are absorbed by the store's conditional
// operations downstream, and role-change events are reduced to the
// added-only diff before any module sees them.
type Reconciler struct {
	dispatcher *Dispatcher
	log        secondary.Logger
}

// NewReconciler creates a reconciler routing into the dispatcher.
func NewReconciler(dispatcher *Dispatcher, log secondary.Logger) *Reconciler {
	return &Reconciler{dispatcher: dispatcher, log: log}
}

// MemberJoined handles a subject becoming eligible.
func (r *Reconciler) MemberJoined(ctx context.Context, m *secondary.Member) {
	r.log.Info("member [%s] joined", m.ID)
	r.dispatcher.MemberJoined(ctx, m)
}

// MemberLeft handles a subject leaving. The member record carries the
// last-known role set; modules that snapshot on departure read it
// before it becomes unobservable.
func (r *Reconciler) MemberLeft(ctx context.Context, m *secondary.Member) {
	r.log.Info("member [%s] left", m.ID)
	r.dispatcher.MemberLeft(ctx, m)
}

// MemberUpdated handles a subject's role set changing outside the
// engine's control. Size-unchanged updates short-circuit without
// computing a diff; only added roles are forwarded, removals never
// trigger grants.
func (r *Reconciler) MemberUpdated(ctx context.Context, before, after *secondary.Member) {
	if before == nil {
		// The platform did not deliver the prior state; without a
		// before set there is no diff to act on.
		return
	}
	if len(before.RoleIDs) == len(after.RoleIDs) {
		return
	}

	added := roleset.Added(before.RoleIDs, after.RoleIDs)
	if len(added) == 0 {
		return
	}

	r.log.Debug("member [%s] gained roles %v", after.ID, added)
	r.dispatcher.RolesChanged(ctx, after, added)
}
