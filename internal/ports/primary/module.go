// Package primary defines the primary ports (driving interfaces) for the
// application: the lifecycle contract every bot module implements and the
// moderation operations exposed to callers.
package primary

import (
	"context"

	"github.com/example/warden/internal/ports/secondary"
)

// Module is the lifecycle contract implemented by every bot module.
// One method per lifecycle event; the dispatcher holds a list of this
// interface and calls each method directly. Handlers must tolerate
// duplicate and out-of-order delivery: creating a grant twice for the
// same subject is a no-op, releasing an absent grant is a no-op.
type Module interface {
	// Name identifies the module in logs and dispatch results.
	Name() string

	// Init resolves and caches the role sets the module manages.
	// Role IDs that no longer resolve are logged and skipped; stale
	// configuration must not prevent the module from running.
	Init(ctx context.Context) error

	// MemberJoined is called when a subject becomes eligible. Safe
	// to call twice for the same subject.
	MemberJoined(ctx context.Context, m *secondary.Member) error

	// MemberLeft is called when a subject stops being eligible. The
	// member carries the last-known role set, which may be empty.
	MemberLeft(ctx context.Context, m *secondary.Member) error

	// RolesChanged is called when a subject's role set changed
	// outside the engine's control. added holds only the newly
	// added role IDs; removals never trigger grants.
	RolesChanged(ctx context.Context, m *secondary.Member, added []string) error
}
