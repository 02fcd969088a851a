package secondary

import (
	"context"
	"errors"
)

// ErrNotFound is returned by directory lookups when the member or role
// no longer exists on the platform. Callers treat it as skip-and-log,
// never as fatal: a departed member makes the pending mutation moot.
var ErrNotFound = errors.New("not found")

// Member is a resolved membership record.
type Member struct {
	ID       string
	Username string
	// RoleIDs is the member's current role set. On departure events
	// it carries the last-known set, which may be empty when the
	// platform delivered a partial record.
	RoleIDs []string
}

// Role is a resolved privilege record.
type Role struct {
	ID   string
	Name string
}

// Directory defines the secondary port for resolving live membership
// records. Resolution failures are independent of the grant store's own
// state: a member can depart while their grants are still persisted.
type Directory interface {
	// ResolveMember resolves a member ID to a live membership
	// record, or ErrNotFound if the member departed.
	ResolveMember(ctx context.Context, id string) (*Member, error)

	// ResolveRole resolves a role ID, or ErrNotFound if the role no
	// longer exists (stale configuration).
	ResolveRole(ctx context.Context, id string) (*Role, error)
}

// RoleMutator defines the secondary port for applying and removing
// privileges on a member. Calls may fail transiently; callers log and
// continue rather than abort the surrounding cycle.
type RoleMutator interface {
	// Grant adds the given roles to the member.
	Grant(ctx context.Context, memberID string, roleIDs []string) error

	// Revoke removes the given roles from the member.
	Revoke(ctx context.Context, memberID string, roleIDs []string) error

	// SetExact replaces the member's role set with exactly the given
	// roles. Used to restore a prior snapshot on readmission.
	SetExact(ctx context.Context, memberID string, roleIDs []string) error
}

// Moderator defines the secondary port for platform-level moderation
// actions outside role mutation.
type Moderator interface {
	// Ban removes the member from the group permanently.
	Ban(ctx context.Context, memberID, reason string) error
}
