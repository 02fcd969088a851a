// Package grant contains the pure data model for time-bounded grants:
// the record persisted per grant, the claimed row returned by expiry
// sweeps, and the kind discriminators shared by store and modules.
package grant

import "time"

// Kind discriminates the category of privilege management a record
// belongs to. Every row in the grants table carries exactly one kind.
const (
	KindJoinRole       = "join-role"
	KindTempRole       = "temp-role"
	KindExile          = "exile"
	KindWarn           = "warn"
	KindSwitchingRole  = "switching-role"
	KindPersistentRole = "persistent-role"
)

// Payload is the kind-specific data needed to reverse a grant later.
// It is stored as JSON in the grants table.
type Payload struct {
	// Roles holds role IDs to restore or remove on revocation
	// (prior snapshot for exiles and persistent roles, the tracked
	// role for switching roles).
	Roles []string `json:"roles,omitempty"`

	// Reason is the free-form reason attached by a moderator action.
	Reason string `json:"reason,omitempty"`
}

// Record is one persisted grant. At most one active record exists per
// (Kind, SubjectID, Key) for kinds with at-most-one semantics; warn
// rows are append-only and bypass that constraint.
type Record struct {
	Kind      string
	SubjectID string

	// Key is a per-kind discriminator within a subject. Empty for
	// most kinds; the tracked role ID for switching roles, so each
	// tracked role runs its own countdown independently.
	Key string

	GrantedAt time.Time

	// ExpiresAt is nil for grants that last until explicitly
	// released (join roles, persistent roles, permanent exiles).
	ExpiresAt *time.Time

	Payload Payload
}

// Claimed is a row returned by an atomic claim (delete-returning)
// operation. The row is already gone from the store when a Claimed
// value is observed, so each claimed grant is revoked exactly once.
type Claimed struct {
	SubjectID string
	Key       string
	Payload   Payload
}

// New builds a record granted now.
func New(kind, subjectID string, now time.Time) *Record {
	return &Record{
		Kind:      kind,
		SubjectID: subjectID,
		GrantedAt: now,
	}
}

// WithExpiry sets the expiry to now plus d and returns the record.
// A non-positive duration leaves the record unexpiring.
func (r *Record) WithExpiry(d time.Duration) *Record {
	if d <= 0 {
		return r
	}
	at := r.GrantedAt.Add(d)
	r.ExpiresAt = &at
	return r
}

// WithKey sets the per-kind discriminator and returns the record.
func (r *Record) WithKey(key string) *Record {
	r.Key = key
	return r
}

// WithRoles attaches a role snapshot to the payload and returns the
// record.
func (r *Record) WithRoles(roles []string) *Record {
	r.Payload.Roles = roles
	return r
}

// WithReason attaches a moderator reason to the payload and returns
// the record.
func (r *Record) WithReason(reason string) *Record {
	r.Payload.Reason = reason
	return r
}
