// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"

	"github.com/example/warden/internal/core/grant"
)

// GrantStore defines the secondary port for grant persistence. A single
// implementation serves every grant kind; rows are scoped by
// (kind, subject, key) so no cross-kind coordination is needed.
type GrantStore interface {
	// Insert persists a grant if no active grant exists for the same
	// (kind, subject, key). Returns false without error when such a
	// grant already exists, so duplicate event delivery is a no-op.
	Insert(ctx context.Context, rec *grant.Record) (bool, error)

	// Append persists a grant row unconditionally. Used by
	// count-style kinds (warns) where rows accumulate per subject.
	Append(ctx context.Context, rec *grant.Record) error

	// ClaimExpired atomically deletes every grant of the kind whose
	// expiry is at or before now and returns the deleted rows. The
	// read and the delete are one store operation, so two concurrent
	// sweeps never both claim the same row.
	ClaimExpired(ctx context.Context, kind string, now time.Time) ([]grant.Claimed, error)

	// DeleteBySubject deletes every grant of the kind held by the
	// subject and returns the deleted rows. An empty result means
	// there was nothing to release.
	DeleteBySubject(ctx context.Context, kind, subjectID string) ([]grant.Claimed, error)

	// DeleteOldest deletes the single oldest grant of the kind held
	// by the subject. Returns false when the subject holds none.
	DeleteOldest(ctx context.Context, kind, subjectID string) (bool, error)

	// CountBySubject returns the number of grants of the kind held
	// by the subject.
	CountBySubject(ctx context.Context, kind, subjectID string) (int, error)

	// OldestGrantedAt returns when the subject's oldest grant of the
	// kind was created, or found=false when the subject holds none.
	OldestGrantedAt(ctx context.Context, kind, subjectID string) (time.Time, bool, error)

	// ActiveCounts returns the number of active grants per kind.
	ActiveCounts(ctx context.Context) (map[string]int, error)
}
