package primary

import (
	"context"
	"time"
)

// ExileService defines the primary port for moderator-driven exiles.
type ExileService interface {
	// Exile places the subject under the exile role set. A zero
	// duration exiles until explicitly lifted.
	Exile(ctx context.Context, subjectID, reason string, d time.Duration) error

	// Readmit lifts the exile and restores the snapshotted roles.
	Readmit(ctx context.Context, subjectID string) error

	// ExiledSince reports when the subject was exiled, or found=false.
	ExiledSince(ctx context.Context, subjectID string) (since time.Time, found bool, err error)
}

// WarnService defines the primary port for moderator-driven warns.
type WarnService interface {
	// AddWarn records a warn and assigns the next tier role. When
	// the subject already holds the maximum tier, the configured
	// overflow action runs instead and no row is recorded.
	AddWarn(ctx context.Context, subjectID, reason string) error

	// RemoveWarn deletes the subject's oldest warn row and removes
	// the highest currently-held tier role.
	RemoveWarn(ctx context.Context, subjectID string) error

	// WarnCount returns the subject's active warn count.
	WarnCount(ctx context.Context, subjectID string) (int, error)
}
