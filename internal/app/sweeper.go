package app

import (
	"context"
	"errors"
	"time"

	"github.com/example/warden/internal/core/grant"
	"github.com/example/warden/internal/ports/secondary"
)

// Revoker is implemented by modules whose grants expire. The sweeper
// hands it rows it has already claimed; the bookkeeping row is gone by
// the time Revoke runs, so a failed mutation is drift to correct
// manually, not a retry target.
type Revoker interface {
	// Kind returns the grant kind this revoker sweeps.
	Kind() string

	// Revoke reverses one claimed grant. Wrapping
	// secondary.ErrNotFound marks the row as skipped (subject
	// departed, mutation moot) rather than failed.
	Revoke(ctx context.Context, claimed grant.Claimed) error
}

// SweepResult summarizes one sweep tick.
type SweepResult struct {
	Claimed int // rows atomically claimed this tick
	Revoked int // claimed rows whose reversal succeeded
	Skipped int // claimed rows whose subject no longer resolves
	Failed  int // claimed rows whose reversal errored
}

// Sweeper periodically claims expired grants of one kind and revokes
// them. Each expiring kind runs its own sweeper on its own fixed
// period; claims are atomic delete-returning store operations, so
// overlapping ticks act on disjoint rows.
type Sweeper struct {
	store    secondary.GrantStore
	revoker  Revoker
	interval time.Duration
	log      secondary.Logger
	now      func() time.Time
}

// NewSweeper creates a sweeper for the revoker's kind.
func NewSweeper(store secondary.GrantStore, revoker Revoker, interval time.Duration, log secondary.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		revoker:  revoker,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Run sweeps immediately, then on every tick until the context is
// canceled. Tick failures are logged; the next tick runs on the fixed
// period regardless.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweepAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *Sweeper) sweepAndLog(ctx context.Context) {
	result, err := s.Sweep(ctx)
	if err != nil {
		s.log.Error("sweep for %s failed: %v", s.revoker.Kind(), err)
		return
	}
	if result.Claimed > 0 {
		s.log.Info("sweep for %s: claimed %d, revoked %d, skipped %d, failed %d",
			s.revoker.Kind(), result.Claimed, result.Revoked, result.Skipped, result.Failed)
	}
}

// Sweep performs one tick: claim every due grant atomically, then
// revoke each claimed row. Per-row failures are logged and do not
// abort the remaining rows.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	claimed, err := s.store.ClaimExpired(ctx, s.revoker.Kind(), s.now())
	if err != nil {
		return result, err
	}
	result.Claimed = len(claimed)

	for _, c := range claimed {
		err := s.revoker.Revoke(ctx, c)
		switch {
		case err == nil:
			result.Revoked++
		case errors.Is(err, secondary.ErrNotFound):
			// The claim already removed the row; with the subject
			// gone the mutation is moot.
			result.Skipped++
			s.log.Debug("skipped revocation for departed subject [%s]", c.SubjectID)
		default:
			result.Failed++
			s.log.Error("failed to revoke %s grant for [%s]: %v", s.revoker.Kind(), c.SubjectID, err)
		}
	}

	return result, nil
}
