package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/warden/internal/core/grant"
	"github.com/example/warden/internal/ports/secondary"
)

// stubRevoker fails or skips configured subjects and records the rest.
type stubRevoker struct {
	kind    string
	failIDs map[string]bool
	goneIDs map[string]bool
	revoked []string
}

func (r *stubRevoker) Kind() string { return r.kind }

func (r *stubRevoker) Revoke(ctx context.Context, claimed grant.Claimed) error {
	if r.failIDs[claimed.SubjectID] {
		return errors.New("mutation rejected")
	}
	if r.goneIDs[claimed.SubjectID] {
		return fmt.Errorf("subject [%s]: %w", claimed.SubjectID, secondary.ErrNotFound)
	}
	r.revoked = append(r.revoked, claimed.SubjectID)
	return nil
}

// seedExpired puts a due grant row of the given kind into the store.
func seedExpired(t *testing.T, store *mockGrantStore, kind, subjectID string) {
	t.Helper()
	rec := grant.New(kind, subjectID, time.Now().Add(-2*time.Hour)).WithExpiry(time.Hour)
	if err := store.Append(context.Background(), rec); err != nil {
		t.Fatalf("failed to seed grant: %v", err)
	}
}

func TestSweepCountsOutcomesPerRow(t *testing.T) {
	store := newMockGrantStore()
	seedExpired(t, store, grant.KindTempRole, "ok-1")
	seedExpired(t, store, grant.KindTempRole, "ok-2")
	seedExpired(t, store, grant.KindTempRole, "gone")
	seedExpired(t, store, grant.KindTempRole, "broken")

	revoker := &stubRevoker{
		kind:    grant.KindTempRole,
		failIDs: map[string]bool{"broken": true},
		goneIDs: map[string]bool{"gone": true},
	}
	s := NewSweeper(store, revoker, time.Minute, nopLogger{})

	result, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if result.Claimed != 4 {
		t.Fatalf("expected 4 claimed, got %d", result.Claimed)
	}
	if result.Revoked != 2 {
		t.Fatalf("expected 2 revoked, got %d", result.Revoked)
	}
	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %d", result.Skipped)
	}
	if result.Failed != 1 {
		t.Fatalf("expected 1 failed, got %d", result.Failed)
	}
	if len(revoker.revoked) != 2 {
		t.Fatalf("expected the healthy rows to reach the revoker, got %v", revoker.revoked)
	}
}

func TestSweepLeavesOtherKindsAlone(t *testing.T) {
	store := newMockGrantStore()
	seedExpired(t, store, grant.KindTempRole, "m1")
	seedExpired(t, store, grant.KindExile, "m1")

	revoker := &stubRevoker{kind: grant.KindTempRole}
	s := NewSweeper(store, revoker, time.Minute, nopLogger{})

	result, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if result.Claimed != 1 {
		t.Fatalf("expected only the matching kind to be claimed, got %d", result.Claimed)
	}

	count, err := store.CountBySubject(context.Background(), grant.KindExile, "m1")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatal("expected the other kind's row to survive the sweep")
	}
}

func TestSweepPropagatesClaimErrors(t *testing.T) {
	store := newMockGrantStore()
	store.claimErr = errors.New("database locked")

	s := NewSweeper(store, &stubRevoker{kind: grant.KindTempRole}, time.Minute, nopLogger{})
	if _, err := s.Sweep(context.Background()); err == nil {
		t.Fatal("expected the claim error to surface")
	}
}

func TestSweepSecondPassClaimsNothing(t *testing.T) {
	store := newMockGrantStore()
	seedExpired(t, store, grant.KindTempRole, "m1")

	revoker := &stubRevoker{kind: grant.KindTempRole}
	s := NewSweeper(store, revoker, time.Minute, nopLogger{})

	if _, err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}
	result, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if result.Claimed != 0 {
		t.Fatalf("expected nothing left to claim, got %d", result.Claimed)
	}
}
