package app

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/example/warden/internal/core/grant"
)

func newWarnsFixture(t *testing.T, cfg WarnsConfig) (*Warns, *mockGrantStore, *mockDirectory, *mockMutator, *mockModerator) {
	t.Helper()
	store := newMockGrantStore()
	dir := newMockDirectory()
	for _, id := range cfg.TierRoleIDs {
		dir.addRole(id)
	}
	mut := newMockMutator(dir)
	modr := newMockModerator()
	m := NewWarns(store, dir, mut, modr, nopLogger{}, cfg)
	if err := m.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return m, store, dir, mut, modr
}

func TestAddWarnEscalatesThroughTiers(t *testing.T) {
	m, _, dir, _, _ := newWarnsFixture(t, WarnsConfig{TierRoleIDs: []string{"warn-1", "warn-2", "warn-3"}})
	dir.addMember("m1")

	for i, want := range []string{"warn-1", "warn-2", "warn-3"} {
		if err := m.AddWarn(context.Background(), "m1", "rude"); err != nil {
			t.Fatalf("warn %d failed: %v", i+1, err)
		}
		count, err := m.WarnCount(context.Background(), "m1")
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != i+1 {
			t.Fatalf("expected count %d, got %d", i+1, count)
		}
		roles := dir.memberRoles("m1")
		if roles[len(roles)-1] != want {
			t.Fatalf("expected tier %s applied, got %v", want, roles)
		}
	}
}

func TestAddWarnBeyondLimitBansExactlyOnce(t *testing.T) {
	m, store, dir, _, modr := newWarnsFixture(t, WarnsConfig{
		TierRoleIDs: []string{"warn-1", "warn-2", "warn-3"},
		BanOnLimit:  true,
		BanReason:   "too many warnings",
	})
	dir.addMember("m1")

	for i := 0; i < 3; i++ {
		if err := m.AddWarn(context.Background(), "m1", "rude"); err != nil {
			t.Fatalf("warn %d failed: %v", i+1, err)
		}
	}
	if modr.banCount() != 0 {
		t.Fatal("expected no ban while under the limit")
	}

	if err := m.AddWarn(context.Background(), "m1", "rude"); err != nil {
		t.Fatalf("overflow warn failed: %v", err)
	}
	if modr.banCount() != 1 {
		t.Fatalf("expected exactly one ban, got %d", modr.banCount())
	}
	// The ban replaces the row: the count must not grow past the max.
	count, err := store.CountBySubject(context.Background(), grant.KindWarn, "m1")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected the overflow warn to append no row, got %d", count)
	}
}

func TestAddWarnBeyondLimitWithoutBanReturnsLimitError(t *testing.T) {
	m, _, dir, _, modr := newWarnsFixture(t, WarnsConfig{TierRoleIDs: []string{"warn-1"}})
	dir.addMember("m1")

	if err := m.AddWarn(context.Background(), "m1", "rude"); err != nil {
		t.Fatalf("warn failed: %v", err)
	}
	err := m.AddWarn(context.Background(), "m1", "rude")
	if !errors.Is(err, ErrWarnLimit) {
		t.Fatalf("expected ErrWarnLimit, got %v", err)
	}
	if modr.banCount() != 0 {
		t.Fatal("expected no ban without the overflow action")
	}
}

func TestRemoveWarnDropsOldestRowAndHighestTier(t *testing.T) {
	m, store, dir, _, _ := newWarnsFixture(t, WarnsConfig{TierRoleIDs: []string{"warn-1", "warn-2"}})
	dir.addMember("m1")

	if err := m.AddWarn(context.Background(), "m1", "first"); err != nil {
		t.Fatalf("warn failed: %v", err)
	}
	if err := m.AddWarn(context.Background(), "m1", "second"); err != nil {
		t.Fatalf("warn failed: %v", err)
	}

	if err := m.RemoveWarn(context.Background(), "m1"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	count, err := m.WarnCount(context.Background(), "m1")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 warn left, got %d", count)
	}
	if got := dir.memberRoles("m1"); !reflect.DeepEqual(got, []string{"warn-1"}) {
		t.Fatalf("expected the highest tier removed, got %v", got)
	}

	rows := store.grantsFor(grant.KindWarn, "m1")
	if len(rows) != 1 || rows[0].Payload.Reason != "second" {
		t.Fatalf("expected the oldest row removed, got %+v", rows)
	}
}

func TestRemoveWarnWithNoneReturnsNoWarns(t *testing.T) {
	m, _, dir, _, _ := newWarnsFixture(t, WarnsConfig{TierRoleIDs: []string{"warn-1"}})
	dir.addMember("m1")

	if err := m.RemoveWarn(context.Background(), "m1"); !errors.Is(err, ErrNoWarns) {
		t.Fatalf("expected ErrNoWarns, got %v", err)
	}
}

func TestWarnRowsSurviveDeparture(t *testing.T) {
	m, _, dir, _, _ := newWarnsFixture(t, WarnsConfig{TierRoleIDs: []string{"warn-1", "warn-2"}})
	member := dir.addMember("m1")

	if err := m.AddWarn(context.Background(), "m1", "rude"); err != nil {
		t.Fatalf("warn failed: %v", err)
	}
	if err := m.MemberLeft(context.Background(), member); err != nil {
		t.Fatalf("leave failed: %v", err)
	}

	count, err := m.WarnCount(context.Background(), "m1")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected the warn to survive departure, got %d", count)
	}
}

func TestWarnExpirySweepRemovesHighestHeldTier(t *testing.T) {
	m, store, dir, _, _ := newWarnsFixture(t, WarnsConfig{
		TierRoleIDs: []string{"warn-1", "warn-2"},
		Expiry:      time.Hour,
	})
	dir.addMember("m1")

	if err := m.AddWarn(context.Background(), "m1", "rude"); err != nil {
		t.Fatalf("warn failed: %v", err)
	}
	if !m.CanExpire() {
		t.Fatal("expected warns with an expiry to be sweepable")
	}

	s := NewSweeper(store, m, time.Minute, nopLogger{})
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	result, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if result.Revoked != 1 {
		t.Fatalf("expected 1 revoked, got %+v", result)
	}
	if got := dir.memberRoles("m1"); len(got) != 0 {
		t.Fatalf("expected the tier role removed, got %v", got)
	}

	count, err := m.WarnCount(context.Background(), "m1")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected the expired warn gone, got %d", count)
	}
}

func TestWarnsWithoutExpiryAreNotSweepable(t *testing.T) {
	m, _, _, _, _ := newWarnsFixture(t, WarnsConfig{TierRoleIDs: []string{"warn-1"}})
	if m.CanExpire() {
		t.Fatal("expected zero expiry to disable sweeping")
	}
}
