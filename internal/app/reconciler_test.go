package app

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/example/warden/internal/ports/secondary"
)

// recordingModule captures RolesChanged deliveries.
type recordingModule struct {
	mu    sync.Mutex
	added [][]string
}

func (m *recordingModule) Name() string { return "recording" }

func (m *recordingModule) Init(ctx context.Context) error { return nil }

func (m *recordingModule) MemberJoined(ctx context.Context, member *secondary.Member) error {
	return nil
}

func (m *recordingModule) MemberLeft(ctx context.Context, member *secondary.Member) error {
	return nil
}

func (m *recordingModule) RolesChanged(ctx context.Context, member *secondary.Member, added []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, append([]string(nil), added...))
	return nil
}

func (m *recordingModule) deliveries() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.added
}

func newTestReconciler() (*Reconciler, *recordingModule) {
	mod := &recordingModule{}
	d := NewDispatcher(nopLogger{})
	d.Register(mod)
	return NewReconciler(d, nopLogger{}), mod
}

func TestReconcilerForwardsAddedRolesOnly(t *testing.T) {
	r, mod := newTestReconciler()

	before := &secondary.Member{ID: "m1", RoleIDs: []string{"a", "b"}}
	after := &secondary.Member{ID: "m1", RoleIDs: []string{"a", "b", "c"}}
	r.MemberUpdated(context.Background(), before, after)

	got := mod.deliveries()
	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if !reflect.DeepEqual(got[0], []string{"c"}) {
		t.Fatalf("expected added set [c], got %v", got[0])
	}
}

func TestReconcilerShortCircuitsSameSizeUpdates(t *testing.T) {
	r, mod := newTestReconciler()

	// A same-size update is treated as no change, even for a swap.
	before := &secondary.Member{ID: "m1", RoleIDs: []string{"a", "b"}}
	after := &secondary.Member{ID: "m1", RoleIDs: []string{"a", "c"}}
	r.MemberUpdated(context.Background(), before, after)

	if got := mod.deliveries(); len(got) != 0 {
		t.Fatalf("expected no delivery for same-size update, got %v", got)
	}
}

func TestReconcilerIgnoresRemovals(t *testing.T) {
	r, mod := newTestReconciler()

	before := &secondary.Member{ID: "m1", RoleIDs: []string{"a", "b", "c"}}
	after := &secondary.Member{ID: "m1", RoleIDs: []string{"a"}}
	r.MemberUpdated(context.Background(), before, after)

	if got := mod.deliveries(); len(got) != 0 {
		t.Fatalf("expected no delivery for pure removal, got %v", got)
	}
}

func TestReconcilerIgnoresUpdatesWithoutPriorState(t *testing.T) {
	r, mod := newTestReconciler()

	after := &secondary.Member{ID: "m1", RoleIDs: []string{"a", "b"}}
	r.MemberUpdated(context.Background(), nil, after)

	if got := mod.deliveries(); len(got) != 0 {
		t.Fatalf("expected no delivery without prior state, got %v", got)
	}
}
