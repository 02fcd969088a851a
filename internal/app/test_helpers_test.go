package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/warden/internal/core/grant"
	"github.com/example/warden/internal/core/roleset"
	"github.com/example/warden/internal/ports/secondary"
)

// Ensure the mocks implement the secondary ports.
var (
	_ secondary.GrantStore  = (*mockGrantStore)(nil)
	_ secondary.Directory   = (*mockDirectory)(nil)
	_ secondary.RoleMutator = (*mockMutator)(nil)
	_ secondary.Moderator   = (*mockModerator)(nil)
	_ secondary.Logger      = nopLogger{}
)

// nopLogger discards all log output.
type nopLogger struct{}

func (nopLogger) Debug(format string, args ...any) {}

func (nopLogger) Info(format string, args ...any) {}

func (nopLogger) Error(format string, args ...any) {}

// mockGrantStore implements secondary.GrantStore in memory with the
// same conditional-create and delete-returning semantics as the
// SQLite repository.
type mockGrantStore struct {
	mu   sync.Mutex
	rows []*grant.Record

	insertErr error
	claimErr  error
}

func newMockGrantStore() *mockGrantStore {
	return &mockGrantStore{}
}

func (s *mockGrantStore) Insert(ctx context.Context, rec *grant.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return false, s.insertErr
	}
	for _, row := range s.rows {
		if row.Kind == rec.Kind && row.SubjectID == rec.SubjectID && row.Key == rec.Key {
			return false, nil
		}
	}
	copied := *rec
	s.rows = append(s.rows, &copied)
	return true, nil
}

func (s *mockGrantStore) Append(ctx context.Context, rec *grant.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	copied := *rec
	s.rows = append(s.rows, &copied)
	return nil
}

func (s *mockGrantStore) ClaimExpired(ctx context.Context, kind string, now time.Time) ([]grant.Claimed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	var claimed []grant.Claimed
	var kept []*grant.Record
	for _, row := range s.rows {
		if row.Kind == kind && row.ExpiresAt != nil && !row.ExpiresAt.After(now) {
			claimed = append(claimed, grant.Claimed{SubjectID: row.SubjectID, Key: row.Key, Payload: row.Payload})
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return claimed, nil
}

func (s *mockGrantStore) DeleteBySubject(ctx context.Context, kind, subjectID string) ([]grant.Claimed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted []grant.Claimed
	var kept []*grant.Record
	for _, row := range s.rows {
		if row.Kind == kind && row.SubjectID == subjectID {
			deleted = append(deleted, grant.Claimed{SubjectID: row.SubjectID, Key: row.Key, Payload: row.Payload})
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return deleted, nil
}

func (s *mockGrantStore) DeleteOldest(ctx context.Context, kind, subjectID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	oldest := -1
	for i, row := range s.rows {
		if row.Kind != kind || row.SubjectID != subjectID {
			continue
		}
		if oldest == -1 || row.GrantedAt.Before(s.rows[oldest].GrantedAt) {
			oldest = i
		}
	}
	if oldest == -1 {
		return false, nil
	}
	s.rows = append(s.rows[:oldest], s.rows[oldest+1:]...)
	return true, nil
}

func (s *mockGrantStore) CountBySubject(ctx context.Context, kind, subjectID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, row := range s.rows {
		if row.Kind == kind && row.SubjectID == subjectID {
			count++
		}
	}
	return count, nil
}

func (s *mockGrantStore) OldestGrantedAt(ctx context.Context, kind, subjectID string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var oldest time.Time
	found := false
	for _, row := range s.rows {
		if row.Kind != kind || row.SubjectID != subjectID {
			continue
		}
		if !found || row.GrantedAt.Before(oldest) {
			oldest = row.GrantedAt
			found = true
		}
	}
	return oldest, found, nil
}

func (s *mockGrantStore) ActiveCounts(ctx context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for _, row := range s.rows {
		counts[row.Kind]++
	}
	return counts, nil
}

// grantsFor returns the stored rows for (kind, subject).
func (s *mockGrantStore) grantsFor(kind, subjectID string) []*grant.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*grant.Record
	for _, row := range s.rows {
		if row.Kind == kind && row.SubjectID == subjectID {
			out = append(out, row)
		}
	}
	return out
}

// mockDirectory implements secondary.Directory over in-memory maps.
type mockDirectory struct {
	mu      sync.Mutex
	members map[string]*secondary.Member
	roles   map[string]*secondary.Role
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		members: make(map[string]*secondary.Member),
		roles:   make(map[string]*secondary.Role),
	}
}

func (d *mockDirectory) addMember(id string, roleIDs ...string) *secondary.Member {
	d.mu.Lock()
	defer d.mu.Unlock()
	m := &secondary.Member{ID: id, Username: id, RoleIDs: roleIDs}
	d.members[id] = m
	return m
}

func (d *mockDirectory) addRole(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.roles[id] = &secondary.Role{ID: id, Name: "role " + id}
}

func (d *mockDirectory) removeMember(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.members, id)
}

func (d *mockDirectory) ResolveMember(ctx context.Context, id string) (*secondary.Member, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id, secondary.ErrNotFound)
	}
	copied := *m
	copied.RoleIDs = append([]string(nil), m.RoleIDs...)
	return &copied, nil
}

func (d *mockDirectory) ResolveRole(ctx context.Context, id string) (*secondary.Role, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.roles[id]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", id, secondary.ErrNotFound)
	}
	return r, nil
}

// memberRoles returns the member's current role set.
func (d *mockDirectory) memberRoles(id string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if m, ok := d.members[id]; ok {
		return append([]string(nil), m.RoleIDs...)
	}
	return nil
}

// mockMutator implements secondary.RoleMutator, applying mutations to
// the backing directory so tests observe resulting role sets.
type mockMutator struct {
	mu  sync.Mutex
	dir *mockDirectory

	grantErr  error
	revokeErr error

	grants  [][]string // role sets passed to Grant, in call order
	revokes [][]string
	sets    [][]string
}

func newMockMutator(dir *mockDirectory) *mockMutator {
	return &mockMutator{dir: dir}
}

func (m *mockMutator) Grant(ctx context.Context, memberID string, roleIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.grantErr != nil {
		return m.grantErr
	}
	m.grants = append(m.grants, append([]string(nil), roleIDs...))
	m.dir.mu.Lock()
	defer m.dir.mu.Unlock()
	if member, ok := m.dir.members[memberID]; ok {
		for _, id := range roleIDs {
			if !roleset.Contains(member.RoleIDs, id) {
				member.RoleIDs = append(member.RoleIDs, id)
			}
		}
	}
	return nil
}

func (m *mockMutator) Revoke(ctx context.Context, memberID string, roleIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revokeErr != nil {
		return m.revokeErr
	}
	m.revokes = append(m.revokes, append([]string(nil), roleIDs...))
	m.dir.mu.Lock()
	defer m.dir.mu.Unlock()
	if member, ok := m.dir.members[memberID]; ok {
		member.RoleIDs = roleset.Exclude(member.RoleIDs, roleIDs...)
	}
	return nil
}

func (m *mockMutator) SetExact(ctx context.Context, memberID string, roleIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = append(m.sets, append([]string(nil), roleIDs...))
	m.dir.mu.Lock()
	defer m.dir.mu.Unlock()
	if member, ok := m.dir.members[memberID]; ok {
		member.RoleIDs = append([]string(nil), roleIDs...)
	}
	return nil
}

// mockModerator implements secondary.Moderator, recording bans.
type mockModerator struct {
	mu   sync.Mutex
	bans []string
}

func newMockModerator() *mockModerator {
	return &mockModerator{}
}

func (m *mockModerator) Ban(ctx context.Context, memberID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bans = append(m.bans, memberID)
	return nil
}

func (m *mockModerator) banCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bans)
}
