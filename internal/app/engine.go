package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/warden/internal/ports/secondary"
)

// engine is the shared core embedded by every grant-kind module: the
// kind discriminator, the injected collaborators, and the fail-soft
// role cache resolved at Init time.
type engine struct {
	kind  string
	store secondary.GrantStore
	dir   secondary.Directory
	mut   secondary.RoleMutator
	log   secondary.Logger
	now   func() time.Time

	// roles is the resolved subset of the configured role IDs,
	// cached by resolveRoles. Stale configured IDs are dropped, not
	// fatal.
	roles []string
}

func newEngine(kind string, store secondary.GrantStore, dir secondary.Directory, mut secondary.RoleMutator, log secondary.Logger) engine {
	return engine{
		kind:  kind,
		store: store,
		dir:   dir,
		mut:   mut,
		log:   log,
		now:   time.Now,
	}
}

// Kind returns the grant kind this module manages.
func (e *engine) Kind() string { return e.kind }

// resolveRoles resolves the configured role IDs through the directory
// and caches the survivors. IDs that no longer resolve are logged and
// skipped; the module keeps running with the remaining roles.
func (e *engine) resolveRoles(ctx context.Context, ids []string) {
	e.roles = e.resolveEach(ctx, ids)
}

// resolveEach resolves role IDs fail-soft without touching the cache.
func (e *engine) resolveEach(ctx context.Context, ids []string) []string {
	var resolved []string
	for _, id := range ids {
		role, err := e.dir.ResolveRole(ctx, id)
		if err != nil {
			e.log.Error("%s: failed to resolve role [%s], skipping: %v", e.kind, id, err)
			continue
		}
		e.log.Debug("%s: managing role [%s]", e.kind, role.Name)
		resolved = append(resolved, role.ID)
	}
	return resolved
}

// resolveSubject resolves a member, wrapping departure as
// secondary.ErrNotFound for errors.Is checks upstream.
func (e *engine) resolveSubject(ctx context.Context, subjectID string) (*secondary.Member, error) {
	member, err := e.dir.ResolveMember(ctx, subjectID)
	if err != nil {
		if errors.Is(err, secondary.ErrNotFound) {
			return nil, fmt.Errorf("subject [%s] not resolvable: %w", subjectID, err)
		}
		return nil, fmt.Errorf("failed to resolve subject [%s]: %w", subjectID, err)
	}
	return member, nil
}
