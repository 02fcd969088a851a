package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/example/warden/internal/ports/secondary"
)

// StatusAdapter renders grant bookkeeping state for the status
// command. It depends only on the store port, so it works against any
// database the bot can open.
type StatusAdapter struct {
	store secondary.GrantStore
	out   io.Writer
}

// NewStatusAdapter creates a status adapter writing to out.
func NewStatusAdapter(store secondary.GrantStore, out io.Writer) *StatusAdapter {
	return &StatusAdapter{store: store, out: out}
}

// Show prints the active grant count per kind.
func (a *StatusAdapter) Show(ctx context.Context) error {
	counts, err := a.store.ActiveCounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to read grant counts: %w", err)
	}

	if len(counts) == 0 {
		fmt.Fprintln(a.out, "No active grants.")
		return nil
	}

	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KIND\tACTIVE GRANTS")
	fmt.Fprintln(w, "----\t-------------")
	total := 0
	for _, kind := range kinds {
		fmt.Fprintf(w, "%s\t%d\n", kind, counts[kind])
		total += counts[kind]
	}
	fmt.Fprintf(w, "total\t%d\n", total)
	w.Flush()
	return nil
}
