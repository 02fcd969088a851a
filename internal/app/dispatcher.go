package app

import (
	"context"
	"fmt"

	"github.com/example/warden/internal/ports/primary"
	"github.com/example/warden/internal/ports/secondary"
)

// Dispatcher owns the set of active bot modules and fans each platform
// event out to all of them concurrently. Results preserve registration
// order; one module's failure (error or panic) never prevents the
// others from completing.
type Dispatcher struct {
	modules []primary.Module
	log     secondary.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(log secondary.Logger) *Dispatcher {
	return &Dispatcher{log: log}
}

// Register appends a module. Registration order determines result
// order in the error slices returned by the dispatch methods.
func (d *Dispatcher) Register(m primary.Module) {
	d.modules = append(d.modules, m)
}

// Modules returns the registered modules in registration order.
func (d *Dispatcher) Modules() []primary.Module {
	return d.modules
}

// Init initializes every module. Init failures are per-module: a
// module that fails to initialize is reported but the others proceed.
func (d *Dispatcher) Init(ctx context.Context) []error {
	return d.dispatch(ctx, "init", func(ctx context.Context, m primary.Module) error {
		return m.Init(ctx)
	})
}

// MemberJoined fans a join event out to every module.
func (d *Dispatcher) MemberJoined(ctx context.Context, member *secondary.Member) []error {
	return d.dispatch(ctx, "member joined", func(ctx context.Context, m primary.Module) error {
		return m.MemberJoined(ctx, member)
	})
}

// MemberLeft fans a leave event out to every module.
func (d *Dispatcher) MemberLeft(ctx context.Context, member *secondary.Member) []error {
	return d.dispatch(ctx, "member left", func(ctx context.Context, m primary.Module) error {
		return m.MemberLeft(ctx, member)
	})
}

// RolesChanged fans an external role change out to every module.
func (d *Dispatcher) RolesChanged(ctx context.Context, member *secondary.Member, added []string) []error {
	return d.dispatch(ctx, "roles changed", func(ctx context.Context, m primary.Module) error {
		return m.RolesChanged(ctx, member, added)
	})
}

// dispatch runs fn against every module in its own goroutine and
// collects the results indexed by registration order. A panicking
// module is recovered into an error; there is no retry, the module
// simply observes the event as not handled for this cycle.
func (d *Dispatcher) dispatch(ctx context.Context, event string, fn func(context.Context, primary.Module) error) []error {
	errs := make([]error, len(d.modules))
	done := make(chan int, len(d.modules))

	for i, m := range d.modules {
		go func(i int, m primary.Module) {
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("module %s panicked handling %s: %v", m.Name(), event, r)
				}
				done <- i
			}()
			errs[i] = fn(ctx, m)
		}(i, m)
	}

	for range d.modules {
		<-done
	}

	for i, err := range errs {
		if err != nil {
			d.log.Error("module %s failed handling %s: %v", d.modules[i].Name(), event, err)
		}
	}
	return errs
}
