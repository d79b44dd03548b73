package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/traffiq/traffiq/traffic"
)

// ============================================================================
// EVENT LOOP
// ============================================================================
// Loads, load failures and control changes all arrive on one channel and
// are handled one at a time, to completion, on the Run goroutine.
// ============================================================================

// Event is something the controller reacts to.
type Event interface {
	handle(ctx context.Context, c *Controller) error
}

// AccidentsLoaded carries a freshly loaded accident table.
type AccidentsLoaded struct {
	Table *traffic.AccidentTable
}

func (e AccidentsLoaded) handle(ctx context.Context, c *Controller) error {
	c.LoadAccidents(ctx, e.Table)
	return nil
}

// LicensesLoaded carries a freshly loaded license table.
type LicensesLoaded struct {
	Table *traffic.LicenseTable
}

func (e LicensesLoaded) handle(ctx context.Context, c *Controller) error {
	c.LoadLicenses(ctx, e.Table)
	return nil
}

// LoadError reports that a dataset could not be loaded.
type LoadError struct {
	Dataset string
	Err     error
}

func (e LoadError) handle(ctx context.Context, c *Controller) error {
	c.LoadFailed(ctx, e.Dataset, e.Err)
	return nil
}

// ControlChanged is a user changing a selector. When Reply is set it
// receives the outcome; it must be buffered or actively read.
type ControlChanged struct {
	Control Control
	Value   string
	Reply   chan<- error
}

func (e ControlChanged) handle(ctx context.Context, c *Controller) error {
	err := c.Select(ctx, e.Control, e.Value)
	if e.Reply != nil {
		e.Reply <- err
	}
	return err
}

// Run processes events until the channel is closed or ctx is done.
// Rejected events are logged and never stop the loop, nor does a handler
// that panics.
func (c *Controller) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := c.dispatch(ctx, ev); err != nil && !errors.Is(err, ErrHandlerPanic) {
				c.logger.Warn("⚠️  event rejected", slog.Any("error", err))
			}
		}
	}
}

// dispatch handles one event. A panicking handler is logged and reported
// to the event's Reply, if any; the loop keeps running.
func (c *Controller) dispatch(ctx context.Context, ev Event) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err = fmt.Errorf("%w: %T: %v", ErrHandlerPanic, ev, r)
		c.logger.Error("❌ event handler panicked", slog.String("event", fmt.Sprintf("%T", ev)), slog.Any("panic", r))
		if cc, ok := ev.(ControlChanged); ok && cc.Reply != nil {
			select {
			case cc.Reply <- err:
			default:
			}
		}
	}()
	return ev.handle(ctx, c)
}
