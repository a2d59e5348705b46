package shell

import (
	"context"
	"sync/atomic"
)

// Command wraps a submit action with an in-flight guard: while one
// execution runs, further executions fail with ErrBusy instead of
// submitting twice.
type Command struct {
	run        func(ctx context.Context) (string, error)
	canExecute func() bool
	running    atomic.Bool
}

// NewCommand creates a command. canExecute may be nil, meaning always.
func NewCommand(run func(ctx context.Context) (string, error), canExecute func() bool) *Command {
	return &Command{run: run, canExecute: canExecute}
}

// Running reports whether an execution is in flight.
func (c *Command) Running() bool {
	return c.running.Load()
}

// CanExecute reports whether Execute would start the action now.
func (c *Command) CanExecute() bool {
	if c.running.Load() {
		return false
	}
	return c.canExecute == nil || c.canExecute()
}

// Execute runs the action unless another execution is in flight.
// canExecute is not consulted; the action does its own validation.
func (c *Command) Execute(ctx context.Context) (string, error) {
	if !c.running.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer c.running.Store(false)
	return c.run(ctx)
}
