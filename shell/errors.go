package shell

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("shell: aborted")
	// ErrBusy is returned when a command is executed while a previous
	// execution is still running.
	ErrBusy = errors.New("shell: command already running")
)
