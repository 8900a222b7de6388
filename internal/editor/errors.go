package editor

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when an enhancement for the same target, or a second
// export, is already in flight. The request is rejected, not queued.
var ErrBusy = errors.New("operation already in progress")

// ErrNoExporter is returned when the session was built without an exporter.
var ErrNoExporter = errors.New("export is not configured")

// TargetNotFoundError is returned when an enhancement names an unknown experience.
type TargetNotFoundError struct {
	ItemID string
}

func (e *TargetNotFoundError) Error() string {
	return fmt.Sprintf("no experience with id %q", e.ItemID)
}

// UnknownCommandError is returned by Dispatch for a name with no handler.
type UnknownCommandError struct {
	Command Command
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Command)
}

// UnboundKeyError is returned when a key combination has no command.
type UnboundKeyError struct {
	Combo KeyCombo
}

func (e *UnboundKeyError) Error() string {
	return fmt.Sprintf("no command bound to %s", e.Combo)
}
