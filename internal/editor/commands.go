package editor

import (
	"context"
	"maps"
	"slices"

	"github.com/jonathan/cv-builder/internal/export"
)

// Command names a user-level editor action.
type Command string

const (
	CommandNew           Command = "new"
	CommandSave          Command = "save"
	CommandLoad          Command = "load"
	CommandDelete        Command = "delete"
	CommandExport        Command = "export"
	CommandTogglePreview Command = "toggle-preview"
	CommandUndo          Command = "undo"
	CommandRedo          Command = "redo"
)

// CommandArgs carries the optional inputs of a command.
type CommandArgs struct {
	// Name is the document name for save, load and delete.
	Name     string `json:"name,omitempty"`
	Format   string `json:"format,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// Result is the outcome of a dispatched command.
type Result struct {
	State    State
	Artifact *export.Artifact
}

type handler func(s *Session, ctx context.Context, args CommandArgs) (Result, error)

var handlers = map[Command]handler{
	CommandNew: func(s *Session, ctx context.Context, _ CommandArgs) (Result, error) {
		return Result{State: s.New(ctx)}, nil
	},
	CommandSave: func(s *Session, ctx context.Context, args CommandArgs) (Result, error) {
		st, err := s.Save(ctx, args.Name)
		return Result{State: st}, err
	},
	CommandLoad: func(s *Session, ctx context.Context, args CommandArgs) (Result, error) {
		st, err := s.Load(ctx, args.Name)
		return Result{State: st}, err
	},
	CommandDelete: func(s *Session, ctx context.Context, args CommandArgs) (Result, error) {
		st, err := s.Delete(ctx, args.Name)
		return Result{State: st}, err
	},
	CommandExport: func(s *Session, ctx context.Context, args CommandArgs) (Result, error) {
		format, err := export.ParseFormat(args.Format)
		if err != nil {
			return Result{State: s.State()}, err
		}
		artifact, err := s.Export(ctx, format, args.FileName)
		if err != nil {
			return Result{State: s.State()}, err
		}
		return Result{State: s.State(), Artifact: &artifact}, nil
	},
	CommandTogglePreview: func(s *Session, _ context.Context, _ CommandArgs) (Result, error) {
		return Result{State: s.TogglePreview()}, nil
	},
	CommandUndo: func(s *Session, ctx context.Context, _ CommandArgs) (Result, error) {
		return Result{State: s.Undo(ctx)}, nil
	},
	CommandRedo: func(s *Session, ctx context.Context, _ CommandArgs) (Result, error) {
		return Result{State: s.Redo(ctx)}, nil
	},
}

// Commands returns every command name, sorted.
func Commands() []Command {
	return slices.Sorted(maps.Keys(handlers))
}

// Dispatch runs the handler registered for cmd.
func (s *Session) Dispatch(ctx context.Context, cmd Command, args CommandArgs) (Result, error) {
	h, ok := handlers[cmd]
	if !ok {
		return Result{State: s.State()}, &UnknownCommandError{Command: cmd}
	}
	s.log.Debug("dispatching command", "command", cmd)
	return h(s, ctx, args)
}

// HandleKey dispatches the command bound to combo.
func (s *Session) HandleKey(ctx context.Context, combo KeyCombo, args CommandArgs) (Result, error) {
	cmd, ok := s.keymap.Lookup(combo)
	if !ok {
		return Result{State: s.State()}, &UnboundKeyError{Combo: combo}
	}
	return s.Dispatch(ctx, cmd, args)
}
