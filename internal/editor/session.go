// Package editor owns the live CV document of one editing session.
//
// Every edit runs as mutation, history record and autosave inside one critical
// section, so entries land in the log in the order the edits happened. Undo and
// redo replay a snapshot without going through Record. Recoverable failures are
// reported as notices and leave the document unchanged.
package editor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jonathan/cv-builder/internal/enhance"
	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/history"
	"github.com/jonathan/cv-builder/internal/logger"
	"github.com/jonathan/cv-builder/internal/mutation"
	"github.com/jonathan/cv-builder/internal/persistence"
	"github.com/jonathan/cv-builder/internal/types"
)

// Enhancer improves a piece of CV text.
type Enhancer interface {
	Enhance(ctx context.Context, req enhance.Request) (string, error)
}

// Exporter renders a document into a downloadable file.
type Exporter interface {
	Export(ctx context.Context, doc types.Document, format export.Format, fileName string) (export.Artifact, error)
}

// Options configures a Session. Every field is optional.
type Options struct {
	// Enhancer defaults to one that always reports a missing credential.
	Enhancer Enhancer
	Exporter Exporter
	// Keymap defaults to DefaultKeymap for the running OS.
	Keymap Keymap
	Logger *logger.Logger
	Clock  func() time.Time
}

// State is a read-only view of the session.
type State struct {
	Document         types.Document `json:"document"`
	ActiveName       string         `json:"active_name"`
	CanUndo          bool           `json:"can_undo"`
	CanRedo          bool           `json:"can_redo"`
	FullPreview      bool           `json:"full_preview"`
	EnhancingSummary bool           `json:"enhancing_summary"`
	EnhancingItems   []string       `json:"enhancing_items"`
	Exporting        bool           `json:"exporting"`
}

// Session holds the current document, its history and the active name.
type Session struct {
	mu sync.Mutex

	adapter *persistence.Adapter
	history *history.History
	doc     types.Document
	active  string

	fullPreview bool

	enhancer Enhancer
	exporter Exporter
	keymap   Keymap

	busyMu    sync.Mutex
	busy      map[string]*semaphore.Weighted
	enhancing map[string]struct{}
	exporting *semaphore.Weighted
	exportOn  bool

	notices    []Notice
	nextNotice int64

	listeners    map[int]chan Event
	nextListener int

	log *logger.Logger
	now func() time.Time
}

// NewSession opens the document chosen by the adapter's startup order. When the
// registry or the chosen document cannot be read, the session starts empty and
// untitled with an error notice.
func NewSession(ctx context.Context, adapter *persistence.Adapter, opts Options) *Session {
	s := &Session{
		adapter:   adapter,
		enhancer:  opts.Enhancer,
		exporter:  opts.Exporter,
		keymap:    opts.Keymap,
		busy:      make(map[string]*semaphore.Weighted),
		enhancing: make(map[string]struct{}),
		exporting: semaphore.NewWeighted(1),
		listeners: make(map[int]chan Event),
		log:       opts.Logger,
		now:       opts.Clock,
	}
	if s.enhancer == nil {
		s.enhancer = enhance.Unconfigured()
	}
	if s.keymap == nil {
		s.keymap = DefaultKeymap(runtime.GOOS)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	s.log = s.log.With("component", "editor")
	if s.now == nil {
		s.now = time.Now
	}

	doc, active, err := adapter.Startup(ctx)
	if err != nil {
		s.log.Error("could not read saved documents, starting empty", "error", err)
		s.noticeLocked(NoticeError, startupFailureMessage(err))
	}
	s.doc = doc
	s.active = active
	s.history = history.New(doc)
	return s
}

// Document returns the current document.
func (s *Session) Document() types.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	st := State{
		Document:    s.doc,
		ActiveName:  s.active,
		CanUndo:     s.history.CanUndo(),
		CanRedo:     s.history.CanRedo(),
		FullPreview: s.fullPreview,
	}

	s.busyMu.Lock()
	st.EnhancingItems = make([]string, 0, len(s.enhancing))
	for target := range s.enhancing {
		if target == summaryTarget {
			st.EnhancingSummary = true
			continue
		}
		st.EnhancingItems = append(st.EnhancingItems, target)
	}
	st.Exporting = s.exportOn
	s.busyMu.Unlock()

	slices.Sort(st.EnhancingItems)
	return st
}

// SetField edits the summary or a personal info field.
func (s *Session) SetField(ctx context.Context, field types.ScalarField, value string) State {
	return s.Edit(ctx, func(doc types.Document) types.Document {
		return mutation.SetScalarField(doc, field, value)
	})
}

// SetItemField edits a field of a list item. Unknown lists, fields and ids are ignored.
func (s *Session) SetItemField(ctx context.Context, list types.ListName, id, field string, value any) State {
	return s.Edit(ctx, func(doc types.Document) types.Document {
		return mutation.SetListItemField(doc, list, id, field, value)
	})
}

// AddItem appends a default item to list and returns its id, or "" for an unknown list.
func (s *Session) AddItem(ctx context.Context, list types.ListName) (string, State) {
	var id string
	st := s.Edit(ctx, func(doc types.Document) types.Document {
		var next types.Document
		next, id = mutation.AddListItem(doc, list)
		return next
	})
	return id, st
}

// RemoveItem removes the item with id from list.
func (s *Session) RemoveItem(ctx context.Context, list types.ListName, id string) State {
	return s.Edit(ctx, func(doc types.Document) types.Document {
		return mutation.RemoveListItem(doc, list, id)
	})
}

// Edit applies fn to the current document, records the result and autosaves it.
// A result equal to the current document changes nothing.
func (s *Session) Edit(ctx context.Context, fn func(types.Document) types.Document) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(ctx, fn(s.doc))
	return s.stateLocked()
}

func (s *Session) applyLocked(ctx context.Context, next types.Document) bool {
	if !s.history.Record(next) {
		return false
	}
	s.doc = next
	s.autosaveLocked(ctx)
	s.publishStateLocked()
	return true
}

// Undo replays the previous snapshot. At the start of the history it does nothing.
func (s *Session) Undo(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.history.Undo(); ok {
		s.replaceLocked(ctx, doc)
	}
	return s.stateLocked()
}

// Redo replays the next snapshot. At the end of the history it does nothing.
func (s *Session) Redo(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.history.Redo(); ok {
		s.replaceLocked(ctx, doc)
	}
	return s.stateLocked()
}

// replaceLocked installs a replayed snapshot without recording it.
func (s *Session) replaceLocked(ctx context.Context, doc types.Document) {
	s.doc = doc
	s.autosaveLocked(ctx)
	s.publishStateLocked()
}

// resetLocked installs doc as a fresh history root.
func (s *Session) resetLocked(doc types.Document, active string) {
	s.doc = doc
	s.active = active
	s.history.Reset(doc)
	s.publishStateLocked()
}

func (s *Session) autosaveLocked(ctx context.Context) {
	if s.active == "" {
		return
	}
	if err := s.adapter.WriteSnapshot(ctx, s.active, s.doc); err != nil {
		s.log.Error("autosave failed", "name", s.active, "error", err)
		s.noticeLocked(NoticeError, "Autosave failed: "+s.active)
	}
}

// TogglePreview switches between the editing layout and the full preview.
func (s *Session) TogglePreview() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullPreview = !s.fullPreview
	s.publishStateLocked()
	return s.stateLocked()
}

func startupFailureMessage(err error) string {
	var notFound *persistence.SnapshotNotFoundError
	var corrupt *persistence.CorruptSnapshotError
	switch {
	case errors.As(err, &notFound):
		return fmt.Sprintf("Saved document %q has no data and could not be opened", notFound.Name)
	case errors.As(err, &corrupt):
		return fmt.Sprintf("Saved document %q is damaged and could not be opened", corrupt.Name)
	default:
		return "Saved documents could not be read"
	}
}
