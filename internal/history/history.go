// Package history keeps the linear undo/redo log of document snapshots.
package history

import (
	"github.com/huandu/go-clone"

	"github.com/jonathan/cv-builder/internal/types"
)

// History is a non-empty log of snapshots with a cursor pointing at the active one.
// It is not safe for concurrent use; the owning session serializes access.
//
// Record is the only way to add entries. Undo and Redo move the cursor and hand back
// the snapshot to replay; replaying it must not go through Record.
type History struct {
	entries []types.Document
	cursor  int
}

// New returns a log seeded with initial.
func New(initial types.Document) *History {
	h := &History{}
	h.Reset(initial)
	return h
}

// Reset discards every entry and reseeds the log with doc.
func (h *History) Reset(doc types.Document) {
	h.entries = []types.Document{clone.Clone(doc).(types.Document)}
	h.cursor = 0
}

// Record appends doc as the new active snapshot and reports whether the log changed.
// A doc equal to the active snapshot is ignored. Any redo branch is discarded.
func (h *History) Record(doc types.Document) bool {
	if doc.Equal(h.entries[h.cursor]) {
		return false
	}

	// Truncate through a full slice expression so the next append never writes
	// into entries a caller may still hold.
	h.entries = append(h.entries[:h.cursor+1:h.cursor+1], clone.Clone(doc).(types.Document))
	h.cursor = len(h.entries) - 1
	return true
}

// Undo moves the cursor back and returns the snapshot to replay.
// At the start of the log it returns false and changes nothing.
func (h *History) Undo() (types.Document, bool) {
	if !h.CanUndo() {
		return types.Document{}, false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Redo moves the cursor forward and returns the snapshot to replay.
// At the end of the log it returns false and changes nothing.
func (h *History) Redo() (types.Document, bool) {
	if !h.CanRedo() {
		return types.Document{}, false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// CanUndo reports whether an older snapshot exists.
func (h *History) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo reports whether a newer snapshot exists.
func (h *History) CanRedo() bool {
	return h.cursor < len(h.entries)-1
}

// Current returns the active snapshot.
func (h *History) Current() types.Document {
	return h.entries[h.cursor]
}

// Len returns the number of snapshots in the log.
func (h *History) Len() int {
	return len(h.entries)
}

// Cursor returns the index of the active snapshot.
func (h *History) Cursor() int {
	return h.cursor
}
