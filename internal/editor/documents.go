package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/persistence"
	"github.com/jonathan/cv-builder/internal/types"
)

// Names returns the registered document names.
func (s *Session) Names(ctx context.Context) ([]string, error) {
	return s.adapter.ListNames(ctx)
}

// New replaces the document with an empty untitled one and clears the history.
func (s *Session) New(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked(types.EmptyDocument(), "")
	s.clearActiveMarkerLocked(ctx)
	s.noticeLocked(NoticeInfo, "New document")
	return s.stateLocked()
}

// Save stores the current document under name and makes it the active name.
// A blank name saves under the current active name.
func (s *Session) Save(ctx context.Context, name string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		name = s.active
	}
	if err := s.adapter.Save(ctx, name, s.doc); err != nil {
		s.log.Warn("save failed", "name", name, "error", err)
		s.noticeLocked(NoticeError, saveFailureMessage(err))
		return s.stateLocked(), err
	}

	s.active = name
	s.publishStateLocked()
	s.noticeLocked(NoticeSuccess, fmt.Sprintf("Saved %q", name))
	return s.stateLocked(), nil
}

// Load replaces the document with the snapshot saved under name. On failure the
// session is unchanged.
func (s *Session) Load(ctx context.Context, name string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx, name); err != nil {
		return s.stateLocked(), err
	}
	s.noticeLocked(NoticeSuccess, fmt.Sprintf("Loaded %q", name))
	return s.stateLocked(), nil
}

func (s *Session) loadLocked(ctx context.Context, name string) error {
	doc, err := s.adapter.Load(ctx, name)
	if err != nil {
		s.log.Warn("load failed", "name", name, "error", err)
		s.noticeLocked(NoticeError, loadFailureMessage(name, err))
		return err
	}
	s.resetLocked(doc, name)
	return nil
}

// Delete removes the document saved under name. Deleting the active document
// loads the first remaining one, or starts an empty untitled document.
func (s *Session) Delete(ctx context.Context, name string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining, err := s.adapter.Delete(ctx, name)
	if err != nil {
		s.log.Warn("delete failed", "name", name, "error", err)
		s.noticeLocked(NoticeError, fmt.Sprintf("Could not delete %q", name))
		return s.stateLocked(), err
	}
	s.noticeLocked(NoticeSuccess, fmt.Sprintf("Deleted %q", name))

	if name != s.active {
		return s.stateLocked(), nil
	}

	if len(remaining) > 0 && s.loadLocked(ctx, remaining[0]) == nil {
		return s.stateLocked(), nil
	}
	s.resetLocked(types.EmptyDocument(), "")
	return s.stateLocked(), nil
}

// Import replaces the document with an external JSON payload. The result is
// untitled until saved. A payload without a personal name or a skills list is
// rejected and the session is unchanged.
func (s *Session) Import(ctx context.Context, payload []byte) (State, error) {
	doc, err := s.adapter.Import(payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.log.Warn("import rejected", "error", err)
		s.noticeLocked(NoticeError, "Invalid file: a CV needs personalInfo.name and a skills list")
		return s.stateLocked(), err
	}

	s.resetLocked(doc, "")
	s.clearActiveMarkerLocked(ctx)
	s.noticeLocked(NoticeSuccess, "CV imported")
	return s.stateLocked(), nil
}

// Rediscover registers snapshots that have no registry entry and returns their names.
func (s *Session) Rediscover(ctx context.Context) ([]string, error) {
	found, err := s.adapter.Rediscover(ctx)
	if err != nil {
		return nil, err
	}
	if len(found) > 0 {
		s.mu.Lock()
		s.noticeLocked(NoticeInfo, fmt.Sprintf("Recovered %d document(s)", len(found)))
		s.mu.Unlock()
	}
	return found, nil
}

// Export renders the current document. Only one export runs at a time; a second
// call while one is in flight returns ErrBusy.
func (s *Session) Export(ctx context.Context, format export.Format, fileName string) (export.Artifact, error) {
	if s.exporter == nil {
		s.notice(NoticeError, "Export is not available")
		return export.Artifact{}, ErrNoExporter
	}
	if !s.exporting.TryAcquire(1) {
		s.notice(NoticeInfo, "An export is already running")
		return export.Artifact{}, ErrBusy
	}
	s.setExporting(true)
	defer func() {
		s.setExporting(false)
		s.exporting.Release(1)
	}()

	doc := s.Document()
	artifact, err := s.exporter.Export(ctx, doc, format, fileName)
	if err != nil {
		s.log.Error("export failed", "format", format, "error", err)
		s.notice(NoticeError, "Export failed")
		return export.Artifact{}, err
	}
	s.notice(NoticeSuccess, "Exported "+artifact.FileName)
	return artifact, nil
}

func (s *Session) setExporting(on bool) {
	s.busyMu.Lock()
	s.exportOn = on
	s.busyMu.Unlock()

	s.mu.Lock()
	s.publishStateLocked()
	s.mu.Unlock()
}

func (s *Session) notice(kind NoticeKind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noticeLocked(kind, message)
}

func (s *Session) clearActiveMarkerLocked(ctx context.Context) {
	if err := s.adapter.ClearActive(ctx); err != nil {
		s.log.Warn("could not clear active document marker", "error", err)
	}
}

func saveFailureMessage(err error) string {
	var invalid *persistence.InvalidNameError
	if errors.As(err, &invalid) {
		return "Enter a name to save the CV"
	}
	return "Could not save the CV"
}

func loadFailureMessage(name string, err error) string {
	var notFound *persistence.SnapshotNotFoundError
	var corrupt *persistence.CorruptSnapshotError
	switch {
	case errors.As(err, &notFound):
		return fmt.Sprintf("No saved data for %q", name)
	case errors.As(err, &corrupt):
		return fmt.Sprintf("Saved data for %q is damaged", name)
	default:
		return fmt.Sprintf("Could not load %q", name)
	}
}
