// Package persistence maps named CV documents onto a key-value store.
//
// The store holds three kinds of keys: the registry of names, the last active name,
// and one JSON snapshot per name. Writes to different keys are not atomic, so a
// registry entry may lack its snapshot (Load reports it) and a snapshot may lack its
// registry entry (Orphans finds it).
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jonathan/cv-builder/internal/document"
	"github.com/jonathan/cv-builder/internal/logger"
	"github.com/jonathan/cv-builder/internal/schemas"
	"github.com/jonathan/cv-builder/internal/storage"
	"github.com/jonathan/cv-builder/internal/types"
)

// Store keys
const (
	NamesKey   = "cv_builder:names"
	CurrentKey = "cv_builder:current"
	DataPrefix = "cv_builder:data:"
)

// DataKey returns the key holding the snapshot saved under name.
func DataKey(name string) string {
	return DataPrefix + name
}

// Adapter reads and writes named documents.
type Adapter struct {
	store storage.Store
	log   *logger.Logger
}

// New creates an Adapter over store.
func New(store storage.Store, log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.Nop()
	}
	return &Adapter{store: store, log: log.With("component", "persistence")}
}

// ListNames returns the registered names in the order they were first saved.
// An unreadable registry is logged and treated as empty.
func (a *Adapter) ListNames(ctx context.Context) ([]string, error) {
	data, err := a.store.Get(ctx, NamesKey)
	if errors.Is(err, storage.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document registry: %w", err)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		a.log.Warn("document registry is corrupt, treating it as empty", "error", err)
		return []string{}, nil
	}
	return dedupe(names), nil
}

// Save writes doc under name, registers name if new and marks it active.
func (a *Adapter) Save(ctx context.Context, name string, doc types.Document) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &InvalidNameError{Name: name}
	}

	if err := a.WriteSnapshot(ctx, name, doc); err != nil {
		return err
	}

	names, err := a.ListNames(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(names, name) {
		if err := a.writeNames(ctx, append(names, name)); err != nil {
			return err
		}
	}

	if err := a.setActive(ctx, name); err != nil {
		return err
	}
	a.log.Info("document saved", "name", name)
	return nil
}

// Load reads and repairs the snapshot saved under name and marks name active.
func (a *Adapter) Load(ctx context.Context, name string) (types.Document, error) {
	data, err := a.store.Get(ctx, DataKey(name))
	if errors.Is(err, storage.ErrNotFound) {
		return types.Document{}, &SnapshotNotFoundError{Name: name}
	}
	if err != nil {
		return types.Document{}, fmt.Errorf("failed to read document %q: %w", name, err)
	}

	doc, err := document.NormalizeJSON(data)
	if err != nil {
		return types.Document{}, &CorruptSnapshotError{Name: name, Cause: err}
	}

	if err := a.setActive(ctx, name); err != nil {
		return types.Document{}, err
	}
	a.log.Info("document loaded", "name", name)
	return doc, nil
}

// Delete removes the snapshot and registry entry for name and returns the names
// that remain. The active marker is cleared when it pointed at name.
func (a *Adapter) Delete(ctx context.Context, name string) ([]string, error) {
	if err := a.store.Delete(ctx, DataKey(name)); err != nil {
		return nil, fmt.Errorf("failed to delete document %q: %w", name, err)
	}

	names, err := a.ListNames(ctx)
	if err != nil {
		return nil, err
	}
	remaining := slices.DeleteFunc(names, func(n string) bool { return n == name })
	if err := a.writeNames(ctx, remaining); err != nil {
		return nil, err
	}

	active, err := a.Active(ctx)
	if err != nil {
		return nil, err
	}
	if active == name {
		if err := a.ClearActive(ctx); err != nil {
			return nil, err
		}
	}

	a.log.Info("document deleted", "name", name, "remaining", len(remaining))
	return remaining, nil
}

// WriteSnapshot overwrites the snapshot for name without touching the registry.
// It is the autosave path.
func (a *Adapter) WriteSnapshot(ctx context.Context, name string, doc types.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %q: %w", name, err)
	}
	if err := a.store.Set(ctx, DataKey(name), data); err != nil {
		return fmt.Errorf("failed to write document %q: %w", name, err)
	}
	return nil
}

// Active returns the last active name, or "" when there is none.
func (a *Adapter) Active(ctx context.Context) (string, error) {
	data, err := a.store.Get(ctx, CurrentKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read active document: %w", err)
	}
	return string(data), nil
}

// ClearActive forgets the last active name.
func (a *Adapter) ClearActive(ctx context.Context) error {
	if err := a.store.Delete(ctx, CurrentKey); err != nil {
		return fmt.Errorf("failed to clear active document: %w", err)
	}
	return nil
}

// Startup resolves the document to open when a session starts: the last active
// registered name, then the first registered name, then an empty untitled document.
// When the registry cannot be read, or the chosen name cannot be loaded, the
// empty document is returned together with the error so the caller can report it.
func (a *Adapter) Startup(ctx context.Context) (types.Document, string, error) {
	names, err := a.ListNames(ctx)
	if err != nil {
		return types.EmptyDocument(), "", err
	}
	if len(names) == 0 {
		return types.EmptyDocument(), "", nil
	}

	name := names[0]
	active, err := a.Active(ctx)
	if err != nil {
		a.log.Warn("could not read active document marker", "error", err)
	} else if slices.Contains(names, active) {
		name = active
	}

	doc, err := a.Load(ctx, name)
	if err != nil {
		a.log.Warn("startup load failed, starting with an empty document", "name", name, "error", err)
		return types.EmptyDocument(), "", err
	}
	return doc, name, nil
}

// Import checks payload for a personal name and a skills list and returns the
// repaired document. Nothing is written to the store.
func (a *Adapter) Import(payload []byte) (types.Document, error) {
	if err := schemas.ValidateImport(payload); err != nil {
		return types.Document{}, &ImportError{Message: "imported file is not a CV document", Cause: err}
	}

	doc, err := document.NormalizeJSON(payload)
	if err != nil {
		return types.Document{}, &ImportError{Message: "imported file is not valid JSON", Cause: err}
	}
	return doc, nil
}

// ExportJSON returns doc as indented JSON.
func (a *Adapter) ExportJSON(doc types.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

// Orphans returns names that have a stored snapshot but no registry entry.
func (a *Adapter) Orphans(ctx context.Context) ([]string, error) {
	keys, err := a.store.Keys(ctx, DataPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored documents: %w", err)
	}
	names, err := a.ListNames(ctx)
	if err != nil {
		return nil, err
	}

	orphans := []string{}
	for _, key := range keys {
		name := strings.TrimPrefix(key, DataPrefix)
		if name != "" && !slices.Contains(names, name) {
			orphans = append(orphans, name)
		}
	}
	return orphans, nil
}

// Rediscover registers every orphaned snapshot and returns the names it added.
func (a *Adapter) Rediscover(ctx context.Context) ([]string, error) {
	orphans, err := a.Orphans(ctx)
	if err != nil {
		return nil, err
	}
	if len(orphans) == 0 {
		return orphans, nil
	}

	names, err := a.ListNames(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.writeNames(ctx, append(names, orphans...)); err != nil {
		return nil, err
	}
	a.log.Info("orphaned documents registered", "count", len(orphans))
	return orphans, nil
}

func (a *Adapter) writeNames(ctx context.Context, names []string) error {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to encode document registry: %w", err)
	}
	if err := a.store.Set(ctx, NamesKey, data); err != nil {
		return fmt.Errorf("failed to write document registry: %w", err)
	}
	return nil
}

func (a *Adapter) setActive(ctx context.Context, name string) error {
	if err := a.store.Set(ctx, CurrentKey, []byte(name)); err != nil {
		return fmt.Errorf("failed to mark %q active: %w", name, err)
	}
	return nil
}

// dedupe drops repeated names, keeping the first occurrence.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
