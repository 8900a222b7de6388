package persistence

import "fmt"

// InvalidNameError is returned when a document is saved under a blank name.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid document name %q: name must not be blank", e.Name)
}

// SnapshotNotFoundError is returned when a name has no stored snapshot.
// The registry may still list it if a save was interrupted.
type SnapshotNotFoundError struct {
	Name string
}

func (e *SnapshotNotFoundError) Error() string {
	return fmt.Sprintf("no saved document named %q", e.Name)
}

// CorruptSnapshotError is returned when a stored snapshot is not valid JSON.
type CorruptSnapshotError struct {
	Name  string
	Cause error
}

func (e *CorruptSnapshotError) Error() string {
	return fmt.Sprintf("saved document %q is corrupt: %v", e.Name, e.Cause)
}

func (e *CorruptSnapshotError) Unwrap() error {
	return e.Cause
}

// ImportError is returned when an imported payload fails the structural check.
type ImportError struct {
	Message string
	Cause   error
}

func (e *ImportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ImportError) Unwrap() error {
	return e.Cause
}
