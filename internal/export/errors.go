package export

import (
	"errors"
	"fmt"
)

// ErrPDFUnavailable is returned when no browser is configured for PDF printing.
var ErrPDFUnavailable = errors.New("pdf export is not available")

// UnsupportedFormatError is returned for an unknown format name.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format %q", e.Format)
}

// Error wraps a failed export.
type Error struct {
	Format Format
	Cause  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export to %s failed: %v", e.Format, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
