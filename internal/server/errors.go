// Package server exposes an editing session over an HTTP JSON API.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/cv-builder/internal/editor"
	"github.com/jonathan/cv-builder/internal/enhance"
	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/llm"
	"github.com/jonathan/cv-builder/internal/persistence"
)

// ErrValidation indicates a malformed request.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates that a path names a list, field or item that does not exist.
type ErrNotFound struct {
	What string
}

func (e *ErrNotFound) Error() string {
	return e.What + " not found"
}

// HTTPStatus returns the HTTP status code for an error returned by the session
// or a request decoder.
func HTTPStatus(err error) int {
	var (
		validation   *ErrValidation
		notFound     *ErrNotFound
		targetGone   *editor.TargetNotFoundError
		unknownCmd   *editor.UnknownCommandError
		unboundKey   *editor.UnboundKeyError
		invalidName  *persistence.InvalidNameError
		noSnapshot   *persistence.SnapshotNotFoundError
		badImport    *persistence.ImportError
		badFormat    *export.UnsupportedFormatError
		rateLimited  *llm.RateLimitError
		transientLLM *llm.TransientError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation), errors.As(err, &invalidName), errors.As(err, &badImport),
		errors.As(err, &badFormat), errors.Is(err, enhance.ErrEmptyText):
		return http.StatusBadRequest
	case errors.As(err, &notFound), errors.As(err, &targetGone), errors.As(err, &unknownCmd),
		errors.As(err, &unboundKey), errors.As(err, &noSnapshot):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &rateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, llm.ErrMalformedResponse), errors.As(err, &transientLLM):
		return http.StatusBadGateway
	case errors.Is(err, llm.ErrMissingCredential), errors.Is(err, editor.ErrNoExporter),
		errors.Is(err, export.ErrPDFUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
