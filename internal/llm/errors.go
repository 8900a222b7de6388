package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/grpc/codes"
)

var (
	// ErrMissingCredential means no API key is configured or the provider rejected it.
	ErrMissingCredential = errors.New("language model credential is missing or invalid")

	// ErrMalformedResponse means the provider answered without usable text.
	ErrMalformedResponse = errors.New("language model returned no usable text")
)

// RateLimitError is returned when the provider throttles the caller.
// RetryAfter is the delay the provider asked for, or zero when it gave none.
type RateLimitError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("language model rate limited, retry after %s: %v", e.RetryAfter, e.Cause)
	}
	return fmt.Sprintf("language model rate limited: %v", e.Cause)
}

func (e *RateLimitError) Unwrap() error {
	return e.Cause
}

// TransientError wraps server and network failures that may succeed on retry.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("language model temporarily unavailable: %v", e.Cause)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// ClassifyError maps a provider error onto ErrMissingCredential, ErrMalformedResponse,
// *RateLimitError or *TransientError. Errors already classified and caller
// cancellation are returned unchanged; anything else is returned as is and should
// not be retried.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var rateLimited *RateLimitError
	var transient *TransientError
	switch {
	case errors.Is(err, ErrMissingCredential), errors.Is(err, ErrMalformedResponse),
		errors.As(err, &rateLimited), errors.As(err, &transient),
		errors.Is(err, context.Canceled):
		return err
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if ae, ok := apierror.FromError(err); ok {
		return classifyAPIError(ae, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &TransientError{Cause: err}
	}
	return err
}

func classifyAPIError(ae *apierror.APIError, err error) error {
	code := ae.GRPCStatus().Code()
	httpCode := ae.HTTPCode()

	switch {
	case code == codes.Unauthenticated, code == codes.PermissionDenied,
		httpCode == http.StatusUnauthorized, httpCode == http.StatusForbidden,
		ae.Reason() == "API_KEY_INVALID":
		return fmt.Errorf("%w: %v", ErrMissingCredential, err)

	case code == codes.ResourceExhausted, httpCode == http.StatusTooManyRequests:
		var delay time.Duration
		if info := ae.Details().RetryInfo; info != nil {
			delay = info.GetRetryDelay().AsDuration()
		}
		return &RateLimitError{RetryAfter: delay, Cause: err}

	case code == codes.Unavailable, code == codes.Internal, code == codes.DeadlineExceeded,
		code == codes.Unknown, code == codes.Aborted, httpCode >= 500:
		return &TransientError{Cause: err}
	}
	return err
}

// Retryable reports whether a classified error may succeed on another attempt.
func Retryable(err error) bool {
	var rateLimited *RateLimitError
	var transient *TransientError
	return errors.As(err, &rateLimited) || errors.As(err, &transient)
}
