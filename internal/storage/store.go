// Package storage provides the string-keyed byte store that holds saved CV documents.
//
// Backends are selected by URL: memory://, sqlite://<path> (or a bare *.db path),
// postgres:// and redis://. None of them offer transactions across keys.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// Store is a flat key-value store.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns every key starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases the underlying connection.
	Close() error
}

// Open connects to the backend named by rawURL.
func Open(ctx context.Context, rawURL string) (Store, error) {
	rawURL = strings.TrimSpace(rawURL)
	switch {
	case rawURL == "":
		return nil, fmt.Errorf("store URL is required")
	case strings.HasPrefix(rawURL, "memory://"):
		return NewMemoryStore(), nil
	case strings.HasPrefix(rawURL, "sqlite://"):
		return NewSQLiteStore(strings.TrimPrefix(rawURL, "sqlite://"))
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		return NewPostgresStore(ctx, rawURL)
	case strings.HasPrefix(rawURL, "redis://"), strings.HasPrefix(rawURL, "rediss://"):
		return NewRedisStore(ctx, rawURL)
	case strings.HasSuffix(rawURL, ".db") && !strings.Contains(rawURL, "://"):
		return NewSQLiteStore(rawURL)
	default:
		return nil, fmt.Errorf("unsupported store URL %q", rawURL)
	}
}

// SupportedScheme reports whether Open recognizes rawURL.
func SupportedScheme(rawURL string) bool {
	rawURL = strings.TrimSpace(rawURL)
	for _, prefix := range []string{"memory://", "sqlite://", "postgres://", "postgresql://", "redis://", "rediss://"} {
		if strings.HasPrefix(rawURL, prefix) {
			return true
		}
	}
	return strings.HasSuffix(rawURL, ".db") && !strings.Contains(rawURL, "://")
}
