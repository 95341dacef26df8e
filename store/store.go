// Package store persists the book as independently keyed JSON documents.
//
// A KV is the only thing the book needs from a storage engine: whole
// documents are read on load and rewritten wholesale on every change.
package store

import (
	"context"
	"errors"
	"regexp"
)

// ErrNotFound is returned by Get when the key holds no document.
var ErrNotFound = errors.New("key not found")

// KV is a key-value store of JSON documents.
type KV interface {
	// Get returns the document stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the document stored under key.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the underlying resources.
	Close() error
}

var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// ValidKey reports whether key can be used in every backend, including as a file name.
func ValidKey(key string) bool { return keyPattern.MatchString(key) }
