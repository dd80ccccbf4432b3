package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound reports that a locator does not resolve to a stored object.
// Any other fetch error should be treated as transient by callers.
var ErrNotFound = errors.New("object not found")

// Storage resolves opaque locators to raw bytes. Locators are written once
// at upload time and never rewritten.
type Storage interface {
	Upload(ctx context.Context, path string, data io.Reader, contentType string) error
	Fetch(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}
