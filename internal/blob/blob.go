// Package blob stores opaque byte payloads addressed by a storage path.
//
// Paths returned by Save are relative to the store root and slash
// separated, so metadata rows stay valid if the root directory moves.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// ErrNotFound is returned by Read and Delete when no blob exists at the
// path. It matches fs.ErrNotExist under errors.Is.
var ErrNotFound = fmt.Errorf("blob not found: %w", fs.ErrNotExist)

// ErrExists is returned by Save when a blob already exists at the target
// path. The existing blob is left untouched.
var ErrExists = fmt.Errorf("blob already exists: %w", fs.ErrExist)

// ErrInvalidPath is returned for paths that are empty or escape the root.
var ErrInvalidPath = errors.New("invalid blob path")

// Store is the blob store contract the asset layer depends on.
type Store interface {
	// Save writes data under basePath/name and returns the storage path.
	// A reader never observes a partially written blob, and an existing
	// blob is never replaced (ErrExists).
	Save(ctx context.Context, basePath, name string, data []byte) (string, error)

	// Delete removes the blob at path. Returns ErrNotFound if it is missing.
	Delete(ctx context.Context, path string) error

	// Read returns the blob at path. Returns ErrNotFound if it is missing.
	Read(ctx context.Context, path string) ([]byte, error)
}
