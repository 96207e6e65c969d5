package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// FileStore keeps blobs as files under a root directory.
// It has no mutable state besides the filesystem and is safe for
// concurrent use.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed and returns a store
// rooted there.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("open blob store: %w", ErrInvalidPath)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Root returns the directory blobs are stored under.
func (s *FileStore) Root() string {
	return s.root
}

// Save writes to a temporary file in the target directory and hard-links
// it into place, so the blob appears atomically and an existing blob with
// the same name is never overwritten.
func (s *FileStore) Save(ctx context.Context, basePath, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("save blob: %w", err)
	}

	storagePath := path.Join(filepath.ToSlash(basePath), name)
	full, err := s.resolve(storagePath)
	if err != nil {
		return "", fmt.Errorf("save blob: %w", err)
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("save blob: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("save blob: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("save blob: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("save blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("save blob: %w", err)
	}
	if err := os.Link(tmpName, full); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("save blob %s: %w", storagePath, ErrExists)
		}
		return "", fmt.Errorf("save blob: %w", err)
	}

	return storagePath, nil
}

// Delete removes the blob file.
func (s *FileStore) Delete(ctx context.Context, storagePath string) error {
	full, err := s.resolve(storagePath)
	if err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete blob %s: %w", storagePath, ErrNotFound)
		}
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// Read returns the blob contents.
func (s *FileStore) Read(ctx context.Context, storagePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	full, err := s.resolve(storagePath)
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read blob %s: %w", storagePath, ErrNotFound)
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// resolve maps a storage path to a file under root, rejecting anything
// that would land outside it.
func (s *FileStore) resolve(storagePath string) (string, error) {
	local := filepath.FromSlash(storagePath)
	if storagePath == "" || !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, storagePath)
	}
	return filepath.Join(s.root, local), nil
}
