package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestPicture creates a picture row value with minimal required fields.
func createTestPicture(path string, userID, uploadTime int64) Picture {
	return Picture{
		Path:         path,
		Suffix:       "png",
		UploadUserID: userID,
		UploadTime:   uploadTime,
		Size:         3,
		Checksum:     "c0ffee",
	}
}
