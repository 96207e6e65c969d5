// Package asset keeps picture blobs and their metadata rows consistent.
//
// A metadata row is only ever visible for a blob that was completely
// written. Uploads write the blob first and roll it back if the row
// insert fails; deletes remove the blob first and the row last. A blob
// may outlive its row (an orphan blob), never the reverse.
package asset

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/zeebo/blake3"

	"github.com/roach88/shareserver/internal/blob"
	"github.com/roach88/shareserver/internal/store"
)

// DefaultBasePath is the blob directory pictures are written under.
const DefaultBasePath = "pictures"

// PictureDao is the subset of the metadata store the asset layer uses.
// *store.PictureDao satisfies it.
type PictureDao interface {
	Add(ctx context.Context, p *store.Picture) (int64, error)
	GetByID(ctx context.Context, id int64) (store.Picture, error)
	Delete(ctx context.Context, p store.Picture) (int64, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]store.Picture, error)
}

// codedError is a sentinel that carries its own wire error code.
type codedError struct {
	code string
	msg  string
}

func (e *codedError) Error() string     { return e.msg }
func (e *codedError) ErrorCode() string { return e.code }

var (
	// ErrInsertRejected is returned when the metadata insert affected no rows.
	ErrInsertRejected error = &codedError{code: "DATABASE", msg: "picture row was not inserted"}

	// ErrDeleteRejected is returned when the metadata delete affected no rows.
	ErrDeleteRejected error = &codedError{code: "DATABASE", msg: "picture row was not deleted"}

	// ErrChecksumMismatch is returned when blob bytes no longer match the
	// checksum recorded at upload.
	ErrChecksumMismatch error = &codedError{code: "STORAGE", msg: "picture checksum mismatch"}
)

// Store coordinates the blob store and the picture rows.
// It holds no per-call state and is safe for concurrent use.
type Store struct {
	blobs    blob.Store
	pictures PictureDao
	basePath string
	names    blob.NameGenerator
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithBasePath sets the blob directory. Defaults to DefaultBasePath.
func WithBasePath(basePath string) Option {
	return func(s *Store) {
		s.basePath = basePath
	}
}

// WithNames sets the blob name generator. Defaults to blob.UUIDNames.
func WithNames(names blob.NameGenerator) Option {
	return func(s *Store) {
		if names != nil {
			s.names = names
		}
	}
}

// WithClock sets the source of upload times. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an asset store over blobs and pictures.
func New(blobs blob.Store, pictures PictureDao, opts ...Option) *Store {
	s := &Store{
		blobs:    blobs,
		pictures: pictures,
		basePath: DefaultBasePath,
		names:    blob.UUIDNames{},
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checksum returns the hex BLAKE3-256 digest recorded for blob contents.
func Checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
