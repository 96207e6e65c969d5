package asset

import (
	"context"
	"fmt"

	"github.com/roach88/shareserver/internal/store"
)

// Entry is one result of a batch read.
type Entry struct {
	ID           int64  `json:"id" cbor:"id"`
	Bytes        []byte `json:"bytes" cbor:"bytes"`
	UploadTime   int64  `json:"uploadTime" cbor:"uploadTime"`
	UploadUserID int64  `json:"uploadUserId" cbor:"uploadUserId"`
}

// Placeholder is the entry returned for an id that could not be read.
// It keeps the requested id and zeroes everything else.
func Placeholder(id int64) Entry {
	return Entry{ID: id, Bytes: []byte{}}
}

// IsPlaceholder reports whether e carries no picture data.
func (e Entry) IsPlaceholder() bool {
	return len(e.Bytes) == 0 && e.UploadTime == 0 && e.UploadUserID == 0
}

// Get returns the metadata row for id.
func (s *Store) Get(ctx context.Context, id int64) (store.Picture, error) {
	pic, err := s.pictures.GetByID(ctx, id)
	if err != nil {
		return store.Picture{}, fmt.Errorf("get picture: %w", err)
	}
	return pic, nil
}

// Read returns the row and blob contents for id, verifying the recorded
// checksum when there is one.
func (s *Store) Read(ctx context.Context, id int64) (store.Picture, []byte, error) {
	pic, err := s.pictures.GetByID(ctx, id)
	if err != nil {
		return store.Picture{}, nil, fmt.Errorf("read picture: %w", err)
	}
	data, err := s.blobs.Read(ctx, pic.Path)
	if err != nil {
		return store.Picture{}, nil, fmt.Errorf("read picture %d: %w", id, err)
	}
	if pic.Checksum != "" && Checksum(data) != pic.Checksum {
		return store.Picture{}, nil, fmt.Errorf("read picture %d: %w", id, ErrChecksumMismatch)
	}
	return pic, data, nil
}

// ReadBatch reads every id independently and returns one entry per id, in
// request order. An id that cannot be read for any reason yields its
// Placeholder; the batch itself never fails.
func (s *Store) ReadBatch(ctx context.Context, ids []int64) []Entry {
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		pic, data, err := s.Read(ctx, id)
		if err != nil {
			s.logger.Debug("picture unavailable, returning placeholder", "id", id, "error", err)
			entries = append(entries, Placeholder(id))
			continue
		}
		entries = append(entries, Entry{
			ID:           pic.ID,
			Bytes:        data,
			UploadTime:   pic.UploadTime,
			UploadUserID: pic.UploadUserID,
		})
	}
	return entries
}

// List returns up to limit pictures uploaded by userID, newest first.
func (s *Store) List(ctx context.Context, userID int64, limit int) ([]store.Picture, error) {
	pics, err := s.pictures.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list pictures: %w", err)
	}
	return pics, nil
}
