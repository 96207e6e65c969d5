package asset

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/shareserver/internal/blob"
	"github.com/roach88/shareserver/internal/store"
)

// ErrEmptyData is returned by Upload for a zero-length payload.
var ErrEmptyData = errors.New("picture data is empty")

// Upload stores data as a new picture owned by owner and returns its row.
//
// The blob is written before the row. If the row insert fails or affects
// no rows, the blob is deleted again; a failed rollback is logged and the
// insert failure is returned unchanged.
func (s *Store) Upload(ctx context.Context, owner int64, suffix string, data []byte) (pic store.Picture, err error) {
	if len(data) == 0 {
		return store.Picture{}, ErrEmptyData
	}
	suffix, err = blob.NormalizeSuffix(suffix)
	if err != nil {
		return store.Picture{}, fmt.Errorf("upload picture: %w", err)
	}

	var (
		fileSaved bool
		success   bool
		path      string
	)
	defer func() {
		if success || !fileSaved {
			return
		}
		if rbErr := s.blobs.Delete(context.WithoutCancel(ctx), path); rbErr != nil {
			s.logger.Error("rollback of picture blob failed",
				"path", path,
				"error", rbErr,
				"cause", err)
			return
		}
		s.logger.Debug("rolled back picture blob", "path", path)
	}()

	name := s.names.Name(suffix)
	path, err = s.blobs.Save(ctx, s.basePath, name, data)
	if err != nil {
		return store.Picture{}, fmt.Errorf("upload picture: %w", err)
	}
	fileSaved = true

	pic = store.Picture{
		Path:         path,
		Suffix:       suffix,
		UploadUserID: owner,
		UploadTime:   s.now().UnixMilli(),
		Size:         int64(len(data)),
		Checksum:     Checksum(data),
	}
	rows, err := s.pictures.Add(ctx, &pic)
	if err != nil {
		return store.Picture{}, fmt.Errorf("upload picture: %w", err)
	}
	if rows == 0 {
		return store.Picture{}, fmt.Errorf("upload picture %s: %w", path, ErrInsertRejected)
	}

	success = true
	s.logger.Debug("picture uploaded",
		"id", pic.ID,
		"path", path,
		"user_id", owner,
		"size", pic.Size)
	return pic, nil
}

// Delete removes the picture with the given id.
//
// Returns store.ErrNotFound when no row exists, without touching any blob.
// A blob that cannot be deleted (already missing, unreadable directory) is
// logged and skipped; only the row delete decides the result.
func (s *Store) Delete(ctx context.Context, id int64) error {
	pic, err := s.pictures.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete picture: %w", err)
	}

	if err := s.blobs.Delete(ctx, pic.Path); err != nil {
		s.logger.Warn("picture blob delete failed, removing row anyway",
			"id", id,
			"path", pic.Path,
			"error", err)
	}

	rows, err := s.pictures.Delete(ctx, pic)
	if err != nil {
		return fmt.Errorf("delete picture: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete picture %d: %w", id, ErrDeleteRejected)
	}

	s.logger.Debug("picture deleted", "id", id, "path", pic.Path)
	return nil
}
