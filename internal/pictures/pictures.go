package pictures

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/shareserver/internal/asset"
	"github.com/roach88/shareserver/internal/blob"
	"github.com/roach88/shareserver/internal/envelope"
	"github.com/roach88/shareserver/internal/rpc"
	"github.com/roach88/shareserver/internal/session"
	"github.com/roach88/shareserver/internal/store"
)

// PictureServiceName is the service name picture procedures register under.
const PictureServiceName = "PictureService"

// Listing bounds for listPictures.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// UploadResult is the payload of uploadPicture.
type UploadResult struct {
	ID int64 `json:"id" cbor:"id"`
}

// PicturesResult is the payload of getPictures.
type PicturesResult struct {
	Count    int           `json:"count" cbor:"count"`
	Pictures []asset.Entry `json:"pictures" cbor:"pictures"`
}

// ListResult is the payload of listPictures.
type ListResult struct {
	Count      int     `json:"count" cbor:"count"`
	PictureIDs []int64 `json:"pictureIds" cbor:"pictureIds"`
}

// PictureService serves picture uploads, reads and deletes.
type PictureService struct {
	assets *asset.Store
}

// NewPictureService creates the service over an asset store.
func NewPictureService(assets *asset.Store) *PictureService {
	return &PictureService{assets: assets}
}

// Register adds every picture procedure to reg.
func (s *PictureService) Register(reg *rpc.Registry) error {
	procedures := []struct {
		name    string
		min     session.Privilege
		handler rpc.Handler
	}{
		{"uploadPicture", session.PrivilegeLogged, s.uploadPicture},
		{"getPictures", session.PrivilegePublic, s.getPictures},
		{"deletePicture", session.PrivilegeLogged, s.deletePicture},
		{"listPictures", session.PrivilegeLogged, s.listPictures},
	}
	for _, p := range procedures {
		if err := reg.Register(PictureServiceName, p.name, p.min, p.handler); err != nil {
			return fmt.Errorf("register picture service: %w", err)
		}
	}
	return nil
}

func (s *PictureService) uploadPicture(ctx context.Context, call *rpc.Call) (envelope.Envelope, error) {
	suffix, err := call.Params.StringOr("suffix", "")
	if err != nil {
		return envelope.Envelope{}, err
	}
	data, err := call.Params.Bytes("bytes")
	if err != nil {
		return envelope.Envelope{}, err
	}
	if len(data) == 0 {
		return envelope.Envelope{}, envelope.NewError(envelope.CodeParameter, "parameter bytes must not be empty")
	}

	pic, err := s.assets.Upload(ctx, call.Session.UserID, suffix, data)
	if err != nil {
		if errors.Is(err, blob.ErrInvalidSuffix) {
			return envelope.Envelope{}, envelope.WrapError(envelope.CodeParameter, fmt.Sprintf("invalid suffix %q", suffix), err)
		}
		return envelope.Envelope{}, envelope.WrapError(envelope.Wrap(err), "upload failed", err)
	}

	return envelope.NewSuccessfulResult("upload succeeded", UploadResult{ID: pic.ID}), nil
}

func (s *PictureService) getPictures(ctx context.Context, call *rpc.Call) (envelope.Envelope, error) {
	ids, err := call.Params.Ints("pictureIds")
	if err != nil {
		return envelope.Envelope{}, err
	}

	entries := s.assets.ReadBatch(ctx, ids)
	return envelope.NewSuccessfulResult("pictures fetched", PicturesResult{
		Count:    len(entries),
		Pictures: entries,
	}), nil
}

func (s *PictureService) deletePicture(ctx context.Context, call *rpc.Call) (envelope.Envelope, error) {
	id, err := call.Params.Int("pictureId")
	if err != nil {
		return envelope.Envelope{}, err
	}

	pic, err := s.assets.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return envelope.Envelope{}, envelope.WrapError(envelope.CodeNotFound, fmt.Sprintf("picture %d not found", id), err)
		}
		return envelope.Envelope{}, envelope.WrapError(envelope.Wrap(err), "delete failed", err)
	}
	if pic.UploadUserID != call.Session.UserID && !call.Session.IsAdmin() {
		return envelope.Envelope{}, envelope.NewError(envelope.CodeAuth, "only the uploader may delete this picture")
	}

	if err := s.assets.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return envelope.Envelope{}, envelope.WrapError(envelope.CodeNotFound, fmt.Sprintf("picture %d not found", id), err)
		}
		return envelope.Envelope{}, envelope.WrapError(envelope.Wrap(err), "delete failed", err)
	}

	return envelope.NewSuccessfulResult("deleted", nil), nil
}

func (s *PictureService) listPictures(ctx context.Context, call *rpc.Call) (envelope.Envelope, error) {
	userID, err := call.Params.IntOr("userId", call.Session.UserID)
	if err != nil {
		return envelope.Envelope{}, err
	}
	limit, err := call.Params.IntOr("limit", DefaultListLimit)
	if err != nil {
		return envelope.Envelope{}, err
	}
	if limit < 1 || limit > MaxListLimit {
		return envelope.Envelope{}, envelope.NewError(envelope.CodeParameter,
			fmt.Sprintf("parameter limit must be between 1 and %d", MaxListLimit))
	}

	pics, err := s.assets.List(ctx, userID, int(limit))
	if err != nil {
		return envelope.Envelope{}, envelope.WrapError(envelope.Wrap(err), "list failed", err)
	}

	ids := make([]int64, 0, len(pics))
	for _, p := range pics {
		ids = append(ids, p.ID)
	}
	return envelope.NewSuccessfulResult("pictures listed", ListResult{
		Count:      len(ids),
		PictureIDs: ids,
	}), nil
}
