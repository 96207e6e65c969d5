package pictures

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shareserver/internal/asset"
	"github.com/roach88/shareserver/internal/envelope"
	"github.com/roach88/shareserver/internal/params"
	"github.com/roach88/shareserver/internal/session"
	"github.com/roach88/shareserver/internal/testutil"
)

var (
	alice = session.LoggedInAs(42, session.PrivilegeLogged)
	bob   = session.LoggedInAs(43, session.PrivilegeLogged)
	admin = session.LoggedInAs(1, session.PrivilegeAdmin)
)

func TestUploadThenRead(t *testing.T) {
	h := newHarness(t)

	id := h.upload(t, alice, "png-bytes")
	assert.NotZero(t, id)

	env := h.call(t, session.Anonymous(), "PictureService.getPictures", params.Params{
		"pictureIds": []any{id},
	})
	require.True(t, env.Success)
	result := env.Payload.(PicturesResult)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, []byte("png-bytes"), result.Pictures[0].Bytes)
	assert.Equal(t, int64(42), result.Pictures[0].UploadUserID)
}

func TestUpload_Anonymous(t *testing.T) {
	h := newHarness(t)

	env := h.call(t, session.Anonymous(), "PictureService.uploadPicture", params.Params{
		"suffix": "png",
		"bytes":  []byte("x"),
	})
	assert.False(t, env.Success)
	assert.Equal(t, envelope.CodeAuth, env.ErrorCode)
	assert.Empty(t, h.blobs.Saved())
	assert.Zero(t, h.dao.calls.Load())
}

func TestUpload_ParameterErrors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		p    params.Params
	}{
		{"missing bytes", params.Params{"suffix": "png"}},
		{"null bytes", params.Params{"bytes": nil}},
		{"malformed base64", params.Params{"bytes": "not base64!"}},
		{"empty bytes", params.Params{"bytes": []byte{}}},
		{"suffix not a string", params.Params{"suffix": []any{1}, "bytes": []byte("x")}},
		{"bad suffix", params.Params{"suffix": "p/ng", "bytes": []byte("x")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := h.call(t, alice, "PictureService.uploadPicture", tt.p)
			assert.False(t, env.Success)
			assert.Equal(t, envelope.CodeParameter, env.ErrorCode)
		})
	}
	assert.Empty(t, h.blobs.Saved())
}

func TestUpload_StorageFailure(t *testing.T) {
	h := newHarness(t)
	h.blobs.FailSave(testutil.ErrInjected)

	env := h.call(t, alice, "PictureService.uploadPicture", params.Params{"bytes": []byte("x")})
	assert.False(t, env.Success)
	assert.Equal(t, "upload failed", env.Message)
	assert.Equal(t, envelope.CodeUnknown, env.ErrorCode)
	assert.ErrorIs(t, env.Detail(), testutil.ErrInjected)
}

func TestGetPictures_MissingIDPlaceholder_Golden(t *testing.T) {
	h := newHarness(t)

	for i := 1; i <= 7; i++ {
		h.upload(t, alice, fmt.Sprintf("picture-%d", i))
	}

	env := h.call(t, session.Anonymous(), "PictureService.getPictures", params.Params{
		"pictureIds": []any{7, 999},
	})
	require.True(t, env.Success)

	result := env.Payload.(PicturesResult)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, asset.Placeholder(999), result.Pictures[1])

	data, err := envelope.JSON.Encode(env)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "get_pictures_missing_id", data)
}

func TestGetPictures_MissingParameter(t *testing.T) {
	h := newHarness(t)

	env := h.call(t, session.Anonymous(), "PictureService.getPictures", nil)
	assert.Equal(t, envelope.CodeParameter, env.ErrorCode)
	assert.Zero(t, h.dao.calls.Load())
}

func TestDeletePicture_Anonymous_NoStoreAccess(t *testing.T) {
	h := newHarness(t)
	id := h.upload(t, alice, "x")
	callsBefore := h.dao.calls.Load()
	readsBefore := h.blobs.Reads()

	env := h.call(t, session.Anonymous(), "PictureService.deletePicture", params.Params{"pictureId": id})
	assert.False(t, env.Success)
	assert.Equal(t, envelope.CodeAuth, env.ErrorCode)

	assert.Equal(t, callsBefore, h.dao.calls.Load())
	assert.Equal(t, readsBefore, h.blobs.Reads())
	assert.Empty(t, h.blobs.Deleted())
}

func TestDeletePicture_Owner(t *testing.T) {
	h := newHarness(t)
	id := h.upload(t, alice, "x")

	env := h.call(t, alice, "PictureService.deletePicture", params.Params{"pictureId": id})
	require.True(t, env.Success, env.Message)
	assert.Nil(t, env.Payload)

	env = h.call(t, alice, "PictureService.getPictures", params.Params{"pictureIds": []int64{id}})
	assert.True(t, env.Payload.(PicturesResult).Pictures[0].IsPlaceholder())
}

func TestDeletePicture_OtherUserRejected(t *testing.T) {
	h := newHarness(t)
	id := h.upload(t, alice, "x")

	env := h.call(t, bob, "PictureService.deletePicture", params.Params{"pictureId": id})
	assert.Equal(t, envelope.CodeAuth, env.ErrorCode)
	assert.Empty(t, h.blobs.Deleted())

	env = h.call(t, admin, "PictureService.deletePicture", params.Params{"pictureId": id})
	assert.True(t, env.Success, env.Message)
}

func TestDeletePicture_MissingBlobStillSucceeds(t *testing.T) {
	h := newHarness(t)
	id := h.upload(t, alice, "x")
	h.blobs.FailDelete(testutil.ErrInjected)

	env := h.call(t, alice, "PictureService.deletePicture", params.Params{"pictureId": id})
	assert.True(t, env.Success, env.Message)
}

func TestDeletePicture_NotFound(t *testing.T) {
	h := newHarness(t)

	env := h.call(t, alice, "PictureService.deletePicture", params.Params{"pictureId": "999"})
	assert.False(t, env.Success)
	assert.Equal(t, envelope.CodeNotFound, env.ErrorCode)
	assert.Equal(t, "picture 999 not found", env.Message)
}

func TestDeletePicture_BadID(t *testing.T) {
	h := newHarness(t)

	env := h.call(t, alice, "PictureService.deletePicture", params.Params{"pictureId": "seven"})
	assert.Equal(t, envelope.CodeParameter, env.ErrorCode)
}

func TestListPictures(t *testing.T) {
	h := newHarness(t)
	first := h.upload(t, alice, "1")
	second := h.upload(t, alice, "2")
	h.upload(t, bob, "3")

	env := h.call(t, alice, "PictureService.listPictures", nil)
	require.True(t, env.Success, env.Message)
	assert.Equal(t, ListResult{Count: 2, PictureIDs: []int64{second, first}}, env.Payload)

	env = h.call(t, bob, "PictureService.listPictures", params.Params{"userId": 42, "limit": 1})
	require.True(t, env.Success, env.Message)
	assert.Equal(t, ListResult{Count: 1, PictureIDs: []int64{second}}, env.Payload)

	env = h.call(t, admin, "PictureService.listPictures", nil)
	assert.Equal(t, ListResult{Count: 0, PictureIDs: []int64{}}, env.Payload)
}

func TestListPictures_LimitBounds(t *testing.T) {
	h := newHarness(t)

	for _, limit := range []int{0, -1, MaxListLimit + 1} {
		env := h.call(t, alice, "PictureService.listPictures", params.Params{"limit": limit})
		assert.Equal(t, envelope.CodeParameter, env.ErrorCode, "limit %d", limit)
	}
}
