package asset

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shareserver/internal/blob"
	"github.com/roach88/shareserver/internal/store"
	"github.com/roach88/shareserver/internal/testutil"
)

func TestUpload_StoresBlobAndRow(t *testing.T) {
	f := newFixture(t, "0123456789abcdef0123456789abcdef")
	ctx := context.Background()

	pic, err := f.store.Upload(ctx, 7, ".PNG", []byte("png-bytes"))
	require.NoError(t, err)

	assert.NotZero(t, pic.ID)
	assert.Equal(t, "pictures/0123456789abcdef0123456789abcdef.png", pic.Path)
	assert.Equal(t, "png", pic.Suffix)
	assert.Equal(t, int64(7), pic.UploadUserID)
	assert.Equal(t, testutil.DefaultStart.UnixMilli()+1, pic.UploadTime)
	assert.Equal(t, int64(9), pic.Size)
	assert.Equal(t, Checksum([]byte("png-bytes")), pic.Checksum)

	entries := f.store.ReadBatch(ctx, []int64{pic.ID})
	require.Len(t, entries, 1)
	assert.Equal(t, []byte("png-bytes"), entries[0].Bytes)
	assert.Equal(t, int64(7), entries[0].UploadUserID)
}

func TestUpload_EmptySuffixHasNoExtension(t *testing.T) {
	f := newFixture(t, "abc")

	pic, err := f.store.Upload(context.Background(), 1, "", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "pictures/abc", pic.Path)
}

func TestUpload_RejectsEmptyDataAndBadSuffix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Upload(ctx, 1, "png", nil)
	assert.ErrorIs(t, err, ErrEmptyData)

	_, err = f.store.Upload(ctx, 1, "../png", []byte("x"))
	assert.ErrorIs(t, err, blob.ErrInvalidSuffix)

	assert.Empty(t, f.blobs.Saved())
	assert.Zero(t, f.dao.calls)
}

func TestUpload_InsertErrorRollsBackBlob(t *testing.T) {
	f := newFixture(t, "aaaa")
	f.dao.addErr = testutil.ErrInjected
	ctx := context.Background()

	_, err := f.store.Upload(ctx, 1, "png", []byte("x"))
	require.ErrorIs(t, err, testutil.ErrInjected)

	require.Equal(t, []string{"pictures/aaaa.png"}, f.blobs.Saved())
	assert.Equal(t, []string{"pictures/aaaa.png"}, f.blobs.Deleted())
	_, err = f.files.Read(ctx, "pictures/aaaa.png")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestUpload_ZeroRowsRollsBackBlob(t *testing.T) {
	f := newFixture(t, "bbbb")
	f.dao.addZero = true
	ctx := context.Background()

	_, err := f.store.Upload(ctx, 1, "png", []byte("x"))
	require.ErrorIs(t, err, ErrInsertRejected)

	_, err = f.files.Read(ctx, "pictures/bbbb.png")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestUpload_FailedRollbackKeepsOriginalError(t *testing.T) {
	f := newFixture(t, "cccc")
	f.dao.addErr = testutil.ErrInjected
	f.blobs.FailDelete(errors.New("disk gone"))

	_, err := f.store.Upload(context.Background(), 1, "png", []byte("x"))
	require.ErrorIs(t, err, testutil.ErrInjected)
	assert.NotContains(t, err.Error(), "disk gone")

	// The orphan blob is tolerated.
	data, err := f.files.Read(context.Background(), "pictures/cccc.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}

func TestUpload_SaveFailureTouchesNoRow(t *testing.T) {
	f := newFixture(t, "dddd")
	f.blobs.FailSave(testutil.ErrInjected)

	_, err := f.store.Upload(context.Background(), 1, "png", []byte("x"))
	require.ErrorIs(t, err, testutil.ErrInjected)

	assert.Zero(t, f.dao.calls)
	assert.Empty(t, f.blobs.Deleted())
}

func TestUpload_NameCollisionDoesNotDestroyExistingBlob(t *testing.T) {
	f := newFixture(t, "same", "same")
	ctx := context.Background()

	first, err := f.store.Upload(ctx, 1, "png", []byte("first"))
	require.NoError(t, err)

	_, err = f.store.Upload(ctx, 2, "png", []byte("second"))
	require.ErrorIs(t, err, blob.ErrExists)

	_, data, err := f.store.Read(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)
}

func TestUpload_CancelledContextStillRollsBack(t *testing.T) {
	f := newFixture(t, "eeee")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.dao.beforeAdd = cancel

	_, err := f.store.Upload(ctx, 1, "png", []byte("x"))
	require.ErrorIs(t, err, context.Canceled)

	_, err = f.files.Read(context.Background(), "pictures/eeee.png")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestUpload_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const uploads = 20
	ids := make([]int64, uploads)
	var wg sync.WaitGroup
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pic, err := f.store.Upload(ctx, int64(i), "png", []byte{byte(i), 1})
			assert.NoError(t, err)
			ids[i] = pic.ID
		}(i)
	}
	wg.Wait()

	entries := f.store.ReadBatch(ctx, ids)
	require.Len(t, entries, uploads)
	for i, e := range entries {
		assert.Equal(t, []byte{byte(i), 1}, e.Bytes)
		assert.Equal(t, int64(i), e.UploadUserID)
	}
}

func TestDelete_RemovesBlobAndRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pic, err := f.store.Upload(ctx, 1, "png", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, f.store.Delete(ctx, pic.ID))

	_, err = f.store.Get(ctx, pic.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.files.Read(ctx, pic.Path)
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestDelete_MissingRowTouchesNoBlob(t *testing.T) {
	f := newFixture(t)

	err := f.store.Delete(context.Background(), 999)
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, f.blobs.Deleted())
}

func TestDelete_MissingBlobStillRemovesRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pic, err := f.store.Upload(ctx, 1, "png", []byte("x"))
	require.NoError(t, err)
	require.NoError(t, f.files.Delete(ctx, pic.Path))

	require.NoError(t, f.store.Delete(ctx, pic.ID))

	_, err = f.store.Get(ctx, pic.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete_BlobErrorDoesNotAffectResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pic, err := f.store.Upload(ctx, 1, "png", []byte("x"))
	require.NoError(t, err)
	f.blobs.FailDelete(testutil.ErrInjected)

	require.NoError(t, f.store.Delete(ctx, pic.ID))
}

func TestDelete_ZeroRowsIsFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pic, err := f.store.Upload(ctx, 1, "png", []byte("x"))
	require.NoError(t, err)
	f.dao.deleteZero = true

	err = f.store.Delete(ctx, pic.ID)
	require.ErrorIs(t, err, ErrDeleteRejected)
}
