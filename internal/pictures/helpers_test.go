package pictures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shareserver/internal/asset"
	"github.com/roach88/shareserver/internal/blob"
	"github.com/roach88/shareserver/internal/envelope"
	"github.com/roach88/shareserver/internal/params"
	"github.com/roach88/shareserver/internal/rpc"
	"github.com/roach88/shareserver/internal/session"
	"github.com/roach88/shareserver/internal/store"
	"github.com/roach88/shareserver/internal/testutil"
)

// countingDao counts every metadata store access.
type countingDao struct {
	asset.PictureDao
	calls atomic.Int64
}

func (d *countingDao) Add(ctx context.Context, p *store.Picture) (int64, error) {
	d.calls.Add(1)
	return d.PictureDao.Add(ctx, p)
}

func (d *countingDao) GetByID(ctx context.Context, id int64) (store.Picture, error) {
	d.calls.Add(1)
	return d.PictureDao.GetByID(ctx, id)
}

func (d *countingDao) Delete(ctx context.Context, p store.Picture) (int64, error) {
	d.calls.Add(1)
	return d.PictureDao.Delete(ctx, p)
}

func (d *countingDao) ListByUser(ctx context.Context, userID int64, limit int) ([]store.Picture, error) {
	d.calls.Add(1)
	return d.PictureDao.ListByUser(ctx, userID, limit)
}

type harness struct {
	dispatcher *rpc.Dispatcher
	table      *rpc.Table
	blobs      *testutil.FaultyBlobStore
	dao        *countingDao
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	db, err := store.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	files, err := blob.NewFileStore(filepath.Join(dir, "blobs"))
	require.NoError(t, err)

	clock := testutil.NewDeterministicClock(time.Time{}, time.Millisecond)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &harness{
		blobs: testutil.NewFaultyBlobStore(files),
		dao:   &countingDao{PictureDao: db.Pictures()},
	}
	assets := asset.New(h.blobs, h.dao, asset.WithClock(clock.Now), asset.WithLogger(logger))

	h.table, err = Build(assets, clock.Now)
	require.NoError(t, err)
	h.dispatcher = rpc.NewDispatcher(h.table, rpc.WithLogger(logger))
	return h
}

func (h *harness) call(t *testing.T, sess session.Session, method string, p params.Params) envelope.Envelope {
	t.Helper()
	service, procedure, err := rpc.ParseMethod(method)
	require.NoError(t, err)
	return h.dispatcher.Dispatch(context.Background(), rpc.NewCall(service, procedure, sess, p))
}

func (h *harness) upload(t *testing.T, sess session.Session, data string) int64 {
	t.Helper()
	env := h.call(t, sess, "PictureService.uploadPicture", params.Params{
		"suffix": "png",
		"bytes":  []byte(data),
	})
	require.True(t, env.Success, env.Message)
	return env.Payload.(UploadResult).ID
}

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}
