package asset

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/shareserver/internal/blob"
	"github.com/roach88/shareserver/internal/store"
	"github.com/roach88/shareserver/internal/testutil"
)

// faultyDao wraps a real PictureDao and can fail or no-op selected calls.
type faultyDao struct {
	PictureDao

	mu         sync.Mutex
	addErr     error
	beforeAdd  func()
	addZero    bool
	deleteErr  error
	deleteZero bool
	calls      int
}

func (d *faultyDao) Add(ctx context.Context, p *store.Picture) (int64, error) {
	d.mu.Lock()
	d.calls++
	addErr, addZero, beforeAdd := d.addErr, d.addZero, d.beforeAdd
	d.mu.Unlock()
	if beforeAdd != nil {
		beforeAdd()
	}
	if addErr != nil {
		return 0, addErr
	}
	if addZero {
		return 0, nil
	}
	return d.PictureDao.Add(ctx, p)
}

func (d *faultyDao) GetByID(ctx context.Context, id int64) (store.Picture, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	return d.PictureDao.GetByID(ctx, id)
}

func (d *faultyDao) Delete(ctx context.Context, p store.Picture) (int64, error) {
	d.mu.Lock()
	d.calls++
	deleteErr, deleteZero := d.deleteErr, d.deleteZero
	d.mu.Unlock()
	if deleteErr != nil {
		return 0, deleteErr
	}
	if deleteZero {
		return 0, nil
	}
	return d.PictureDao.Delete(ctx, p)
}

type fixture struct {
	store *Store
	blobs *testutil.FaultyBlobStore
	files *blob.FileStore
	dao   *faultyDao
	clock *testutil.DeterministicClock
}

func newFixture(t *testing.T, names ...string) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := store.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	files, err := blob.NewFileStore(filepath.Join(dir, "blobs"))
	require.NoError(t, err)

	f := &fixture{
		blobs: testutil.NewFaultyBlobStore(files),
		files: files,
		dao:   &faultyDao{PictureDao: db.Pictures()},
		clock: testutil.NewDeterministicClock(time.Time{}, time.Millisecond),
	}
	opts := []Option{WithClock(f.clock.Now)}
	if len(names) > 0 {
		opts = append(opts, WithNames(blob.NewFixedNames(names...)))
	}
	f.store = New(f.blobs, f.dao, opts...)
	return f
}
