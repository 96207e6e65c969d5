package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/shareserver/internal/blob"
)

// ErrInjected is the error returned by FaultyBlobStore for injected faults.
var ErrInjected = errors.New("injected fault")

// FaultyBlobStore wraps a blob.Store and fails selected operations.
//
// Thread-safety: safe for concurrent use.
type FaultyBlobStore struct {
	blob.Store

	mu         sync.Mutex
	failSave   error
	failDelete error
	failRead   error
	saved      []string
	deleted    []string
	reads      int
}

// NewFaultyBlobStore wraps inner with no faults enabled.
func NewFaultyBlobStore(inner blob.Store) *FaultyBlobStore {
	return &FaultyBlobStore{Store: inner}
}

// FailSave makes every Save return err. A nil err clears the fault.
func (s *FaultyBlobStore) FailSave(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = err
}

// FailDelete makes every Delete return err. A nil err clears the fault.
func (s *FaultyBlobStore) FailDelete(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDelete = err
}

// FailRead makes every Read return err. A nil err clears the fault.
func (s *FaultyBlobStore) FailRead(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRead = err
}

// Save implements blob.Store.
func (s *FaultyBlobStore) Save(ctx context.Context, basePath, name string, data []byte) (string, error) {
	s.mu.Lock()
	fault := s.failSave
	s.mu.Unlock()
	if fault != nil {
		return "", fault
	}
	p, err := s.Store.Save(ctx, basePath, name, data)
	if err == nil {
		s.mu.Lock()
		s.saved = append(s.saved, p)
		s.mu.Unlock()
	}
	return p, err
}

// Delete implements blob.Store. Attempts are recorded even when they fail.
func (s *FaultyBlobStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	fault := s.failDelete
	s.deleted = append(s.deleted, path)
	s.mu.Unlock()
	if fault != nil {
		return fault
	}
	return s.Store.Delete(ctx, path)
}

// Read implements blob.Store.
func (s *FaultyBlobStore) Read(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	fault := s.failRead
	s.reads++
	s.mu.Unlock()
	if fault != nil {
		return nil, fault
	}
	return s.Store.Read(ctx, path)
}

// Saved returns the paths of successful saves, in order.
func (s *FaultyBlobStore) Saved() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.saved...)
}

// Deleted returns every path Delete was called with, in order.
func (s *FaultyBlobStore) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// Reads returns how many times Read was called.
func (s *FaultyBlobStore) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}
