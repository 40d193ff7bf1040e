package store

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register("main", NewMemory()))
	require.NoError(t, r.Register("other", NewMemory()))
	return r
}

func TestRegistry_Borrow(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	err := r.WithStoreMut(ctx, "main", func(ctx context.Context, s MutableStore) error {
		return s.Put(ctx, []byte("k"), []byte("v"))
	})
	require.NoError(t, err)

	err = r.WithStore(ctx, "main", func(ctx context.Context, s DataStore) error {
		v, err := s.Get(ctx, []byte("k"))
		assert.Equal(t, []byte("v"), v)
		return err
	})
	require.NoError(t, err)
}

func TestRegistry_UnknownAndDuplicate(t *testing.T) {
	r := newTestRegistry(t)

	err := r.WithStore(context.Background(), "nope", func(context.Context, DataStore) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownStore)

	assert.Error(t, r.Register("main", NewMemory()))
	assert.ElementsMatch(t, []string{"main", "other"}, r.Names())
}

func TestRegistry_ReentrantBorrowFails(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	called := false
	err := r.WithStore(ctx, "main", func(ctx context.Context, _ DataStore) error {
		return r.WithStoreMut(ctx, "main", func(context.Context, MutableStore) error {
			called = true
			return nil
		})
	})
	assert.ErrorIs(t, err, ErrReentrantBorrow)
	assert.False(t, called)

	err = r.WithStore(ctx, "main", func(ctx context.Context, _ DataStore) error {
		return r.WithStore(ctx, "main", func(context.Context, DataStore) error { return nil })
	})
	assert.ErrorIs(t, err, ErrReentrantBorrow, "shared borrows are not reentrant either")
}

func TestRegistry_NestedBorrowOfDifferentStore(t *testing.T) {
	r := newTestRegistry(t)

	err := r.WithStore(context.Background(), "main", func(ctx context.Context, _ DataStore) error {
		return r.WithStoreMut(ctx, "other", func(ctx context.Context, s MutableStore) error {
			return s.Put(ctx, []byte("x"), nil)
		})
	})
	assert.NoError(t, err)
}

func TestRegistry_ReleasedOnError(t *testing.T) {
	r := newTestRegistry(t)
	boom := errors.New("boom")
	ctx := context.Background()

	err := r.WithStoreMut(ctx, "main", func(context.Context, MutableStore) error { return boom })
	assert.ErrorIs(t, err, boom)

	// A second exclusive borrow would block forever if the first leaked.
	done := make(chan error, 1)
	go func() {
		done <- r.WithStoreMut(ctx, "main", func(context.Context, MutableStore) error { return nil })
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("borrow was not released")
	}
}

func TestRegistry_WriterExcludesReaders(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	writing := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = r.WithStoreMut(ctx, "main", func(context.Context, MutableStore) error {
			close(writing)
			<-release
			return nil
		})
	}()
	<-writing

	read := make(chan struct{})
	go func() {
		_ = r.WithStore(ctx, "main", func(context.Context, DataStore) error { return nil })
		close(read)
	}()

	select {
	case <-read:
		t.Fatal("reader ran during an exclusive borrow")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	<-read
	wg.Wait()
}

type readOnly struct{}

func (readOnly) Get(context.Context, []byte) ([]byte, error) { return nil, ErrNotFound }
func (readOnly) Range(context.Context, []byte, []byte) iter.Seq2[Entry, error] {
	return func(func(Entry, error) bool) {}
}

func TestRegistry_ReadOnlyStore(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("ro", readOnly{}))

	err := r.WithStoreMut(context.Background(), "ro", func(context.Context, MutableStore) error { return nil })
	assert.Error(t, err)
	err = r.WithStore(context.Background(), "ro", func(context.Context, DataStore) error { return nil })
	assert.NoError(t, err)
}
