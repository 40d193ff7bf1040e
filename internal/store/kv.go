package store

import (
	"context"
	"errors"
	"iter"
)

var (
	// ErrNotFound is returned when a key has no entry.
	ErrNotFound = errors.New("store: not found")

	// ErrReentrantBorrow is returned when a context that already borrows a
	// store tries to borrow it again.
	ErrReentrantBorrow = errors.New("store: reentrant borrow")

	// ErrUniqueViolation is returned when a write would give a unique index
	// two rows with the same indexed values.
	ErrUniqueViolation = errors.New("store: unique index violation")

	// ErrUnknownStore is returned by the registry for an unregistered name.
	ErrUnknownStore = errors.New("store: unknown store")
)

// Entry is one stored key-value pair. Both slices belong to the caller.
type Entry struct {
	Key   []byte
	Value []byte
}

// DataStore is the read side of an ordered key-value store.
type DataStore interface {
	// Get returns the value stored at key, or ErrNotFound.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Range yields every entry with lo <= key <= hi in ascending byte order.
	// A store error is yielded once as the final element.
	Range(ctx context.Context, lo, hi []byte) iter.Seq2[Entry, error]
}

// MutableStore adds writes. Writes are used by fixtures and loaders; the query
// path only ever reads.
type MutableStore interface {
	DataStore
	Put(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
}

// Collect drains a Range into a slice.
func Collect(seq iter.Seq2[Entry, error]) ([]Entry, error) {
	var out []Entry
	for e, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
