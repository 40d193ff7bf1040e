package store

import (
	"bytes"
	"context"
	"iter"
	"slices"
	"sync"
)

// Memory is an in-process ordered store backed by a sorted slice.
//
// Writes replace the slice rather than mutating it, so a Range in progress
// keeps iterating the snapshot it started on.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) snapshot() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries
}

func search(entries []Entry, key []byte) (int, bool) {
	return slices.BinarySearchFunc(entries, key, func(e Entry, k []byte) int {
		return bytes.Compare(e.Key, k)
	})
}

// Get returns a copy of the value stored at key.
func (m *Memory) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries := m.snapshot()
	i, ok := search(entries, key)
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(entries[i].Value), nil
}

// Range yields entries with lo <= key <= hi in key order.
func (m *Memory) Range(ctx context.Context, lo, hi []byte) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		entries := m.snapshot()
		i, _ := search(entries, lo)
		for ; i < len(entries); i++ {
			if err := ctx.Err(); err != nil {
				yield(Entry{}, err)
				return
			}
			e := entries[i]
			if bytes.Compare(e.Key, hi) > 0 {
				return
			}
			if !yield(Entry{Key: bytes.Clone(e.Key), Value: bytes.Clone(e.Value)}, nil) {
				return
			}
		}
	}
}

// Put inserts or replaces the value at key.
func (m *Memory) Put(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := Entry{Key: bytes.Clone(key), Value: bytes.Clone(value)}

	m.mu.Lock()
	defer m.mu.Unlock()
	next := slices.Clone(m.entries)
	if i, ok := search(next, key); ok {
		next[i] = e
	} else {
		next = slices.Insert(next, i, e)
	}
	m.entries = next
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Memory) Delete(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := search(m.entries, key); ok {
		m.entries = slices.Delete(slices.Clone(m.entries), i, i+1)
	}
	return nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	return len(m.snapshot())
}
