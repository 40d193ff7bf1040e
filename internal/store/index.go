package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/roach88/kvquery/internal/keys"
	"github.com/roach88/kvquery/internal/schema"
)

// IndexStore resolves secondary index entries of one entity.
//
// An index entry lives at IndexKeyFor(idx, row, pk) and its value is the
// encoded data key of the row. Non-unique index keys end with the primary key
// components, so equal indexed values never collide.
type IndexStore struct {
	schema *schema.Schema
	kv     DataStore
}

// NewIndexStore returns an IndexStore reading from kv.
func NewIndexStore(s *schema.Schema, kv DataStore) *IndexStore {
	return &IndexStore{schema: s, kv: kv}
}

// ResolveDataValues returns the data keys of every row whose leading indexed
// fields equal values, in index order.
func (x *IndexStore) ResolveDataValues(ctx context.Context, idx schema.Index, values []keys.IndexValue) ([]keys.DataKey, error) {
	if len(values) > len(idx.Fields) {
		return nil, fmt.Errorf("index %s: %d values for %d fields", idx.Name, len(values), len(idx.Fields))
	}
	lo, hi := keys.PrefixRange(x.schema.IndexPath(idx), values)

	var out []keys.DataKey
	for e, err := range x.kv.Range(ctx, lo, hi) {
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", idx.Name, err)
		}
		dk, err := keys.DecodeDataKey(e.Value)
		if err != nil {
			return nil, fmt.Errorf("index %s: entry %x: %w", idx.Name, e.Key, err)
		}
		out = append(out, dk)
	}
	return out, nil
}

// Insert writes r and its index entries, replacing any row with the same
// primary key. It fails with ErrUniqueViolation, writing nothing, when a unique
// index already maps r's indexed values to another row.
//
// A unique index does not index rows whose indexed fields are absent.
func Insert(ctx context.Context, m MutableStore, s *schema.Schema, r schema.Record) error {
	pk, err := s.KeyFor(r)
	if err != nil {
		return err
	}
	data, err := s.EncodeRecord(r)
	if err != nil {
		return err
	}
	pkBytes := pk.Encode()

	next, err := indexEntries(s, r, pk)
	if err != nil {
		return err
	}
	for i, idx := range s.Indexes {
		ik := next[i]
		if !idx.Unique || ik == nil {
			continue
		}
		held, err := m.Get(ctx, ik)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return err
		case !bytes.Equal(held, pkBytes):
			return fmt.Errorf("%w: %s on %s", ErrUniqueViolation, idx.Name, pk)
		}
	}

	if err := removeIndexEntries(ctx, m, s, pk); err != nil {
		return err
	}
	if err := m.Put(ctx, pkBytes, data); err != nil {
		return err
	}
	for _, ik := range next {
		if ik == nil {
			continue
		}
		if err := m.Put(ctx, ik, pkBytes); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes the row at pk and its index entries. Removing a missing row
// is not an error.
func Remove(ctx context.Context, m MutableStore, s *schema.Schema, pk keys.DataKey) error {
	if err := removeIndexEntries(ctx, m, s, pk); err != nil {
		return err
	}
	return m.Delete(ctx, pk.Encode())
}

func removeIndexEntries(ctx context.Context, m MutableStore, s *schema.Schema, pk keys.DataKey) error {
	old, err := m.Get(ctx, pk.Encode())
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	rec, err := s.DecodeRecord(old)
	if err != nil {
		return fmt.Errorf("decode %s: %w", pk, err)
	}
	prev, err := indexEntries(s, rec, pk)
	if err != nil {
		return err
	}
	for _, ik := range prev {
		if ik == nil {
			continue
		}
		if err := m.Delete(ctx, ik); err != nil {
			return err
		}
	}
	return nil
}

// indexEntries returns the encoded index key of r for each index of s, nil
// where a unique index skips the row.
func indexEntries(s *schema.Schema, r schema.Record, pk keys.DataKey) ([][]byte, error) {
	out := make([][]byte, len(s.Indexes))
	for i, idx := range s.Indexes {
		ik, err := s.IndexKeyFor(idx, r, pk)
		if err != nil {
			return nil, err
		}
		if idx.Unique && hasAbsent(ik.Components[:len(idx.Fields)]) {
			continue
		}
		out[i] = ik.Encode()
	}
	return out, nil
}

func hasAbsent(comps []keys.IndexValue) bool {
	for _, c := range comps {
		if c == nil {
			return true
		}
	}
	return false
}
