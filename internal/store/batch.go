package store

import (
	"context"
	"fmt"
)

// Update runs fn against a view of the store whose writes commit together.
// When fn returns an error, or the commit fails, none of its writes are kept.
//
// Reads through the view see the view's own uncommitted writes, so index
// maintenance in Insert works inside a batch. fn must not use s itself: the
// pool's only connection belongs to the transaction until Update returns.
func (s *SQLite) Update(ctx context.Context, fn func(MutableStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	if err := fn(kvTable{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}
