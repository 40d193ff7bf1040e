// Package store provides the ordered key-value stores the query executor reads
// from, and the scoped-borrow registry that hands them out.
//
// Two implementations share the DataStore contract:
//   - Memory: a sorted in-process slice, used by tests and the scenario harness
//   - SQLite: a single kv table with BLOB keys, used by the CLI
//
// Secondary index entries live in the same key space as rows, under the
// index path "<entity>#<index>". IndexStore resolves them back to data keys.
//
// # Critical Patterns
//
// CP-1: Byte Order Is Key Order
//   - Range yields entries in ascending byte order of their encoded keys
//   - SQLite BLOB comparison is memcmp, so ORDER BY key matches Memory
//
// CP-2: Inclusive, Lazy Ranges
//   - Range(lo, hi) covers lo <= key <= hi
//   - Entries are produced one at a time; stopping early releases resources
//
// CP-3: Scoped Borrows
//   - Stores are reached only through Registry.WithStore / WithStoreMut
//   - The borrow is released on every exit path via defer
//   - Borrowing a store again through a context that already holds it fails
//     with ErrReentrantBorrow instead of deadlocking
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
