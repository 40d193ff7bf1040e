// Package executor turns a plan into candidate keys or loaded rows.
//
// A Context binds one entity schema, one registered store and a row decoder.
// Every operation borrows the store read-only through the registry for its
// whole duration and releases it before returning.
//
// Per-plan handling:
//   - Keys: point lookups. Keys with no stored row are skipped.
//   - Range: an inclusive scan of the encoded bounds
//   - FullScan: a Range over the schema's lower and upper bounds
//   - Index: the index store resolves candidate keys, then they load like Keys
//
// CRITICAL PATTERNS:
//
// Pagination pushdown:
// RowsFromPlanWithPagination applies offset and limit before loading. Key-list
// plans slice the list; scans skip and take lazily and stop reading early.
// Callers use it only when no in-memory filter or sort follows, since either
// would change which rows the page should hold.
//
// Saturating arithmetic:
// start = min(offset, total), end = min(start+limit, total). start >= end
// returns an empty page without touching the store again.
//
// Decode failures are fatal:
// A stored row that does not decode fails the whole call with a DecodeError.
// Dropping it would silently change result cardinality.
package executor
