// Package filter implements boolean filter expressions over typed rows.
//
// An Expr is built from clauses (field, comparator, value) combined with And,
// Or and Not. The package provides three independent operations over it:
//
//   - Simplify normalizes an expression (De Morgan, flattening, constants).
//   - Validate checks it against a schema's field set before any store access.
//   - Eval decides whether one row matches.
//
// CRITICAL PATTERNS:
//
// Strict schema time, lenient row time:
// Validate rejects unknown fields and comparator/value mismatches with a
// ValidationError. Eval never fails: a missing field or an incomparable pair
// is simply a non-match.
//
// Cross-kind comparison:
// Ordering and equality between different numeric kinds goes through
// value.CmpNumeric. Everything else compares same-kind only.
package filter
