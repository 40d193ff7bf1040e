// Package value provides the polymorphic value model used by filters, rows and
// key material.
//
// Value is a sealed interface. Only the kinds declared in this package implement
// it, so every consumer can switch over the full set exhaustively:
//
//	switch v := val.(type) {
//	case value.Int:
//	    // ...
//	case value.Text:
//	    // ...
//	}
//
// CRITICAL PATTERNS:
//
// Same-kind ordering only:
// PartialCmp never crosses kinds. Int(10) and Uint(10) are incomparable under
// PartialCmp. Cross-kind ordering goes through CmpNumeric and nothing else.
//
// Two-tier numeric coercion:
// CmpNumeric first reduces both operands to an exact decimal (apd). Only when an
// operand has no exact decimal form does it fall back to float64, and then only
// for integers inside the 53-bit exact envelope. Anything else is incomparable.
//
// Totality:
// Comparison, text and collection helpers never panic and never return errors.
// They report "incomparable" through a false ok flag and let callers decide how
// that folds into a match.
//
// Immutability:
// Values are never mutated after construction. Kinds backed by big.Int, apd or
// byte slices copy on the way in and on the way out.
package value
