package filter

import (
	"fmt"

	"github.com/roach88/kvquery/internal/value"
)

// FieldAccessor resolves a row's field by name. ok is false for fields the
// row does not carry.
type FieldAccessor interface {
	Field(name string) (value.Value, bool)
}

// Eval reports whether row matches e.
//
// And and Or short-circuit. A clause over a field the row does not carry is
// false, and so is any comparison the value model reports as incomparable.
// Neither is an error: schema-level mistakes are Validate's job.
func Eval(e Expr, row FieldAccessor) bool {
	switch x := e.(type) {
	case nil, True:
		return true
	case False:
		return false
	case Clause:
		return EvalClause(x, row)
	case Not:
		return !Eval(x.Inner, row)
	case And:
		for _, c := range x.Exprs {
			if !Eval(c, row) {
				return false
			}
		}
		return true
	case Or:
		for _, c := range x.Exprs {
			if Eval(c, row) {
				return true
			}
		}
		return false
	}
	panic(fmt.Sprintf("filter: unknown expression %T", e))
}

// EvalClause evaluates a single clause against row.
//
// Dispatch order:
//  1. presence tests answer from None-ness alone
//  2. emptiness tests answer from value.IsEmpty
//  3. text, membership, containment, map and numeric ordering go through
//     the value model's coercing operations
//  4. remaining Eq/Ne/Lt/Lte/Gt/Gte fall back to same-kind PartialCmp
func EvalClause(c Clause, row FieldAccessor) bool {
	v, ok := row.Field(c.Field)
	if !ok {
		return false
	}

	switch c.Cmp {
	case CmpIsNone:
		return value.IsNone(v)
	case CmpIsSome:
		return !value.IsNone(v)
	}

	switch c.Cmp {
	case CmpIsEmpty:
		empty, ok := value.IsEmpty(v)
		return ok && empty
	case CmpIsNotEmpty:
		empty, ok := value.IsEmpty(v)
		return ok && !empty
	}

	if match, handled := evalCoerced(c, v); handled {
		return match
	}
	return evalStrict(c.Cmp, v, c.Value)
}

// evalCoerced covers every comparator with a richer rule than same-kind
// comparison. handled is false when the strict fallback should decide.
func evalCoerced(c Clause, v value.Value) (match, handled bool) {
	mode := c.Cmp.Mode()
	switch c.Cmp {
	case CmpEqCi:
		m, ok := value.TextEq(v, c.Value, mode)
		return ok && m, true
	case CmpNeCi:
		m, ok := value.TextEq(v, c.Value, mode)
		return ok && !m, true
	case CmpStartsWith, CmpStartsWithCi:
		m, ok := value.TextStartsWith(v, c.Value, mode)
		return ok && m, true
	case CmpEndsWith, CmpEndsWithCi:
		m, ok := value.TextEndsWith(v, c.Value, mode)
		return ok && m, true
	case CmpContains, CmpContainsCi:
		m, ok := value.Contains(v, c.Value, mode)
		return ok && m, true
	case CmpIn, CmpInCi, CmpNotIn:
		list, isList := c.Value.(value.List)
		if !isList {
			return false, true
		}
		m, ok := value.InList(v, list, mode)
		if c.Cmp == CmpNotIn {
			return ok && !m, true
		}
		return ok && m, true
	case CmpAnyIn, CmpAnyInCi:
		list, isList := c.Value.(value.List)
		if !isList {
			return false, true
		}
		m, ok := value.ContainsAny(v, list, mode)
		return ok && m, true
	case CmpAllIn, CmpAllInCi:
		list, isList := c.Value.(value.List)
		if !isList {
			return false, true
		}
		m, ok := value.ContainsAll(v, list, mode)
		return ok && m, true
	case CmpMapContainsKey, CmpMapNotContainsKey:
		m, ok := value.MapContainsKey(v, c.Value, mode)
		return ok && m == (c.Cmp == CmpMapContainsKey), true
	case CmpMapContainsValue, CmpMapNotContainsValue:
		m, ok := value.MapContainsValue(v, c.Value, mode)
		return ok && m == (c.Cmp == CmpMapContainsValue), true
	case CmpMapContainsEntry, CmpMapNotContainsEntry:
		m, ok := value.MapContainsEntry(v, c.Value, mode)
		return ok && m == (c.Cmp == CmpMapContainsEntry), true
	case CmpEq, CmpNe, CmpLt, CmpLte, CmpGt, CmpGte:
		if value.IsNumeric(v) && value.IsNumeric(c.Value) {
			ord, ok := value.CmpNumeric(v, c.Value)
			if !ok {
				return false, true
			}
			return applyOrder(c.Cmp, ord), true
		}
	}
	return false, false
}

// evalStrict is the same-kind fallback. Incomparable operands never match,
// for Ne as well as Eq.
func evalStrict(cmp Cmp, v, rhs value.Value) bool {
	ord, ok := value.PartialCmp(v, rhs)
	if !ok {
		return false
	}
	return applyOrder(cmp, ord)
}

func applyOrder(cmp Cmp, ord int) bool {
	switch cmp {
	case CmpEq:
		return ord == 0
	case CmpNe:
		return ord != 0
	case CmpLt:
		return ord < 0
	case CmpLte:
		return ord <= 0
	case CmpGt:
		return ord > 0
	case CmpGte:
		return ord >= 0
	}
	return false
}
