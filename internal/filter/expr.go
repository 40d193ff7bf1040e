package filter

import (
	"fmt"
	"strings"

	"github.com/roach88/kvquery/internal/value"
)

// Expr is a boolean filter expression.
//
// This is a sealed interface - only types in this package implement it.
// Consumers switch over True, False, Clause, And, Or and Not exhaustively.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// True matches every row.
type True struct{}

// False matches no row.
type False struct{}

// Clause compares one field against a right-hand-side value.
//
// Semantics:
//
//	<field> <cmp> <value>
//
// Example:
//
//	Clause{Field: "score", Cmp: Gt, Value: value.Float64(80)}
//
// Presence and emptiness comparators take value.Unit as their Value.
type Clause struct {
	Field string
	Cmp   Cmp
	Value value.Value
}

// And matches when every child matches. An empty And matches everything.
type And struct {
	Exprs []Expr
}

// Or matches when any child matches. An empty Or matches nothing.
type Or struct {
	Exprs []Expr
}

// Not inverts its inner expression.
type Not struct {
	Inner Expr
}

func (True) exprNode()   {}
func (False) exprNode()  {}
func (Clause) exprNode() {}
func (And) exprNode()    {}
func (Or) exprNode()     {}
func (Not) exprNode()    {}

// Simplify rewrites e into an equivalent, normalized expression.
//
// Rules:
//   - Not(True) = False, Not(False) = True, Not(Not(x)) = x
//   - Not(And(xs)) = Or(Not(x) for x in xs), and the dual for Or
//   - nested And inside And (and Or inside Or) is flattened
//   - True is dropped from And, False from Or
//   - False anywhere in And gives False, True anywhere in Or gives True
//   - an And or Or with no children is its neutral element, one child is that child
//
// After simplification Not only wraps a Clause. Simplify is idempotent.
func Simplify(e Expr) Expr {
	switch x := e.(type) {
	case nil:
		return True{}
	case True, False, Clause:
		return x
	case Not:
		return simplifyNot(Simplify(x.Inner))
	case And:
		return simplifyJunction(x.Exprs, true)
	case Or:
		return simplifyJunction(x.Exprs, false)
	}
	panic(fmt.Sprintf("filter: unknown expression %T", e))
}

// simplifyNot negates an already simplified expression.
func simplifyNot(s Expr) Expr {
	switch y := s.(type) {
	case True:
		return False{}
	case False:
		return True{}
	case Not:
		return y.Inner
	case And:
		return simplifyJunction(negateAll(y.Exprs), false)
	case Or:
		return simplifyJunction(negateAll(y.Exprs), true)
	}
	return Not{Inner: s}
}

func negateAll(xs []Expr) []Expr {
	out := make([]Expr, len(xs))
	for i, x := range xs {
		out[i] = Not{Inner: x}
	}
	return out
}

// simplifyJunction handles And (conj=true) and Or (conj=false) alike. The
// neutral element is True for And and False for Or; the absorbing element is
// the other one.
func simplifyJunction(children []Expr, conj bool) Expr {
	out := make([]Expr, 0, len(children))
	for _, c := range children {
		s := Simplify(c)
		switch y := s.(type) {
		case True:
			if !conj {
				return True{}
			}
			continue
		case False:
			if conj {
				return False{}
			}
			continue
		case And:
			if conj {
				out = append(out, y.Exprs...)
				continue
			}
		case Or:
			if !conj {
				out = append(out, y.Exprs...)
				continue
			}
		}
		out = append(out, s)
	}
	switch len(out) {
	case 0:
		if conj {
			return True{}
		}
		return False{}
	case 1:
		return out[0]
	}
	if conj {
		return And{Exprs: out}
	}
	return Or{Exprs: out}
}

// AndOf combines expressions with AND, flattening like Simplify.
func AndOf(exprs ...Expr) Expr {
	return Simplify(And{Exprs: exprs})
}

// OrOf combines expressions with OR, flattening like Simplify.
func OrOf(exprs ...Expr) Expr {
	return Simplify(Or{Exprs: exprs})
}

// NotOf negates e, pushing the negation down like Simplify.
func NotOf(e Expr) Expr {
	return Simplify(Not{Inner: e})
}

// AndOption ANDs two optional expressions. A nil side is absent; both nil
// gives nil.
func AndOption(a, b Expr) Expr {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return AndOf(a, b)
}

// OrOption ORs two optional expressions. A nil side is absent; both nil
// gives nil.
func OrOption(a, b Expr) Expr {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return OrOf(a, b)
}

// IsTriviallyTrue reports whether e simplifies to True.
func IsTriviallyTrue(e Expr) bool {
	_, ok := Simplify(e).(True)
	return ok
}

// Fields returns the distinct field names e refers to, in first-seen order.
func Fields(e Expr) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch x := e.(type) {
		case Clause:
			if !seen[x.Field] {
				seen[x.Field] = true
				out = append(out, x.Field)
			}
		case And:
			for _, c := range x.Exprs {
				walk(c)
			}
		case Or:
			for _, c := range x.Exprs {
				walk(c)
			}
		case Not:
			walk(x.Inner)
		}
	}
	walk(e)
	return out
}

// String renders e in an infix form for logs and snapshots.
func String(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

func writeExpr(sb *strings.Builder, e Expr) {
	switch x := e.(type) {
	case nil, True:
		sb.WriteString("TRUE")
	case False:
		sb.WriteString("FALSE")
	case Clause:
		sb.WriteString(x.Field)
		sb.WriteByte(' ')
		sb.WriteString(x.Cmp.Symbol())
		if !value.IsUnit(x.Value) {
			sb.WriteByte(' ')
			sb.WriteString(value.String(x.Value))
		}
	case Not:
		sb.WriteString("NOT ")
		writeExpr(sb, x.Inner)
	case And:
		writeJunction(sb, x.Exprs, " AND ")
	case Or:
		writeJunction(sb, x.Exprs, " OR ")
	}
}

func writeJunction(sb *strings.Builder, xs []Expr, op string) {
	sb.WriteByte('(')
	for i, c := range xs {
		if i > 0 {
			sb.WriteString(op)
		}
		writeExpr(sb, c)
	}
	sb.WriteByte(')')
}
