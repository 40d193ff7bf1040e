package filter

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/kvquery/internal/value"
)

// Filter documents are the YAML/JSON form of an expression:
//
//	and:
//	  - {field: score, cmp: gt, value: 80.0}
//	  - {field: level, cmp: gte, value: 2}
//	  - not: {field: category, cmp: in, value: [C]}
//
// true and false are the constants. A bare list is shorthand for and.
// Presence comparators omit value. Values use value.FromNative, so typed
// objects such as {kind: decimal, value: "10.5"} are accepted.

// Decode converts a decoded document tree into an expression.
func Decode(doc any) (Expr, error) {
	switch x := doc.(type) {
	case nil:
		return True{}, nil
	case bool:
		if x {
			return True{}, nil
		}
		return False{}, nil
	case []any:
		return decodeList(x, true)
	case map[string]any:
		return decodeObject(x)
	}
	return nil, fmt.Errorf("filter document: unexpected %T", doc)
}

// ParseYAML decodes a YAML (or JSON) filter document.
func ParseYAML(data []byte) (Expr, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("filter document: %w", err)
	}
	return Decode(doc)
}

func decodeObject(m map[string]any) (Expr, error) {
	if len(m) == 1 {
		for k, v := range m {
			switch k {
			case "and", "or":
				items, ok := v.([]any)
				if !ok {
					return nil, fmt.Errorf("filter document: %s expects a list, got %T", k, v)
				}
				return decodeList(items, k == "and")
			case "not":
				inner, err := Decode(v)
				if err != nil {
					return nil, fmt.Errorf("not: %w", err)
				}
				return Not{Inner: inner}, nil
			}
		}
	}
	return decodeClause(m)
}

func decodeList(items []any, conj bool) (Expr, error) {
	exprs := make([]Expr, 0, len(items))
	for i, item := range items {
		e, err := Decode(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		exprs = append(exprs, e)
	}
	if conj {
		return And{Exprs: exprs}, nil
	}
	return Or{Exprs: exprs}, nil
}

func decodeClause(m map[string]any) (Expr, error) {
	for k := range m {
		switch k {
		case "field", "cmp", "value":
		default:
			return nil, fmt.Errorf("filter document: unknown key %q", k)
		}
	}
	field, ok := m["field"].(string)
	if !ok || field == "" {
		return nil, fmt.Errorf("filter document: clause requires a field")
	}
	cmpName, ok := m["cmp"].(string)
	if !ok {
		return nil, fmt.Errorf("filter document: clause on %q requires a cmp", field)
	}
	cmp, err := ParseCmp(cmpName)
	if err != nil {
		return nil, fmt.Errorf("filter document: %w", err)
	}

	raw, has := m["value"]
	if !has {
		if cmp.Family() != FamilyPresence {
			return nil, fmt.Errorf("filter document: %s on %q requires a value", cmp, field)
		}
		return Clause{Field: field, Cmp: cmp, Value: value.Unit{}}, nil
	}
	v, err := value.FromNative(raw)
	if err != nil {
		return nil, fmt.Errorf("filter document: value of %q: %w", field, err)
	}
	return Clause{Field: field, Cmp: cmp, Value: v}, nil
}

// Encode converts an expression into a document tree that Decode accepts.
func Encode(e Expr) any {
	switch x := e.(type) {
	case nil, True:
		return true
	case False:
		return false
	case Clause:
		out := map[string]any{"field": x.Field, "cmp": x.Cmp.String()}
		if !value.IsUnit(x.Value) {
			out["value"] = value.ToNative(x.Value)
		}
		return out
	case Not:
		return map[string]any{"not": Encode(x.Inner)}
	case And:
		return map[string]any{"and": encodeAll(x.Exprs)}
	case Or:
		return map[string]any{"or": encodeAll(x.Exprs)}
	}
	return nil
}

func encodeAll(xs []Expr) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = Encode(x)
	}
	return out
}
