package plan

import (
	"math"
	"slices"

	"github.com/roach88/kvquery/internal/filter"
	"github.com/roach88/kvquery/internal/keys"
	"github.com/roach88/kvquery/internal/schema"
	"github.com/roach88/kvquery/internal/value"
)

// For picks a plan for filter e over entity s.
//
// Only top-level AND conjuncts are considered, in this order:
//  1. Eq on every primary-key field gives Keys
//  2. In on a single-field primary key gives Keys
//  3. Eq on all but the last primary-key field, or bounds (Gt/Gte/Lt/Lte)
//     on a single-field primary key, give Range
//  4. Eq on the first field of a declared index gives Index
//  5. anything else is FullScan
//
// A filter that simplifies to False plans as an empty Keys.
//
// Values that cannot be represented in the key's variant without loss leave
// the conjunct unused.
func For(s *schema.Schema, e filter.Expr) Plan {
	e = filter.Simplify(e)
	if _, ok := e.(filter.False); ok {
		return Keys{}
	}

	conj := conjuncts(e)
	if p, ok := primaryKeyPlan(s, conj); ok {
		return p
	}
	if p, ok := indexPlan(s, conj); ok {
		return p
	}
	return FullScan{}
}

func conjuncts(e filter.Expr) []filter.Clause {
	var out []filter.Clause
	switch x := e.(type) {
	case filter.Clause:
		out = append(out, x)
	case filter.And:
		for _, c := range x.Exprs {
			if cl, ok := c.(filter.Clause); ok {
				out = append(out, cl)
			}
		}
	}
	return out
}

func primaryKeyPlan(s *schema.Schema, conj []filter.Clause) (Plan, bool) {
	path := s.Path()
	pk := s.PrimaryKey

	var prefix []keys.IndexValue
	for _, name := range pk {
		iv, ok := eqComponent(s, conj, name)
		if !ok {
			break
		}
		prefix = append(prefix, iv)
	}
	if len(prefix) == len(pk) {
		return Keys{Keys: []keys.DataKey{keys.NewDataKey(path, prefix...)}}, true
	}

	if len(pk) == 1 {
		if p, ok := inPlan(s, conj, pk[0]); ok {
			return p, true
		}
		if p, ok := boundsPlan(s, conj, pk[0]); ok {
			return p, true
		}
		return nil, false
	}

	if len(prefix) == len(pk)-1 {
		last, _ := s.Field(pk[len(pk)-1])
		kind, _ := keys.KindOf(last.Kind)
		return Range{
			Lo: keys.NewDataKey(path, prefix...),
			Hi: keys.PrefixUpperBound(path, prefix, kind),
		}, true
	}
	return nil, false
}

func eqComponent(s *schema.Schema, conj []filter.Clause, field string) (keys.IndexValue, bool) {
	for _, c := range conj {
		if c.Field != field || c.Cmp != filter.CmpEq {
			continue
		}
		if iv, ok := componentFor(s, field, c.Value); ok {
			return iv, true
		}
	}
	return nil, false
}

func inPlan(s *schema.Schema, conj []filter.Clause, field string) (Plan, bool) {
	for _, c := range conj {
		if c.Field != field || c.Cmp != filter.CmpIn {
			continue
		}
		list, ok := c.Value.(value.List)
		if !ok {
			continue
		}
		ks := make([]keys.DataKey, 0, len(list))
		usable := true
		for _, v := range list {
			iv, ok := componentFor(s, field, v)
			if !ok {
				usable = false
				break
			}
			ks = append(ks, keys.NewDataKey(s.Path(), iv))
		}
		if !usable {
			continue
		}
		slices.SortFunc(ks, keys.DataKey.Compare)
		ks = slices.CompactFunc(ks, func(a, b keys.DataKey) bool { return a.Compare(b) == 0 })
		return Keys{Keys: ks}, true
	}
	return nil, false
}

func boundsPlan(s *schema.Schema, conj []filter.Clause, field string) (Plan, bool) {
	f, _ := s.Field(field)
	kind, _ := keys.KindOf(f.Kind)
	path := s.Path()

	var lo, hi keys.IndexValue
	for _, c := range conj {
		if c.Field != field {
			continue
		}
		switch c.Cmp {
		case filter.CmpGt, filter.CmpGte:
			if iv, ok := componentFor(s, field, c.Value); ok {
				if lo == nil || keys.CompareValues(iv, lo) > 0 {
					lo = iv
				}
			}
		case filter.CmpLt, filter.CmpLte:
			if iv, ok := componentFor(s, field, c.Value); ok {
				if hi == nil || keys.CompareValues(iv, hi) < 0 {
					hi = iv
				}
			}
		}
	}
	if lo == nil && hi == nil {
		return nil, false
	}
	r := Range{Lo: keys.NewDataKey(path), Hi: keys.NewDataKey(path, keys.SentinelMax(kind))}
	if lo != nil {
		r.Lo = keys.NewDataKey(path, lo)
	}
	if hi != nil {
		r.Hi = keys.NewDataKey(path, hi)
	}
	return r, true
}

func indexPlan(s *schema.Schema, conj []filter.Clause) (Plan, bool) {
	for _, idx := range s.Indexes {
		iv, ok := eqComponent(s, conj, idx.Fields[0])
		if ok && iv != nil {
			return Index{Index: idx, Values: []keys.IndexValue{iv}}, true
		}
	}
	return nil, false
}

// componentFor converts a filter value to the key variant of field, bridging
// Int and Uint when the value fits.
func componentFor(s *schema.Schema, field string, v value.Value) (keys.IndexValue, bool) {
	f, ok := s.Field(field)
	if !ok {
		return nil, false
	}
	want, ok := keys.KindOf(f.Kind)
	if !ok {
		return nil, false
	}
	switch x := v.(type) {
	case value.Int:
		if want == keys.KindUint && x >= 0 {
			return keys.UintKey(x), true
		}
	case value.Uint:
		if want == keys.KindInt && x <= math.MaxInt64 {
			return keys.IntKey(x), true
		}
	}
	iv, ok := keys.FromValue(v)
	if !ok || iv == nil || iv.Kind() != want {
		return nil, false
	}
	return iv, true
}
