// Package query is the builder layer over the executor: it validates a
// filter against the entity schema, picks a plan, loads candidates, filters
// and sorts them in memory, then pages the result.
//
// Semantics:
//   - Validation errors are returned before the store is touched
//   - The full filter is re-evaluated on every candidate; the plan only
//     narrows what is read
//   - With no residual filter and no ordering, offset and limit are pushed
//     down to the executor so rows outside the page are never loaded
//   - Sorting is stable and uses value.Compare; a missing field sorts as None
package query

import (
	"fmt"
	"strings"

	"github.com/roach88/kvquery/internal/filter"
)

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts "asc" or "desc", case-insensitively. Empty is Asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return Asc, fmt.Errorf("invalid sort direction %q", s)
}

// Order is one ORDER BY term.
type Order struct {
	Field string
	Dir   Direction
}

// Query is an immutable query description. Builder methods return copies.
type Query struct {
	Entity string
	Filter filter.Expr
	Orders []Order

	offset int
	limit  int
}

// New starts a query over entity with no filter, order or paging.
func New(entity string) Query {
	return Query{Entity: entity, Filter: filter.True{}, limit: -1}
}

// Where adds a filter. Repeated calls AND their filters together.
func (q Query) Where(e filter.Expr) Query {
	q.Filter = filter.AndOf(q.Filter, e)
	return q
}

// OrderBy appends a sort term. Earlier terms take precedence.
func (q Query) OrderBy(field string, dir Direction) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Field: field, Dir: dir})
	return q
}

// Offset skips the first n matching rows. Negative n counts as zero.
func (q Query) Offset(n int) Query {
	q.offset = max(n, 0)
	return q
}

// Limit caps the result at n rows. A negative n removes the cap.
func (q Query) Limit(n int) Query {
	q.limit = n
	return q
}

// Page returns the offset and limit; limit is negative when unset.
func (q Query) Page() (offset, limit int) {
	return q.offset, q.limit
}

// String renders the query for logs.
func (q Query) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "FROM %s WHERE %s", q.Entity, filter.String(filter.Simplify(q.Filter)))
	if len(q.Orders) > 0 {
		parts := make([]string, len(q.Orders))
		for i, o := range q.Orders {
			parts[i] = o.Field + " " + o.Dir.String()
		}
		sb.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}
	if q.offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", q.offset)
	}
	if q.limit >= 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.limit)
	}
	return sb.String()
}
