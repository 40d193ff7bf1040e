package query

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/kvquery/internal/executor"
	"github.com/roach88/kvquery/internal/filter"
	"github.com/roach88/kvquery/internal/plan"
	"github.com/roach88/kvquery/internal/schema"
	"github.com/roach88/kvquery/internal/value"
)

// Result is the outcome of Load.
type Result[E filter.FieldAccessor] struct {
	Rows []executor.Row[E]

	// Plan is the plan the rows were read through.
	Plan plan.Plan

	// Pushdown is true when offset and limit were applied by the executor.
	Pushdown bool
}

// Load runs q through exec.
func Load[E filter.FieldAccessor](ctx context.Context, exec *executor.Context[E], q Query) (Result[E], error) {
	s := exec.Schema()
	if q.Entity != s.Entity {
		return Result[E]{}, fmt.Errorf("query over %q run against entity %q", q.Entity, s.Entity)
	}

	expr, err := q.Validate(s)
	if err != nil {
		return Result[E]{}, err
	}

	p := plan.For(s, expr)
	page := executor.Page{Offset: q.offset, Limit: q.limit}

	exec.Logger().Debug("query planned",
		"query", q.String(),
		"plan", plan.Describe(p))

	if filter.IsTriviallyTrue(expr) && len(q.Orders) == 0 {
		rows, err := exec.RowsFromPlanWithPagination(ctx, p, page)
		if err != nil {
			return Result[E]{}, err
		}
		return Result[E]{Rows: rows, Plan: p, Pushdown: true}, nil
	}

	rows, err := exec.RowsFromPlan(ctx, p)
	if err != nil {
		return Result[E]{}, err
	}

	matched := rows[:0]
	for _, r := range rows {
		if filter.Eval(expr, r.Entity) {
			matched = append(matched, r)
		}
	}

	if len(q.Orders) > 0 {
		slices.SortStableFunc(matched, func(a, b executor.Row[E]) int {
			return compareRows(q.Orders, a.Entity, b.Entity)
		})
	}

	start, end := page.Bounds(len(matched))
	return Result[E]{Rows: matched[start:end:end], Plan: p}, nil
}

// Validate checks the filter and every order field against s and returns the
// simplified filter.
func (q Query) Validate(s *schema.Schema) (filter.Expr, error) {
	expr := filter.Simplify(q.Filter)
	if err := filter.Validate(expr, s); err != nil {
		return nil, err
	}
	for _, o := range q.Orders {
		if !s.Filterable(o.Field) {
			return nil, &filter.ValidationError{
				Code:    filter.ErrCodeInvalidField,
				Field:   o.Field,
				Message: "cannot order by undeclared or unfilterable field",
			}
		}
	}
	return expr, nil
}

func compareRows(orders []Order, a, b filter.FieldAccessor) int {
	for _, o := range orders {
		c := value.Compare(fieldOrNone(a, o.Field), fieldOrNone(b, o.Field))
		if o.Dir == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func fieldOrNone(row filter.FieldAccessor, name string) value.Value {
	if v, ok := row.Field(name); ok {
		return v
	}
	return value.None{}
}
