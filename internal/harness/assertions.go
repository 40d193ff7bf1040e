package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/kvquery/internal/schema"
	"github.com/roach88/kvquery/internal/value"
)

// Assertion types reported in AssertionError.Type.
const (
	AssertKeys     = "keys"
	AssertCount    = "count"
	AssertPlan     = "plan"
	AssertPushdown = "pushdown"
	AssertError    = "error"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Query    string // Query case name
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Detail   string // Rendered query, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s/%s\n", e.Query, e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Detail != "" {
		fmt.Fprintf(&buf, "  Query: %s\n", e.Detail)
	}
	return buf.String()
}

// checkExpect applies every present check in qc.Expect to out.
func checkExpect(s *schema.Schema, qc QueryCase, out QueryOutcome) []error {
	var errs []error
	fail := func(typ, expected, actual string) {
		errs = append(errs, &AssertionError{
			Query:    qc.Name,
			Type:     typ,
			Expected: expected,
			Actual:   actual,
			Detail:   out.Query,
		})
	}
	exp := qc.Expect

	if exp.Error != "" {
		if !errorMatches(exp.Error, out.Error) {
			fail(AssertError, exp.Error, orNone(out.Error))
		}
		return errs
	}
	if out.Error != "" {
		fail(AssertError, "no error", out.Error)
		return errs
	}

	if exp.Keys != nil {
		want := make([]string, 0, len(exp.Keys))
		for _, raw := range exp.Keys {
			k, err := expectedKey(s, raw)
			if err != nil {
				fail(AssertKeys, fmt.Sprintf("valid key (%v)", raw), err.Error())
				return errs
			}
			want = append(want, k)
		}
		if !slices.Equal(want, out.Keys) {
			fail(AssertKeys, formatKeys(want), formatKeys(out.Keys))
		}
	}

	if exp.Count != nil && *exp.Count != len(out.Keys) {
		fail(AssertCount, fmt.Sprint(*exp.Count), fmt.Sprint(len(out.Keys)))
	}

	if exp.Plan != "" && exp.Plan != out.Plan {
		fail(AssertPlan, exp.Plan, out.Plan)
	}

	if exp.Pushdown != nil && *exp.Pushdown != out.Pushdown {
		fail(AssertPushdown, fmt.Sprint(*exp.Pushdown), fmt.Sprint(out.Pushdown))
	}

	return errs
}

// expectedKey renders an expected primary key in data key notation. A
// composite key is a list with one entry per key field.
func expectedKey(s *schema.Schema, raw any) (string, error) {
	comps := []any{raw}
	if len(s.PrimaryKey) > 1 {
		list, ok := raw.([]any)
		if !ok || len(list) != len(s.PrimaryKey) {
			return "", fmt.Errorf("composite key needs %d components", len(s.PrimaryKey))
		}
		comps = list
	}

	r := make(schema.Record, len(comps))
	for i, name := range s.PrimaryKey {
		f, _ := s.Field(name)
		v, err := value.Parse(f.Kind, comps[i])
		if err != nil {
			return "", fmt.Errorf("key field %q: %w", name, err)
		}
		r[name] = v
	}
	k, err := s.KeyFor(r)
	if err != nil {
		return "", err
	}
	return k.String(), nil
}

// errorMatches compares a validation code exactly and anything else by
// substring.
func errorMatches(want, got string) bool {
	if got == "" {
		return false
	}
	return want == got || strings.Contains(got, want)
}

func formatKeys(ks []string) string {
	return "[" + strings.Join(ks, " ") + "]"
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
