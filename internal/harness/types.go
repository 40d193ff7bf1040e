package harness

import "github.com/roach88/kvquery/internal/plan"

// Backends a scenario can seed.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Plan kinds as written in expect.plan.
const (
	PlanKeys     = "keys"
	PlanRange    = "range"
	PlanFullScan = "full_scan"
	PlanIndex    = "index"
)

// PlanKind names the kind of p.
func PlanKind(p plan.Plan) string {
	switch p.(type) {
	case plan.Keys:
		return PlanKeys
	case plan.Range:
		return PlanRange
	case plan.FullScan:
		return PlanFullScan
	case plan.Index:
		return PlanIndex
	}
	return ""
}

// QueryOutcome is what one query case produced.
type QueryOutcome struct {
	Name  string `json:"name"`
	Query string `json:"query"`

	// Plan is empty when the query failed before planning.
	Plan     string `json:"plan,omitempty"`
	Pushdown bool   `json:"pushdown,omitempty"`

	// Keys are the result rows' primary keys in data key notation.
	Keys []string `json:"keys"`

	// Error is the validation code, or the message of any other error.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every query met its expectations.
	Pass bool `json:"pass"`

	Queries []QueryOutcome `json:"queries"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Queries: []QueryOutcome{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
