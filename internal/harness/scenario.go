package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/kvquery/internal/filter"
	"github.com/roach88/kvquery/internal/query"
	"github.com/roach88/kvquery/internal/schema"
)

// Scenario is a query conformance scenario: one entity schema, the rows to
// seed, and the queries to run against them with their expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Backend selects the store the rows are seeded into: "memory" (the
	// default) or "sqlite" for an in-memory SQLite database.
	Backend string `yaml:"backend,omitempty"`

	// Schema declares the entity. It is resolved during loading.
	Schema schema.Schema `yaml:"schema"`

	// Rows are inserted in order before any query runs. Values use the
	// native document form, so typed objects such as
	// {kind: decimal, value: "1.5"} are accepted.
	Rows []map[string]any `yaml:"rows"`

	// Queries run in order against the seeded store.
	Queries []QueryCase `yaml:"queries"`
}

// QueryCase is one query and what it must produce.
type QueryCase struct {
	Name string `yaml:"name"`

	// Filter is a filter document; see filter.Decode. Empty matches every row.
	Filter any `yaml:"filter,omitempty"`

	OrderBy []OrderTerm `yaml:"order_by,omitempty"`
	Offset  int         `yaml:"offset,omitempty"`

	// Limit is unlimited when absent.
	Limit *int `yaml:"limit,omitempty"`

	Expect Expect `yaml:"expect"`
}

// OrderTerm is the document form of query.Order.
type OrderTerm struct {
	Field string `yaml:"field"`
	Dir   string `yaml:"dir,omitempty"`
}

// Expect lists the checks applied to a query outcome. Absent checks are
// skipped.
type Expect struct {
	// Keys are the primary keys of the result rows, in order. A composite
	// key is written as a list of its components.
	Keys []any `yaml:"keys,omitempty"`

	// Count is the number of result rows.
	Count *int `yaml:"count,omitempty"`

	// Plan is the plan kind: keys, range, full_scan or index.
	Plan string `yaml:"plan,omitempty"`

	// Pushdown requires pagination to be pushed down (or not).
	Pushdown *bool `yaml:"pushdown,omitempty"`

	// Error is the expected validation error code, such as
	// INVALID_FILTER_FIELD. Any other error matches by substring.
	Error string `yaml:"error,omitempty"`
}

// Build turns the case into a query over entity.
func (c QueryCase) Build(entity string) (query.Query, error) {
	expr, err := filter.Decode(c.Filter)
	if err != nil {
		return query.Query{}, fmt.Errorf("query %s: %w", c.Name, err)
	}
	q := query.New(entity).Where(expr).Offset(c.Offset)
	for _, o := range c.OrderBy {
		dir, err := query.ParseDirection(o.Dir)
		if err != nil {
			return query.Query{}, fmt.Errorf("query %s: %w", c.Name, err)
		}
		q = q.OrderBy(o.Field, dir)
	}
	if c.Limit != nil {
		q = q.Limit(*c.Limit)
	}
	return q, nil
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "querys:" vs "queries:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, sc)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	switch s.Backend {
	case "", BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}

	if err := s.Schema.Resolve(); err != nil {
		return err
	}

	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Queries))
	for i, q := range s.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if seen[q.Name] {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, q.Name)
		}
		seen[q.Name] = true

		if _, err := q.Build(s.Schema.Entity); err != nil {
			return fmt.Errorf("queries[%d]: %w", i, err)
		}
		if q.Expect.Error != "" && (q.Expect.Keys != nil || q.Expect.Count != nil) {
			return fmt.Errorf("queries[%d]: expect.error excludes keys and count", i)
		}
		switch q.Expect.Plan {
		case "", PlanKeys, PlanRange, PlanFullScan, PlanIndex:
		default:
			return fmt.Errorf("queries[%d]: unknown plan kind %q", i, q.Expect.Plan)
		}
	}

	return nil
}
