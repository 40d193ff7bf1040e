// Package harness runs query conformance scenarios.
//
// A scenario declares an entity schema, seeds rows into a fresh store, runs
// queries through the planner and executor, and checks each outcome.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: product_catalog
//	description: "What this scenario validates"
//	backend: memory            # or sqlite
//	schema:
//	  entity: product
//	  fields:
//	    - {name: id, kind: uint}
//	    - {name: category, kind: text}
//	  primary_key: [id]
//	  indexes:
//	    - {name: by_category, fields: [category]}
//	rows:
//	  - {id: 0, category: A}
//	queries:
//	  - name: category_a
//	    filter: {field: category, cmp: eq, value: A}
//	    order_by: [{field: id, dir: desc}]
//	    offset: 0
//	    limit: 10
//	    expect:
//	      keys: [0]
//	      plan: full_scan
//
// # Expectations
//
// Every expect entry is optional:
//
//   - keys: primary keys of the result, in order
//   - count: number of result rows
//   - plan: keys, range, full_scan or index
//   - pushdown: whether offset and limit were applied by the executor
//   - error: a validation code such as INVALID_FILTER_VALUE
//
// # Golden Snapshots
//
// RunWithGolden stores each run's outcomes under testdata/golden so planner
// or ordering changes show up as reviewable diffs.
package harness
