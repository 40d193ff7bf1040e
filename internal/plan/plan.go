// Package plan describes how a query reaches its candidate rows.
//
// A Plan is a sealed union. The executor switches over it exhaustively:
//
//   - Keys: point lookups of known primary keys
//   - Range: an inclusive scan between two data keys
//   - FullScan: a Range over the entity's whole key space
//   - Index: candidate keys resolved through a secondary index
//
// Plans never filter. The query layer re-evaluates the full filter on every
// candidate, so a coarse plan is always correct, only slower.
package plan

import (
	"fmt"
	"strings"

	"github.com/roach88/kvquery/internal/keys"
	"github.com/roach88/kvquery/internal/schema"
)

// Plan is a sealed interface over the plan variants.
type Plan interface {
	planNode() // Marker method - seals interface to this package
}

// Keys loads the listed primary keys, in list order.
type Keys struct {
	Keys []keys.DataKey
}

// Range scans every data key k with Lo <= k <= Hi in key order.
type Range struct {
	Lo keys.DataKey
	Hi keys.DataKey
}

// FullScan scans the entity's entire key space.
type FullScan struct{}

// Index resolves candidate keys by looking Values up in a secondary index.
// Values is a prefix of the index's fields.
type Index struct {
	Index  schema.Index
	Values []keys.IndexValue
}

func (Keys) planNode()     {}
func (Range) planNode()    {}
func (FullScan) planNode() {}
func (Index) planNode()    {}

// Describe renders a plan for logs and snapshots.
func Describe(p Plan) string {
	switch x := p.(type) {
	case Keys:
		parts := make([]string, len(x.Keys))
		for i, k := range x.Keys {
			parts[i] = k.String()
		}
		return "keys[" + strings.Join(parts, " ") + "]"
	case Range:
		return fmt.Sprintf("range[%s..%s]", x.Lo, x.Hi)
	case FullScan:
		return "full_scan"
	case Index:
		k := keys.IndexKey{Path: x.Index.Name, Components: x.Values}
		return "index:" + k.String()
	}
	return fmt.Sprintf("unknown(%T)", p)
}
