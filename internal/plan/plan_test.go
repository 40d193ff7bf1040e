package plan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kvquery/internal/filter"
	"github.com/roach88/kvquery/internal/keys"
	"github.com/roach88/kvquery/internal/schema"
	"github.com/roach88/kvquery/internal/value"
)

var products = schema.MustNew("product",
	[]schema.Field{
		schema.F("id", value.KindUint),
		schema.F("name", value.KindText),
		schema.F("score", value.KindFloat64),
		schema.F("level", value.KindInt),
	},
	[]string{"id"},
	schema.Index{Name: "by_level", Fields: []string{"level"}},
)

var lines = schema.MustNew("line",
	[]schema.Field{
		schema.F("order", value.KindUint),
		schema.F("seq", value.KindInt),
		schema.F("qty", value.KindInt),
	},
	[]string{"order", "seq"},
)

func productKey(ids ...uint64) []keys.DataKey {
	out := make([]keys.DataKey, len(ids))
	for i, id := range ids {
		out[i] = keys.NewDataKey("product", keys.UintKey(id))
	}
	return out
}

func TestFor_PrimaryKeyEq(t *testing.T) {
	p := For(products, filter.AndOf(filter.Eq("id", value.Uint(7)), filter.Gt("score", value.Float64(1))))
	assert.Equal(t, Keys{Keys: productKey(7)}, p)

	// Int literals bridge onto a Uint key when non-negative.
	p = For(products, filter.Eq("id", value.Int(7)))
	assert.Equal(t, Keys{Keys: productKey(7)}, p)

	// A negative Int cannot be a Uint key, so the conjunct is unusable.
	p = For(products, filter.Eq("id", value.Int(-1)))
	assert.Equal(t, FullScan{}, p)
}

func TestFor_PrimaryKeyIn(t *testing.T) {
	p := For(products, filter.In("id", value.Uint(9), value.Uint(2), value.Int(9)))
	assert.Equal(t, Keys{Keys: productKey(2, 9)}, p, "sorted and deduplicated")

	p = For(products, filter.In("id", value.Uint(1), value.Text("x")))
	assert.Equal(t, FullScan{}, p)
}

func TestFor_PrimaryKeyBounds(t *testing.T) {
	p := For(products, filter.AndOf(filter.Gte("id", value.Uint(3)), filter.Lte("id", value.Uint(8))))
	assert.Equal(t, Range{
		Lo: keys.NewDataKey("product", keys.UintKey(3)),
		Hi: keys.NewDataKey("product", keys.UintKey(8)),
	}, p)

	p = For(products, filter.Gt("id", value.Uint(3)))
	assert.Equal(t, Range{
		Lo: keys.NewDataKey("product", keys.UintKey(3)),
		Hi: keys.NewDataKey("product", keys.UintKey(math.MaxUint64)),
	}, p)

	p = For(products, filter.Lt("id", value.Uint(3)))
	assert.Equal(t, Range{
		Lo: keys.NewDataKey("product"),
		Hi: keys.NewDataKey("product", keys.UintKey(3)),
	}, p)

	// The tightest of several bounds wins.
	p = For(products, filter.AndOf(filter.Gte("id", value.Uint(3)), filter.Gte("id", value.Uint(5))))
	assert.Equal(t, keys.NewDataKey("product", keys.UintKey(5)), p.(Range).Lo)
}

func TestFor_CompositePrefix(t *testing.T) {
	p := For(lines, filter.Eq("order", value.Uint(4)))
	assert.Equal(t, Range{
		Lo: keys.NewDataKey("line", keys.UintKey(4)),
		Hi: keys.NewDataKey("line", keys.UintKey(4), keys.IntKey(math.MaxInt64)),
	}, p)

	p = For(lines, filter.AndOf(filter.Eq("order", value.Uint(4)), filter.Eq("seq", value.Int(2))))
	assert.Equal(t, Keys{Keys: []keys.DataKey{keys.NewDataKey("line", keys.UintKey(4), keys.IntKey(2))}}, p)

	p = For(lines, filter.Eq("seq", value.Int(2)))
	assert.Equal(t, FullScan{}, p, "a non-leading component alone cannot bound a scan")
}

func TestFor_Index(t *testing.T) {
	p := For(products, filter.AndOf(filter.Eq("level", value.Int(2)), filter.Gt("score", value.Float64(80))))
	require.IsType(t, Index{}, p)
	idx := p.(Index)
	assert.Equal(t, "by_level", idx.Index.Name)
	assert.Equal(t, []keys.IndexValue{keys.IntKey(2)}, idx.Values)
}

func TestFor_Fallbacks(t *testing.T) {
	assert.Equal(t, FullScan{}, For(products, nil))
	assert.Equal(t, FullScan{}, For(products, filter.True{}))
	assert.Equal(t, Keys{}, For(products, filter.False{}))
	assert.Equal(t, FullScan{}, For(products,
		filter.OrOf(filter.Eq("id", value.Uint(1)), filter.Eq("id", value.Uint(2)))),
		"disjunctions are not planned")
	assert.Equal(t, FullScan{}, For(products, filter.NotOf(filter.Eq("id", value.Uint(1)))))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "keys[product(2u) product(9u)]", Describe(Keys{Keys: productKey(2, 9)}))
	assert.Equal(t, "full_scan", Describe(FullScan{}))
	assert.Equal(t, "range[product(3u)..product(8u)]", Describe(Range{
		Lo: keys.NewDataKey("product", keys.UintKey(3)),
		Hi: keys.NewDataKey("product", keys.UintKey(8)),
	}))
	assert.Equal(t, "index:by_level(2)", Describe(Index{
		Index:  schema.Index{Name: "by_level"},
		Values: []keys.IndexValue{keys.IntKey(2)},
	}))
}
