package executor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kvquery/internal/keys"
	"github.com/roach88/kvquery/internal/plan"
	"github.com/roach88/kvquery/internal/schema"
	"github.com/roach88/kvquery/internal/store"
	"github.com/roach88/kvquery/internal/value"
)

var products = schema.MustNew("product",
	[]schema.Field{
		schema.F("id", value.KindUint),
		schema.F("category", value.KindText),
		schema.F("level", value.KindInt),
	},
	[]string{"id"},
	schema.Index{Name: "by_level", Fields: []string{"level"}},
)

const rowCount = 10

// seed writes rows 0..9 with category A, B, C cycling and level id%4.
func seed(t *testing.T, ms store.MutableStore) {
	t.Helper()
	cats := []string{"A", "B", "C"}
	for i := range rowCount {
		r := schema.Record{
			"id":       value.Uint(i),
			"category": value.Text(cats[i%3]),
			"level":    value.Int(int64(i % 4)),
		}
		require.NoError(t, store.Insert(context.Background(), ms, products, r))
	}
}

func newContext(t *testing.T, ms store.MutableStore) *Context[schema.Record] {
	t.Helper()
	reg := store.NewRegistry()
	require.NoError(t, reg.Register("main", ms))
	seed(t, ms)
	return New(reg, "main", products, RecordDecoder(products))
}

func backends(t *testing.T) map[string]store.MutableStore {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "exec.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return map[string]store.MutableStore{"memory": store.NewMemory(), "sqlite": s}
}

func pk(id uint64) keys.DataKey {
	return keys.NewDataKey("product", keys.UintKey(id))
}

func ids(rows []Row[schema.Record]) []uint64 {
	out := make([]uint64, len(rows))
	for i, r := range rows {
		out[i] = uint64(r.Entity["id"].(value.Uint))
	}
	return out
}

func byLevel() schema.Index {
	idx, _ := products.Index("by_level")
	return idx
}

func TestRowsFromPlan(t *testing.T) {
	for name, ms := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := newContext(t, ms)
			ctx := context.Background()

			rows, err := c.RowsFromPlan(ctx, plan.FullScan{})
			require.NoError(t, err)
			assert.Equal(t, []uint64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, ids(rows))
			assert.Equal(t, pk(0), rows[0].Key)

			rows, err = c.RowsFromPlan(ctx, plan.Keys{Keys: []keys.DataKey{pk(7), pk(2), pk(42)}})
			require.NoError(t, err)
			assert.Equal(t, []uint64{7, 2}, ids(rows), "key order kept, missing keys skipped")

			rows, err = c.RowsFromPlan(ctx, plan.Range{Lo: pk(3), Hi: pk(6)})
			require.NoError(t, err)
			assert.Equal(t, []uint64{3, 4, 5, 6}, ids(rows))

			rows, err = c.RowsFromPlan(ctx, plan.Index{Index: byLevel(), Values: []keys.IndexValue{keys.IntKey(1)}})
			require.NoError(t, err)
			assert.Equal(t, []uint64{1, 5, 9}, ids(rows))
		})
	}
}

func TestCandidatesFromPlan(t *testing.T) {
	c := newContext(t, store.NewMemory())
	ctx := context.Background()

	got, err := c.CandidatesFromPlan(ctx, plan.Range{Lo: pk(8), Hi: pk(math.MaxUint64)})
	require.NoError(t, err)
	assert.Equal(t, []keys.DataKey{pk(8), pk(9)}, got)

	got, err = c.CandidatesFromPlan(ctx, plan.Keys{Keys: []keys.DataKey{pk(42)}})
	require.NoError(t, err)
	assert.Equal(t, []keys.DataKey{pk(42)}, got, "key plans are not checked against the store")

	got, err = c.CandidatesFromPlan(ctx, plan.FullScan{})
	require.NoError(t, err)
	assert.Len(t, got, rowCount, "index entries are outside the entity key space")

	got, err = c.CandidatesFromPlan(ctx, plan.Index{Index: byLevel(), Values: []keys.IndexValue{keys.IntKey(3)}})
	require.NoError(t, err)
	assert.Equal(t, []keys.DataKey{pk(3), pk(7)}, got)
}

func TestRowsFromPlanWithPagination_Cardinality(t *testing.T) {
	c := newContext(t, store.NewMemory())
	ctx := context.Background()

	allKeys := make([]keys.DataKey, rowCount)
	for i := range allKeys {
		allKeys[i] = pk(uint64(i))
	}
	plans := map[string]plan.Plan{
		"keys":      plan.Keys{Keys: allKeys},
		"range":     plan.Range{Lo: pk(0), Hi: pk(math.MaxUint64)},
		"full_scan": plan.FullScan{},
	}
	limits := []int{-1, 0, 1, 3, rowCount, 100, math.MaxInt}

	for name, p := range plans {
		for o := 0; o <= rowCount+2; o++ {
			for _, l := range limits {
				t.Run(fmt.Sprintf("%s/o=%d/l=%d", name, o, l), func(t *testing.T) {
					rows, err := c.RowsFromPlanWithPagination(ctx, p, Page{Offset: o, Limit: l})
					require.NoError(t, err)

					start := min(o, rowCount)
					end := rowCount
					if l >= 0 && l < rowCount-start {
						end = start + l
					}
					require.Len(t, rows, max(0, end-start))
					for i, r := range rows {
						assert.Equal(t, pk(uint64(start+i)), r.Key)
					}
				})
			}
		}
	}
}

func TestRowsFromPlanWithPagination_Index(t *testing.T) {
	c := newContext(t, store.NewMemory())
	rows, err := c.RowsFromPlanWithPagination(context.Background(),
		plan.Index{Index: byLevel(), Values: []keys.IndexValue{keys.IntKey(0)}},
		Page{Offset: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, ids(rows))
}

func TestPage_Bounds(t *testing.T) {
	tests := []struct {
		page       Page
		total      int
		start, end int
	}{
		{All, 5, 0, 5},
		{Page{Offset: 2, Limit: 2}, 5, 2, 4},
		{Page{Offset: 9, Limit: 2}, 5, 5, 5},
		{Page{Offset: -3, Limit: 2}, 5, 0, 2},
		{Page{Offset: 4, Limit: math.MaxInt}, 5, 4, 5},
		{Page{Offset: math.MaxInt, Limit: math.MaxInt}, 5, 5, 5},
		{Page{Offset: 0, Limit: 0}, 0, 0, 0},
	}
	for _, tt := range tests {
		start, end := tt.page.Bounds(tt.total)
		assert.Equal(t, tt.start, start, "%+v", tt.page)
		assert.Equal(t, tt.end, end, "%+v", tt.page)
	}
}

func TestDecodeFailureIsFatal(t *testing.T) {
	ms := store.NewMemory()
	c := newContext(t, ms)
	ctx := context.Background()

	require.NoError(t, ms.Put(ctx, pk(4).Encode(), []byte("{not json")))

	_, err := c.RowsFromPlan(ctx, plan.FullScan{})
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))
	assert.Contains(t, err.Error(), "product(4u)")

	_, err = c.RowsFromPlan(ctx, plan.Keys{Keys: []keys.DataKey{pk(4)}})
	assert.True(t, IsDecodeError(err))

	// Rows outside the page are never decoded.
	rows, err := c.RowsFromPlanWithPagination(ctx, plan.FullScan{}, Page{Offset: 0, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestDeserializeRows(t *testing.T) {
	c := newContext(t, store.NewMemory())

	rows, err := c.DeserializeRows([]store.Entry{
		{Key: pk(1).Encode(), Value: []byte(`{"id":{"kind":"uint","value":"1"},"level":2}`)},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, pk(1), rows[0].Key)
	assert.Equal(t, value.Int(2), rows[0].Entity["level"])

	_, err = c.DeserializeRows([]store.Entry{{Key: []byte{0x01}, Value: []byte(`{}`)}})
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, keys.ErrMalformedKey)
}

func TestStoreErrorsSurface(t *testing.T) {
	c := newContext(t, store.NewMemory())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.RowsFromPlan(ctx, plan.FullScan{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsDecodeError(err))
}

func TestReentrantBorrowRejected(t *testing.T) {
	ms := store.NewMemory()
	reg := store.NewRegistry()
	require.NoError(t, reg.Register("main", ms))
	c := New(reg, "main", products, RecordDecoder(products))

	err := reg.WithStoreMut(context.Background(), "main", func(ctx context.Context, _ store.MutableStore) error {
		_, err := c.RowsFromPlan(ctx, plan.FullScan{})
		return err
	})
	assert.True(t, errors.Is(err, store.ErrReentrantBorrow))
}
