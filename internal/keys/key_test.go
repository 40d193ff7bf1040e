package keys

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kvquery/internal/value"
)

func mustPrincipal(t *testing.T, b ...byte) PrincipalKey {
	t.Helper()
	p, err := NewPrincipalKey(b)
	require.NoError(t, err)
	return p
}

// orderedKeys returns keys listed in ascending semantic order.
func orderedKeys(t *testing.T) []DataKey {
	t.Helper()
	lo := UlidKey(uuid.MustParse("00000000-0000-0000-0000-000000000001"))
	hi := UlidKey(uuid.MustParse("ffffffff-0000-0000-0000-000000000000"))
	return []DataKey{
		NewDataKey("a"),
		NewDataKey("a", nil),
		NewDataKey("a", IntKey(math.MinInt64)),
		NewDataKey("a", IntKey(-1)),
		NewDataKey("a", IntKey(0)),
		NewDataKey("a", IntKey(0), UintKey(0)),
		NewDataKey("a", IntKey(1)),
		NewDataKey("a", IntKey(math.MaxInt64)),
		NewDataKey("a", UintKey(0)),
		NewDataKey("a", UintKey(256)),
		NewDataKey("a", UintKey(math.MaxUint64)),
		NewDataKey("a", mustPrincipal(t)),
		NewDataKey("a", mustPrincipal(t, 0x00)),
		NewDataKey("a", mustPrincipal(t, 0x00, 0x00)),
		NewDataKey("a", mustPrincipal(t, 0x01)),
		NewDataKey("a", mustPrincipal(t, 0x01, 0x02)),
		NewDataKey("a", mustPrincipal(t, 0xff)),
		NewDataKey("a", lo),
		NewDataKey("a", hi),
		NewDataKey("a\x00"),
		NewDataKey("a\x00", IntKey(0)),
		NewDataKey("a\x01"),
		NewDataKey("ab", IntKey(0)),
		NewDataKey("b"),
	}
}

func TestEncode_ByteOrderMatchesSemanticOrder(t *testing.T) {
	ks := orderedKeys(t)
	for i := range ks {
		for j := range ks {
			sem := ks[i].Compare(ks[j])
			enc := bytes.Compare(ks[i].Encode(), ks[j].Encode())
			require.Equal(t, sem, enc, "%s vs %s", ks[i], ks[j])
		}
		if i > 0 {
			assert.Equal(t, 1, ks[i].Compare(ks[i-1]), "%s must follow %s", ks[i], ks[i-1])
		}
	}
}

func TestDecodeDataKey_Inverts(t *testing.T) {
	for _, k := range orderedKeys(t) {
		got, err := DecodeDataKey(k.Encode())
		require.NoError(t, err, "decode %s", k)
		assert.Equal(t, 0, k.Compare(got), "want %s, got %s", k, got)
		assert.Len(t, got.Components, len(k.Components))
	}
}

func TestDecodeDataKey_Malformed(t *testing.T) {
	cases := map[string][]byte{
		"no terminator":  []byte("orders"),
		"bad escape":     {'a', 0x00, 0x07},
		"short int":      append(LowerBound("a"), tagInt, 1, 2),
		"unknown tag":    append(LowerBound("a"), 0x77),
		"open principal": append(LowerBound("a"), tagPrincipal, 'x'),
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDataKey(b)
			assert.ErrorIs(t, err, ErrMalformedKey)
		})
	}
}

func TestBounds_DelimitPathKeySpace(t *testing.T) {
	lo, hi := LowerBound("a"), UpperBound("a")
	for _, k := range orderedKeys(t) {
		enc := k.Encode()
		inside := bytes.Compare(enc, lo) >= 0 && bytes.Compare(enc, hi) < 0
		assert.Equal(t, k.Path == "a", inside, "key %s", k)
	}
}

func TestPrefixUpperBound(t *testing.T) {
	prefix := []IndexValue{IntKey(7)}
	bound := PrefixUpperBound("orders", prefix, KindUint).Encode()

	under := NewDataKey("orders", IntKey(7), UintKey(math.MaxUint64-1)).Encode()
	equal := NewDataKey("orders", IntKey(7), UintKey(math.MaxUint64)).Encode()
	over := NewDataKey("orders", IntKey(8)).Encode()

	assert.Equal(t, -1, bytes.Compare(under, bound))
	assert.Equal(t, 0, bytes.Compare(equal, bound))
	assert.Equal(t, 1, bytes.Compare(over, bound))
}

func TestPrefixRange(t *testing.T) {
	lo, hi := PrefixRange("idx", []IndexValue{UintKey(3)})
	in := IndexKey{Path: "idx", Components: []IndexValue{UintKey(3), mustPrincipal(t, 0xff, 0xff)}}.Encode()
	out := IndexKey{Path: "idx", Components: []IndexValue{UintKey(4)}}.Encode()

	assert.True(t, bytes.Compare(in, lo) >= 0 && bytes.Compare(in, hi) < 0)
	assert.False(t, bytes.Compare(out, lo) >= 0 && bytes.Compare(out, hi) < 0)
}

func TestSentinelMax_IsMaximal(t *testing.T) {
	for _, k := range orderedKeys(t) {
		for _, c := range k.Components {
			if c == nil {
				continue
			}
			assert.LessOrEqual(t, CompareValues(c, SentinelMax(c.Kind())), 0, "%s", k)
		}
	}
}

func TestCompareValues_Rank(t *testing.T) {
	assert.Equal(t, -1, CompareValues(IntKey(math.MaxInt64), UintKey(0)))
	assert.Equal(t, -1, CompareValues(UintKey(math.MaxUint64), mustPrincipal(t)))
	assert.Equal(t, -1, CompareValues(mustPrincipal(t, 0xff), UlidKey{}))
	assert.Equal(t, -1, CompareValues(nil, IntKey(math.MinInt64)))
}

func TestFromValue(t *testing.T) {
	iv, ok := FromValue(value.Int(-3))
	require.True(t, ok)
	assert.Equal(t, IntKey(-3), iv)

	iv, ok = FromValue(value.None{})
	require.True(t, ok)
	assert.Nil(t, iv)

	_, ok = FromValue(value.Text("x"))
	assert.False(t, ok)

	assert.Equal(t, value.Uint(9), ToValue(UintKey(9)))
}

func TestEncoding_Golden(t *testing.T) {
	cases := []struct {
		name string
		enc  []byte
	}{
		{"int_negative", NewDataKey("orders", IntKey(-1)).Encode()},
		{"int_zero", NewDataKey("orders", IntKey(0)).Encode()},
		{"uint", NewDataKey("orders", UintKey(258)).Encode()},
		{"absent", NewDataKey("orders", nil).Encode()},
		{"principal_with_nul", NewDataKey("users", mustPrincipal(t, 0x00, 0xab)).Encode()},
		{"ulid", NewDataKey("users", UlidKey(uuid.MustParse("0190c5f4-7a3b-7c1d-9e2f-123456789abc"))).Encode()},
		{"composite_escaped_path", NewDataKey("a\x00b", IntKey(1), UintKey(2)).Encode()},
		{"lower_bound", LowerBound("orders")},
		{"upper_bound", UpperBound("orders")},
	}

	var sb strings.Builder
	for _, c := range cases {
		fmt.Fprintf(&sb, "%s: %s\n", c.name, hex.EncodeToString(c.enc))
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "encoding", []byte(sb.String()))
}
