package value

import (
	"bytes"
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromNative_Plain(t *testing.T) {
	v, err := FromNative(map[string]any{
		"b":    true,
		"a":    []any{1, "x", nil},
		"f":    80.5,
		"big":  uint64(1 << 63),
		"json": json.Number("12"),
	})
	require.NoError(t, err)

	assert.Equal(t, List{
		MapEntry(Text("a"), List{Int(1), Text("x"), None{}}),
		MapEntry(Text("b"), Bool(true)),
		MapEntry(Text("big"), Uint(1<<63)),
		MapEntry(Text("f"), Float64(80.5)),
		MapEntry(Text("json"), Int(12)),
	}, v)
}

func TestFromNative_Typed(t *testing.T) {
	v, err := FromNative(map[string]any{"kind": "decimal", "value": "10.25"})
	require.NoError(t, err)
	assert.True(t, Equal(MustDecimal("10.25"), v))

	v, err = FromNative(map[string]any{"kind": "e8s", "value": "1.5"})
	require.NoError(t, err)
	assert.Equal(t, E8s(150_000_000), v)

	v, err = FromNative(map[string]any{"kind": "date", "value": "1970-01-11"})
	require.NoError(t, err)
	assert.Equal(t, Date(10), v)

	v, err = FromNative(map[string]any{"kind": "duration", "value": "1m30s"})
	require.NoError(t, err)
	assert.Equal(t, Duration(90_000), v)

	v, err = FromNative(map[string]any{"kind": "enum", "path": "Status", "variant": "Active"})
	require.NoError(t, err)
	assert.Equal(t, Enum{Path: "Status", Variant: "Active"}, v)

	// A map with a non-typed key is a plain map even if it has "kind".
	v, err = FromNative(map[string]any{"kind": "int", "other": 1})
	require.NoError(t, err)
	assert.True(t, IsMap(v))
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(KindE8s, "0.000000001")
	assert.Error(t, err, "more fractional digits than the scale")

	_, err = Parse(KindE8s, "-1")
	assert.Error(t, err)

	_, err = Parse(KindInt, "9223372036854775808")
	assert.Error(t, err)

	_, err = Parse(KindSubaccount, "00ff")
	assert.Error(t, err)

	_, err = Parse(KindText, 12)
	assert.Error(t, err)

	_, err = Parse(KindInt, map[string]any{"kind": "text", "value": "x"})
	assert.Error(t, err, "typed kind must match the requested kind")
}

func TestParse_NilIsNone(t *testing.T) {
	v, err := Parse(KindTimestamp, nil)
	require.NoError(t, err)
	assert.Equal(t, None{}, v)
}

func TestToNative_RestoresThroughFromNative(t *testing.T) {
	id := uuid.MustParse("0190c5f4-7a3b-7c1d-9e2f-123456789abc")
	owner, err := NewPrincipal([]byte{0xab, 0xcd})
	require.NoError(t, err)
	e18, err := NewE18s(big.NewInt(1_500_000_000_000_000))
	require.NoError(t, err)

	values := []Value{
		Int(-7),
		Uint(1 << 63),
		Float32(0.1),
		MustDecimal("-3.14"),
		E8s(123),
		e18,
		Date(19000),
		Duration(1500),
		Timestamp(1_700_000_000_123),
		NewBlob([]byte{0, 1, 2}),
		Ulid(id),
		owner,
		Account{Owner: owner, Subaccount: Subaccount{31: 1}},
		Enum{Path: "Shape", Variant: "Circle", Payload: Float64(2.5)},
		List{Text("x"), Bool(false)},
	}
	for _, v := range values {
		t.Run(v.Kind().String(), func(t *testing.T) {
			// Round trip through JSON to prove the native form is serializable.
			data, err := json.Marshal(ToNative(v))
			require.NoError(t, err)

			dec := json.NewDecoder(bytes.NewReader(data))
			dec.UseNumber()
			var raw any
			require.NoError(t, dec.Decode(&raw))

			got, err := FromNative(raw)
			require.NoError(t, err)
			assert.True(t, Equal(v, got), "want %s, got %s", String(v), String(got))
		})
	}
}

func TestToNative_TemporalUnitCounts(t *testing.T) {
	assert.Equal(t, map[string]any{"kind": "date", "value": "-2147483648"}, ToNative(Date(math.MinInt32)))
	assert.Equal(t, map[string]any{"kind": "duration", "value": "18446744073709551615"}, ToNative(Duration(math.MaxUint64)))
	assert.Equal(t, map[string]any{"kind": "timestamp", "value": "1700000000123"}, ToNative(Timestamp(1_700_000_000_123)))

	for _, v := range []Value{Date(math.MaxInt32), Date(math.MinInt32), Duration(math.MaxUint64), Timestamp(math.MaxUint64)} {
		got, err := Parse(v.Kind(), ToNative(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestParse_TemporalTextInput(t *testing.T) {
	v, err := Parse(KindDate, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, Date(19783), v)

	v, err = Parse(KindTimestamp, "1970-01-01T00:00:01.5Z")
	require.NoError(t, err)
	assert.Equal(t, Timestamp(1500), v)

	v, err = Parse(KindDuration, "2h")
	require.NoError(t, err)
	assert.Equal(t, Duration(7_200_000), v)

	_, err = Parse(KindDate, "not a date")
	assert.Error(t, err)
	_, err = Parse(KindDuration, "-5s")
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	assert.Equal(t, `"abc"`, String(Text("abc")))
	assert.Equal(t, "none", String(None{}))
	assert.Equal(t, "42", String(Int(42)))
	assert.Equal(t, `{"kind":"decimal","value":"1.5"}`, String(MustDecimal("1.5")))
}
