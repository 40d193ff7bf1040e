package value

import (
	"bytes"
	"cmp"
	"math"
	"math/big"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// PartialCmp orders two values of the same kind.
//
// ok is false for values of different kinds, for NaN, for Unsupported, and for
// lists containing an incomparable element pair. Cross-kind numeric ordering is
// CmpNumeric's job.
func PartialCmp(a, b Value) (int, bool) {
	if a == nil || b == nil || a.Kind() != b.Kind() {
		return 0, false
	}
	switch x := a.(type) {
	case None, Unit:
		return 0, true
	case Unsupported:
		return 0, false
	case Bool:
		y := b.(Bool)
		switch {
		case x == y:
			return 0, true
		case !bool(x):
			return -1, true
		}
		return 1, true
	case Int:
		return cmp.Compare(x, b.(Int)), true
	case Uint:
		return cmp.Compare(x, b.(Uint)), true
	case Int128:
		return bigOf(x.v).Cmp(bigOf(b.(Int128).v)), true
	case IntBig:
		return bigOf(x.v).Cmp(bigOf(b.(IntBig).v)), true
	case Uint128:
		return bigOf(x.v).Cmp(bigOf(b.(Uint128).v)), true
	case UintBig:
		return bigOf(x.v).Cmp(bigOf(b.(UintBig).v)), true
	case E18s:
		return bigOf(x.v).Cmp(bigOf(b.(E18s).v)), true
	case Float32:
		y := b.(Float32)
		if math.IsNaN(float64(x)) || math.IsNaN(float64(y)) {
			return 0, false
		}
		return cmp.Compare(x, y), true
	case Float64:
		y := b.(Float64)
		if math.IsNaN(float64(x)) || math.IsNaN(float64(y)) {
			return 0, false
		}
		return cmp.Compare(x, y), true
	case Decimal:
		da, db := x.Apd(), b.(Decimal).Apd()
		if isNaNDecimal(da) || isNaNDecimal(db) {
			return 0, false
		}
		return da.Cmp(db), true
	case E8s:
		return cmp.Compare(x, b.(E8s)), true
	case Date:
		return cmp.Compare(x, b.(Date)), true
	case Duration:
		return cmp.Compare(x, b.(Duration)), true
	case Timestamp:
		return cmp.Compare(x, b.(Timestamp)), true
	case Text:
		return strings.Compare(string(x), string(b.(Text))), true
	case Blob:
		return strings.Compare(x.b, b.(Blob).b), true
	case Principal:
		return strings.Compare(x.b, b.(Principal).b), true
	case Ulid:
		y := b.(Ulid)
		return bytes.Compare(x[:], y[:]), true
	case Subaccount:
		y := b.(Subaccount)
		return bytes.Compare(x[:], y[:]), true
	case Account:
		y := b.(Account)
		if c := strings.Compare(x.Owner.b, y.Owner.b); c != 0 {
			return c, true
		}
		return bytes.Compare(x.Subaccount[:], y.Subaccount[:]), true
	case Enum:
		return cmpEnum(x, b.(Enum))
	case List:
		return cmpList(x, b.(List))
	}
	return 0, false
}

var zeroBig = new(big.Int)

// bigOf treats the nil integer of a zero-value struct as zero.
func bigOf(n *big.Int) *big.Int {
	if n == nil {
		return zeroBig
	}
	return n
}

func isNaNDecimal(d *apd.Decimal) bool {
	return d.Form == apd.NaN || d.Form == apd.NaNSignaling
}

func cmpEnum(a, b Enum) (int, bool) {
	if c := strings.Compare(a.Path, b.Path); c != 0 {
		return c, true
	}
	if c := strings.Compare(a.Variant, b.Variant); c != 0 {
		return c, true
	}
	switch {
	case a.Payload == nil && b.Payload == nil:
		return 0, true
	case a.Payload == nil:
		return -1, true
	case b.Payload == nil:
		return 1, true
	}
	return PartialCmp(a.Payload, b.Payload)
}

func cmpList(a, b List) (int, bool) {
	for i := range min(len(a), len(b)) {
		c, ok := PartialCmp(a[i], b[i])
		if !ok {
			return 0, false
		}
		if c != 0 {
			return c, true
		}
	}
	return cmp.Compare(len(a), len(b)), true
}

// Equal reports same-kind structural equality.
// NaN is never equal to anything, itself included.
func Equal(a, b Value) bool {
	c, ok := PartialCmp(a, b)
	return ok && c == 0
}

// Compare is a total order used for sorting result rows.
//
// None sorts first. Two numeric values compare through CmpNumeric, same-kind
// values through PartialCmp, and everything else by kind rank, so a Date never
// compares equal to a Timestamp. Same-kind values that are incomparable, such as NaN, sort after their
// comparable peers.
func Compare(a, b Value) int {
	an, bn := IsNone(a), IsNone(b)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	if IsNumeric(a) && IsNumeric(b) {
		if c, ok := CmpNumeric(a, b); ok {
			return c
		}
	}
	if a.Kind() == b.Kind() {
		if c, ok := PartialCmp(a, b); ok {
			return c
		}
		return cmp.Compare(incomparableRank(a), incomparableRank(b))
	}
	if IsNumeric(a) && IsNumeric(b) {
		// Same numeric family but one side is NaN.
		return cmp.Compare(incomparableRank(a), incomparableRank(b))
	}
	return cmp.Compare(a.Kind(), b.Kind())
}

func incomparableRank(v Value) int {
	if isNaN(v) {
		return 1
	}
	return 0
}
