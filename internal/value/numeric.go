package value

import (
	"cmp"
	"math"
	"math/big"
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// floatExactLimit is 2^53, the largest magnitude below which every integer has
// an exact float64 representation.
const floatExactLimit = 1 << 53

var (
	bigFloatLimit    = big.NewInt(floatExactLimit)
	bigNegFloatLimit = big.NewInt(-floatExactLimit)
)

// IsNumeric reports whether v belongs to a numeric kind.
// Temporal kinds are not numeric for validation purposes.
func IsNumeric(v Value) bool {
	switch v.(type) {
	case Int, Int128, IntBig, Uint, Uint128, UintBig, Float32, Float64, Decimal, E8s, E18s:
		return true
	}
	return false
}

// IsText reports whether v is Text.
func IsText(v Value) bool {
	_, ok := v.(Text)
	return ok
}

// IsUnit reports whether v is the Unit placeholder.
func IsUnit(v Value) bool {
	_, ok := v.(Unit)
	return ok
}

// IsNone reports whether v is nil or None.
func IsNone(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(None)
	return ok
}

// IsEmpty reports whether v is empty. ok is false for kinds with no notion of
// emptiness.
func IsEmpty(v Value) (empty, ok bool) {
	switch x := v.(type) {
	case Text:
		return len(x) == 0, true
	case Blob:
		return len(x.b) == 0, true
	case List:
		return len(x) == 0, true
	}
	return false, false
}

// CmpNumeric orders two values of possibly different numeric kinds.
//
// Both operands are first reduced to an exact decimal. If either has no exact
// decimal form, infinities order by sign, and otherwise both are reduced to
// float64, which only succeeds inside the 53-bit exact-integer envelope. ok is
// false when no tier applies.
func CmpNumeric(a, b Value) (int, bool) {
	if da, ok := toDecimal(a); ok {
		if db, ok := toDecimal(b); ok {
			return da.Cmp(db), true
		}
	}
	if ia, ib := infinity(a), infinity(b); ia != 0 || ib != 0 {
		// An infinity orders against every other non-NaN number, however large.
		if !ordersWithInfinity(a) || !ordersWithInfinity(b) {
			return 0, false
		}
		return cmp.Compare(ia, ib), true
	}
	fa, ok := toFloat(a)
	if !ok {
		return 0, false
	}
	fb, ok := toFloat(b)
	if !ok {
		return 0, false
	}
	switch {
	case fa < fb:
		return -1, true
	case fa > fb:
		return 1, true
	}
	return 0, true
}

// infinity returns the sign of an infinite float or decimal, or 0.
func infinity(v Value) int {
	switch x := v.(type) {
	case Float32:
		f := float64(x)
		if math.IsInf(f, 1) {
			return 1
		}
		if math.IsInf(f, -1) {
			return -1
		}
	case Float64:
		f := float64(x)
		if math.IsInf(f, 1) {
			return 1
		}
		if math.IsInf(f, -1) {
			return -1
		}
	case Decimal:
		if x.d != nil && x.d.Form == apd.Infinite {
			if x.d.Negative {
				return -1
			}
			return 1
		}
	}
	return 0
}

// ordersWithInfinity reports whether v is a non-NaN number or a temporal value.
func ordersWithInfinity(v Value) bool {
	switch v.(type) {
	case Date, Duration, Timestamp:
		return true
	}
	return IsNumeric(v) && !isNaN(v)
}

func isNaN(v Value) bool {
	switch x := v.(type) {
	case Float32:
		return math.IsNaN(float64(x))
	case Float64:
		return math.IsNaN(float64(x))
	case Decimal:
		return x.d != nil && isNaNDecimal(x.d)
	}
	return false
}

// toDecimal is the exact reduction tier.
func toDecimal(v Value) (*apd.Decimal, bool) {
	switch x := v.(type) {
	case Int:
		return apd.New(int64(x), 0), true
	case Uint:
		return apd.NewWithBigInt(new(apd.BigInt).SetUint64(uint64(x)), 0), true
	case Int128:
		return bigDecimal(x.v, 0), true
	case IntBig:
		return bigDecimal(x.v, 0), true
	case Uint128:
		return bigDecimal(x.v, 0), true
	case UintBig:
		return bigDecimal(x.v, 0), true
	case E8s:
		return apd.NewWithBigInt(new(apd.BigInt).SetUint64(uint64(x)), -8), true
	case E18s:
		return bigDecimal(x.v, -18), true
	case Float64:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		d, err := new(apd.Decimal).SetFloat64(f)
		if err != nil {
			return nil, false
		}
		return d, true
	case Float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		// Shortest decimal that round-trips through float32, not float64.
		d, _, err := apd.NewFromString(strconv.FormatFloat(f, 'E', -1, 32))
		if err != nil {
			return nil, false
		}
		return d, true
	case Decimal:
		if x.d == nil {
			return apd.New(0, 0), true
		}
		if x.d.Form != apd.Finite {
			return nil, false
		}
		return x.Apd(), true
	}
	return nil, false
}

func bigDecimal(n *big.Int, exp int32) *apd.Decimal {
	return apd.NewWithBigInt(new(apd.BigInt).SetMathBigInt(copyBig(n)), exp)
}

// toFloat is the fallback tier. Integers outside +/-2^53 are rejected rather
// than rounded.
func toFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case Int:
		if x > floatExactLimit || x < -floatExactLimit {
			return 0, false
		}
		return float64(x), true
	case Uint:
		if x > floatExactLimit {
			return 0, false
		}
		return float64(x), true
	case Int128:
		return bigFloat(x.v)
	case IntBig:
		return bigFloat(x.v)
	case Uint128:
		return bigFloat(x.v)
	case UintBig:
		return bigFloat(x.v)
	case Float32:
		if math.IsNaN(float64(x)) {
			return 0, false
		}
		return float64(x), true
	case Float64:
		if math.IsNaN(float64(x)) {
			return 0, false
		}
		return float64(x), true
	case Decimal:
		if x.d != nil && x.d.Form == apd.Infinite {
			if x.d.Negative {
				return math.Inf(-1), true
			}
			return math.Inf(1), true
		}
		return 0, false
	case Date:
		return float64(x), true
	case Duration:
		if x > floatExactLimit {
			return 0, false
		}
		return float64(x), true
	case Timestamp:
		if x > floatExactLimit {
			return 0, false
		}
		return float64(x), true
	}
	return 0, false
}

func bigFloat(n *big.Int) (float64, bool) {
	if n == nil {
		return 0, true
	}
	if n.Cmp(bigFloatLimit) > 0 || n.Cmp(bigNegFloatLimit) < 0 {
		return 0, false
	}
	return float64(n.Int64()), true
}
