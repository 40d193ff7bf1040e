package value

import (
	"fmt"
	"math/big"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
)

// Kind identifies the variant of a Value.
// The declaration order doubles as the cross-kind rank used for sorting.
type Kind uint8

const (
	KindNone Kind = iota
	KindUnit
	KindBool
	KindInt
	KindInt128
	KindIntBig
	KindUint
	KindUint128
	KindUintBig
	KindFloat32
	KindFloat64
	KindDecimal
	KindE8s
	KindE18s
	KindDate
	KindDuration
	KindTimestamp
	KindText
	KindBlob
	KindUlid
	KindPrincipal
	KindSubaccount
	KindAccount
	KindEnum
	KindList
	KindUnsupported
)

var kindNames = [...]string{
	KindNone:        "none",
	KindUnit:        "unit",
	KindBool:        "bool",
	KindInt:         "int",
	KindInt128:      "int128",
	KindIntBig:      "int_big",
	KindUint:        "uint",
	KindUint128:     "uint128",
	KindUintBig:     "uint_big",
	KindFloat32:     "float32",
	KindFloat64:     "float64",
	KindDecimal:     "decimal",
	KindE8s:         "e8s",
	KindE18s:        "e18s",
	KindDate:        "date",
	KindDuration:    "duration",
	KindTimestamp:   "timestamp",
	KindText:        "text",
	KindBlob:        "blob",
	KindUlid:        "ulid",
	KindPrincipal:   "principal",
	KindSubaccount:  "subaccount",
	KindAccount:     "account",
	KindEnum:        "enum",
	KindList:        "list",
	KindUnsupported: "unsupported",
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind resolves a kind name as produced by Kind.String.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return KindUnsupported, fmt.Errorf("unknown value kind %q", name)
}

// Value is a sealed interface over the closed set of value kinds.
type Value interface {
	Kind() Kind
	value() // Sealed - only this package implements it
}

// None is a stored null.
type None struct{}

// Unit is a comparator placeholder. It is never stored.
type Unit struct{}

// Unsupported marks a declared field whose type cannot be filtered.
type Unsupported struct{}

type Bool bool

type Int int64

type Uint uint64

type Float32 float32

type Float64 float64

// E8s is a fixed-point amount in units of 1e-8.
type E8s uint64

// Date is a calendar date counted in days since 1970-01-01.
type Date int32

// Duration is a length of time in milliseconds.
type Duration uint64

// Timestamp is a point in time in milliseconds since the Unix epoch.
type Timestamp uint64

type Text string

// Ulid is an opaque 128-bit identifier.
type Ulid uuid.UUID

// Subaccount is a 32-byte account discriminator.
type Subaccount [32]byte

// Int128 is a signed integer bounded to 128 bits.
type Int128 struct{ v *big.Int }

// IntBig is an arbitrary-precision signed integer.
type IntBig struct{ v *big.Int }

// Uint128 is an unsigned integer bounded to 128 bits.
type Uint128 struct{ v *big.Int }

// UintBig is an arbitrary-precision unsigned integer.
type UintBig struct{ v *big.Int }

// E18s is a fixed-point amount in units of 1e-18, bounded to 128 bits.
type E18s struct{ v *big.Int }

// Decimal is an arbitrary-precision decimal number.
type Decimal struct{ d *apd.Decimal }

// Blob is an immutable byte string.
type Blob struct{ b string }

// Principal is an opaque identity of at most MaxPrincipalLen bytes.
type Principal struct{ b string }

// Account is a principal plus a subaccount. The zero subaccount is the default.
type Account struct {
	Owner      Principal
	Subaccount Subaccount
}

// Enum is a tagged enum value. Payload is nil for unit variants.
type Enum struct {
	Path    string
	Variant string
	Payload Value
}

// List is an ordered list of values.
// A List whose elements are all two-element Lists is treated as a map.
type List []Value

// MaxPrincipalLen is the longest principal accepted.
const MaxPrincipalLen = 29

func (None) Kind() Kind        { return KindNone }
func (Unit) Kind() Kind        { return KindUnit }
func (Unsupported) Kind() Kind { return KindUnsupported }
func (Bool) Kind() Kind        { return KindBool }
func (Int) Kind() Kind         { return KindInt }
func (Int128) Kind() Kind      { return KindInt128 }
func (IntBig) Kind() Kind      { return KindIntBig }
func (Uint) Kind() Kind        { return KindUint }
func (Uint128) Kind() Kind     { return KindUint128 }
func (UintBig) Kind() Kind     { return KindUintBig }
func (Float32) Kind() Kind     { return KindFloat32 }
func (Float64) Kind() Kind     { return KindFloat64 }
func (Decimal) Kind() Kind     { return KindDecimal }
func (E8s) Kind() Kind         { return KindE8s }
func (E18s) Kind() Kind        { return KindE18s }
func (Date) Kind() Kind        { return KindDate }
func (Duration) Kind() Kind    { return KindDuration }
func (Timestamp) Kind() Kind   { return KindTimestamp }
func (Text) Kind() Kind        { return KindText }
func (Blob) Kind() Kind        { return KindBlob }
func (Ulid) Kind() Kind        { return KindUlid }
func (Principal) Kind() Kind   { return KindPrincipal }
func (Subaccount) Kind() Kind  { return KindSubaccount }
func (Account) Kind() Kind     { return KindAccount }
func (Enum) Kind() Kind        { return KindEnum }
func (List) Kind() Kind        { return KindList }

func (None) value()        {}
func (Unit) value()        {}
func (Unsupported) value() {}
func (Bool) value()        {}
func (Int) value()         {}
func (Int128) value()      {}
func (IntBig) value()      {}
func (Uint) value()        {}
func (Uint128) value()     {}
func (UintBig) value()     {}
func (Float32) value()     {}
func (Float64) value()     {}
func (Decimal) value()     {}
func (E8s) value()         {}
func (E18s) value()        {}
func (Date) value()        {}
func (Duration) value()    {}
func (Timestamp) value()   {}
func (Text) value()        {}
func (Blob) value()        {}
func (Ulid) value()        {}
func (Principal) value()   {}
func (Subaccount) value()  {}
func (Account) value()     {}
func (Enum) value()        {}
func (List) value()        {}

var (
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// NewInt128 returns an Int128, rejecting values outside the signed 128-bit range.
func NewInt128(n *big.Int) (Int128, error) {
	if n == nil || n.Cmp(minInt128) < 0 || n.Cmp(maxInt128) > 0 {
		return Int128{}, fmt.Errorf("int128 out of range: %v", n)
	}
	return Int128{v: new(big.Int).Set(n)}, nil
}

// Int128FromInt64 widens an int64.
func Int128FromInt64(n int64) Int128 {
	return Int128{v: big.NewInt(n)}
}

// NewIntBig returns an arbitrary-precision signed integer.
func NewIntBig(n *big.Int) IntBig {
	if n == nil {
		return IntBig{v: new(big.Int)}
	}
	return IntBig{v: new(big.Int).Set(n)}
}

// NewUint128 returns a Uint128, rejecting negatives and values above 2^128-1.
func NewUint128(n *big.Int) (Uint128, error) {
	if n == nil || n.Sign() < 0 || n.Cmp(maxUint128) > 0 {
		return Uint128{}, fmt.Errorf("uint128 out of range: %v", n)
	}
	return Uint128{v: new(big.Int).Set(n)}, nil
}

// Uint128FromUint64 widens a uint64.
func Uint128FromUint64(n uint64) Uint128 {
	return Uint128{v: new(big.Int).SetUint64(n)}
}

// NewUintBig returns an arbitrary-precision unsigned integer.
func NewUintBig(n *big.Int) (UintBig, error) {
	if n == nil || n.Sign() < 0 {
		return UintBig{}, fmt.Errorf("uint_big must be non-negative: %v", n)
	}
	return UintBig{v: new(big.Int).Set(n)}, nil
}

// NewE18s returns an amount of 1e-18 units bounded to 128 bits.
func NewE18s(units *big.Int) (E18s, error) {
	if units == nil || units.Sign() < 0 || units.Cmp(maxUint128) > 0 {
		return E18s{}, fmt.Errorf("e18s out of range: %v", units)
	}
	return E18s{v: new(big.Int).Set(units)}, nil
}

// Big returns a copy of the integer.
func (x Int128) Big() *big.Int { return copyBig(x.v) }

// Big returns a copy of the integer.
func (x IntBig) Big() *big.Int { return copyBig(x.v) }

// Big returns a copy of the integer.
func (x Uint128) Big() *big.Int { return copyBig(x.v) }

// Big returns a copy of the integer.
func (x UintBig) Big() *big.Int { return copyBig(x.v) }

// Units returns a copy of the raw 1e-18 unit count.
func (x E18s) Units() *big.Int { return copyBig(x.v) }

func copyBig(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(n)
}

// NewDecimal copies d into a Decimal value.
func NewDecimal(d *apd.Decimal) Decimal {
	out := new(apd.Decimal)
	if d != nil {
		out.Set(d)
	}
	return Decimal{d: out}
}

// ParseDecimal parses a decimal literal such as "10.25".
func ParseDecimal(s string) (Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return Decimal{d: d}, nil
}

// MustDecimal is ParseDecimal for literals known to be valid.
func MustDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Apd returns a copy of the underlying decimal.
func (x Decimal) Apd() *apd.Decimal {
	out := new(apd.Decimal)
	if x.d != nil {
		out.Set(x.d)
	}
	return out
}

// String formats the decimal in plain notation.
func (x Decimal) String() string {
	if x.d == nil {
		return "0"
	}
	return x.d.Text('f')
}

// NewBlob copies b into a Blob.
func NewBlob(b []byte) Blob { return Blob{b: string(b)} }

// Bytes returns a copy of the blob contents.
func (x Blob) Bytes() []byte { return []byte(x.b) }

// Len returns the blob length in bytes.
func (x Blob) Len() int { return len(x.b) }

// NewPrincipal copies b into a Principal, rejecting over-long input.
func NewPrincipal(b []byte) (Principal, error) {
	if len(b) > MaxPrincipalLen {
		return Principal{}, fmt.Errorf("principal too long: %d bytes (max %d)", len(b), MaxPrincipalLen)
	}
	return Principal{b: string(b)}, nil
}

// Bytes returns a copy of the principal bytes.
func (x Principal) Bytes() []byte { return []byte(x.b) }

// NewUlid wraps a uuid as an opaque identifier.
func NewUlid(id uuid.UUID) Ulid { return Ulid(id) }

// UUID returns the identifier as a uuid.
func (x Ulid) UUID() uuid.UUID { return uuid.UUID(x) }

// String returns the canonical textual form of the identifier.
func (x Ulid) String() string { return uuid.UUID(x).String() }

// Len reports the number of elements.
func (l List) Len() int { return len(l) }

// MapEntry builds a two-element list usable as a map entry.
func MapEntry(k, v Value) List { return List{k, v} }

// Map builds a map-shaped List from entries.
func Map(entries ...List) List {
	out := make(List, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	return out
}
