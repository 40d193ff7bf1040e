package keys

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/kvquery/internal/value"
)

// Kind is the variant of an IndexValue. Declaration order is the cross-variant rank.
type Kind uint8

const (
	KindInt Kind = iota
	KindUint
	KindPrincipal
	KindUlid
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindPrincipal:
		return "principal"
	case KindUlid:
		return "ulid"
	}
	return fmt.Sprintf("keykind(%d)", uint8(k))
}

// IndexValue is a sealed union of the values that may appear in a key.
type IndexValue interface {
	Kind() Kind
	indexValue() // Sealed - only key variants implement it
}

type IntKey int64

type UintKey uint64

// PrincipalKey holds at most value.MaxPrincipalLen bytes.
type PrincipalKey struct{ b string }

type UlidKey uuid.UUID

func (IntKey) Kind() Kind       { return KindInt }
func (UintKey) Kind() Kind      { return KindUint }
func (PrincipalKey) Kind() Kind { return KindPrincipal }
func (UlidKey) Kind() Kind      { return KindUlid }

func (IntKey) indexValue()       {}
func (UintKey) indexValue()      {}
func (PrincipalKey) indexValue() {}
func (UlidKey) indexValue()      {}

// NewPrincipalKey copies b into a key component.
func NewPrincipalKey(b []byte) (PrincipalKey, error) {
	if len(b) > value.MaxPrincipalLen {
		return PrincipalKey{}, fmt.Errorf("principal key too long: %d bytes", len(b))
	}
	return PrincipalKey{b: string(b)}, nil
}

// Bytes returns a copy of the principal bytes.
func (p PrincipalKey) Bytes() []byte { return []byte(p.b) }

// SentinelMax returns the largest value of the given variant.
func SentinelMax(k Kind) IndexValue {
	switch k {
	case KindInt:
		return IntKey(math.MaxInt64)
	case KindUint:
		return UintKey(math.MaxUint64)
	case KindPrincipal:
		return PrincipalKey{b: strings.Repeat("\xff", value.MaxPrincipalLen)}
	case KindUlid:
		var id UlidKey
		for i := range id {
			id[i] = 0xff
		}
		return id
	}
	panic(fmt.Sprintf("keys: unknown kind %d", k))
}

// CompareValues orders two index values. Different variants order by rank.
// A nil value is the absent marker and sorts first.
func CompareValues(a, b IndexValue) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if a.Kind() != b.Kind() {
		return cmp.Compare(a.Kind(), b.Kind())
	}
	switch x := a.(type) {
	case IntKey:
		return cmp.Compare(x, b.(IntKey))
	case UintKey:
		return cmp.Compare(x, b.(UintKey))
	case PrincipalKey:
		return strings.Compare(x.b, b.(PrincipalKey).b)
	case UlidKey:
		y := b.(UlidKey)
		return bytes.Compare(x[:], y[:])
	}
	return 0
}

// FromValue narrows a Value to a key component. None narrows to the absent
// marker (nil, true).
func FromValue(v value.Value) (IndexValue, bool) {
	switch x := v.(type) {
	case nil, value.None:
		return nil, true
	case value.Int:
		return IntKey(x), true
	case value.Uint:
		return UintKey(x), true
	case value.Principal:
		return PrincipalKey{b: string(x.Bytes())}, true
	case value.Ulid:
		return UlidKey(x), true
	}
	return nil, false
}

// ToValue widens a key component back into a Value.
func ToValue(iv IndexValue) value.Value {
	switch x := iv.(type) {
	case IntKey:
		return value.Int(x)
	case UintKey:
		return value.Uint(x)
	case PrincipalKey:
		p, _ := value.NewPrincipal([]byte(x.b))
		return p
	case UlidKey:
		return value.Ulid(x)
	}
	return value.None{}
}

// KindOf maps a value kind to the key variant that stores it.
func KindOf(k value.Kind) (Kind, bool) {
	switch k {
	case value.KindInt:
		return KindInt, true
	case value.KindUint:
		return KindUint, true
	case value.KindPrincipal:
		return KindPrincipal, true
	case value.KindUlid:
		return KindUlid, true
	}
	return 0, false
}
