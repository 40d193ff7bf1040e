package keys

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	tagAbsent    byte = 0x01
	tagInt       byte = 0x10
	tagUint      byte = 0x20
	tagPrincipal byte = 0x30
	tagUlid      byte = 0x40
	tagMax       byte = 0xFF

	escByte  byte = 0x00
	escFill  byte = 0xFF
	pathTerm byte = 0x01
	bytesEnd byte = 0x00
)

// ErrMalformedKey is returned when bytes do not decode as a key.
var ErrMalformedKey = errors.New("malformed key")

// DataKey identifies one stored row: the entity path plus its primary key
// components. A nil component is the absent marker.
type DataKey struct {
	Path       string
	Components []IndexValue
}

// IndexKey identifies one secondary-index entry: the index path, the indexed
// field values, then the row's primary key components.
type IndexKey struct {
	Path       string
	Components []IndexValue
}

// NewDataKey builds a data key.
func NewDataKey(path string, components ...IndexValue) DataKey {
	return DataKey{Path: path, Components: components}
}

// Encode returns the order-preserving byte form of the key.
func (k DataKey) Encode() []byte {
	return encode(k.Path, k.Components)
}

// Compare orders two keys semantically: path first, then components.
func (k DataKey) Compare(o DataKey) int {
	return compareKeys(k.Path, k.Components, o.Path, o.Components)
}

func (k DataKey) String() string {
	return format(k.Path, k.Components)
}

// Encode returns the order-preserving byte form of the key.
func (k IndexKey) Encode() []byte {
	return encode(k.Path, k.Components)
}

func (k IndexKey) String() string {
	return format(k.Path, k.Components)
}

// DecodeDataKey inverts DataKey.Encode.
func DecodeDataKey(b []byte) (DataKey, error) {
	path, comps, err := decode(b)
	if err != nil {
		return DataKey{}, err
	}
	return DataKey{Path: path, Components: comps}, nil
}

// DecodeIndexKey inverts IndexKey.Encode.
func DecodeIndexKey(b []byte) (IndexKey, error) {
	path, comps, err := decode(b)
	if err != nil {
		return IndexKey{}, err
	}
	return IndexKey{Path: path, Components: comps}, nil
}

// LowerBound is the smallest encoded key for path. It sorts before every key
// of path that has components.
func LowerBound(path string) []byte {
	return appendPath(nil, path)
}

// UpperBound is larger than every encoded key of path and smaller than every
// key of any other path that sorts after it.
func UpperBound(path string) []byte {
	return append(appendPath(nil, path), tagMax)
}

// PrefixUpperBound returns the key that closes a range over all keys starting
// with prefix whose next component is of variant next.
func PrefixUpperBound(path string, prefix []IndexValue, next Kind) DataKey {
	comps := make([]IndexValue, 0, len(prefix)+1)
	comps = append(comps, prefix...)
	comps = append(comps, SentinelMax(next))
	return DataKey{Path: path, Components: comps}
}

// PrefixRange returns encoded bounds covering every key of path that starts
// with prefix, whatever follows it.
func PrefixRange(path string, prefix []IndexValue) (lo, hi []byte) {
	lo = encode(path, prefix)
	hi = append(encode(path, prefix), tagMax)
	return lo, hi
}

func encode(path string, comps []IndexValue) []byte {
	buf := make([]byte, 0, len(path)+2+len(comps)*9)
	buf = appendPath(buf, path)
	for _, c := range comps {
		buf = appendComponent(buf, c)
	}
	return buf
}

func appendPath(buf []byte, path string) []byte {
	buf = appendEscaped(buf, path)
	return append(buf, escByte, pathTerm)
}

func appendEscaped(buf []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		if s[i] == escByte {
			buf = append(buf, escByte, escFill)
			continue
		}
		buf = append(buf, s[i])
	}
	return buf
}

func appendComponent(buf []byte, c IndexValue) []byte {
	switch x := c.(type) {
	case nil:
		return append(buf, tagAbsent)
	case IntKey:
		buf = append(buf, tagInt)
		return binary.BigEndian.AppendUint64(buf, uint64(x)^(1<<63))
	case UintKey:
		buf = append(buf, tagUint)
		return binary.BigEndian.AppendUint64(buf, uint64(x))
	case PrincipalKey:
		buf = append(buf, tagPrincipal)
		buf = appendEscaped(buf, x.b)
		return append(buf, escByte, bytesEnd)
	case UlidKey:
		buf = append(buf, tagUlid)
		return append(buf, x[:]...)
	}
	panic(fmt.Sprintf("keys: unknown component %T", c))
}

func decode(b []byte) (string, []IndexValue, error) {
	path, rest, err := readEscaped(b, pathTerm)
	if err != nil {
		return "", nil, fmt.Errorf("path: %w", err)
	}
	var comps []IndexValue
	for len(rest) > 0 {
		tag := rest[0]
		rest = rest[1:]
		switch tag {
		case tagAbsent:
			comps = append(comps, nil)
		case tagInt:
			if len(rest) < 8 {
				return "", nil, fmt.Errorf("%w: short int component", ErrMalformedKey)
			}
			comps = append(comps, IntKey(int64(binary.BigEndian.Uint64(rest)^(1<<63))))
			rest = rest[8:]
		case tagUint:
			if len(rest) < 8 {
				return "", nil, fmt.Errorf("%w: short uint component", ErrMalformedKey)
			}
			comps = append(comps, UintKey(binary.BigEndian.Uint64(rest)))
			rest = rest[8:]
		case tagPrincipal:
			var s string
			s, rest, err = readEscaped(rest, bytesEnd)
			if err != nil {
				return "", nil, fmt.Errorf("principal component: %w", err)
			}
			p, err := NewPrincipalKey([]byte(s))
			if err != nil {
				return "", nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
			}
			comps = append(comps, p)
		case tagUlid:
			if len(rest) < 16 {
				return "", nil, fmt.Errorf("%w: short ulid component", ErrMalformedKey)
			}
			var id uuid.UUID
			copy(id[:], rest[:16])
			comps = append(comps, UlidKey(id))
			rest = rest[16:]
		default:
			return "", nil, fmt.Errorf("%w: unknown tag 0x%02x", ErrMalformedKey, tag)
		}
	}
	return path, comps, nil
}

// readEscaped reads escaped bytes up to the 0x00 term pair and returns the
// remainder after it.
func readEscaped(b []byte, term byte) (string, []byte, error) {
	var sb strings.Builder
	for i := 0; i < len(b); i++ {
		if b[i] != escByte {
			sb.WriteByte(b[i])
			continue
		}
		if i+1 >= len(b) {
			return "", nil, fmt.Errorf("%w: truncated escape", ErrMalformedKey)
		}
		switch b[i+1] {
		case escFill:
			sb.WriteByte(escByte)
			i++
		case term:
			return sb.String(), b[i+2:], nil
		default:
			return "", nil, fmt.Errorf("%w: bad escape 0x%02x", ErrMalformedKey, b[i+1])
		}
	}
	return "", nil, fmt.Errorf("%w: missing terminator", ErrMalformedKey)
}

func compareKeys(ap string, ac []IndexValue, bp string, bc []IndexValue) int {
	if c := strings.Compare(ap, bp); c != 0 {
		return c
	}
	for i := range min(len(ac), len(bc)) {
		if c := CompareValues(ac[i], bc[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(ac) < len(bc):
		return -1
	case len(ac) > len(bc):
		return 1
	}
	return 0
}

func format(path string, comps []IndexValue) string {
	var sb strings.Builder
	sb.WriteString(path)
	sb.WriteByte('(')
	for i, c := range comps {
		if i > 0 {
			sb.WriteString(", ")
		}
		switch x := c.(type) {
		case nil:
			sb.WriteString("_")
		case IntKey:
			fmt.Fprintf(&sb, "%d", int64(x))
		case UintKey:
			fmt.Fprintf(&sb, "%du", uint64(x))
		case PrincipalKey:
			fmt.Fprintf(&sb, "p:%x", x.b)
		case UlidKey:
			sb.WriteString(uuid.UUID(x).String())
		}
	}
	sb.WriteByte(')')
	return sb.String()
}
