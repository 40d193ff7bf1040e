package value

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
)

const (
	dateLayout = "2006-01-02"
	msPerDay   = 24 * 60 * 60 * 1000
)

// typedKeys are the keys allowed next to "kind" in a typed document object.
var typedKeys = map[string]bool{
	"kind": true, "value": true, "path": true, "variant": true,
	"payload": true, "owner": true, "subaccount": true,
}

// FromNative converts a decoded YAML or JSON tree into a Value.
//
// Plain scalars map to Bool, Int, Uint, Float64 and Text. Objects of the form
// {kind: <name>, value: <raw>} are parsed as that kind. Any other object becomes
// a map-shaped List with Text keys in sorted order.
func FromNative(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return None{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(x), nil
	case int8:
		return Int(x), nil
	case int16:
		return Int(x), nil
	case int32:
		return Int(x), nil
	case int64:
		return Int(x), nil
	case uint:
		return Uint(x), nil
	case uint8:
		return Uint(x), nil
	case uint16:
		return Uint(x), nil
	case uint32:
		return Uint(x), nil
	case uint64:
		return Uint(x), nil
	case float32:
		return Float32(x), nil
	case float64:
		return Float64(x), nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return Int(n), nil
		}
		if n, err := strconv.ParseUint(string(x), 10, 64); err == nil {
			return Uint(n), nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", x, err)
		}
		return Float64(f), nil
	case string:
		return Text(x), nil
	case []byte:
		return NewBlob(x), nil
	case time.Time:
		return timestampOf(x)
	case []any:
		out := make(List, 0, len(x))
		for i, e := range x {
			v, err := FromNative(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, v)
		}
		return out, nil
	case map[string]any:
		if kind, ok := typedKind(x); ok {
			return Parse(kind, x)
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		out := make(List, 0, len(keys))
		for _, k := range keys {
			v, err := FromNative(x[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out = append(out, MapEntry(Text(k), v))
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported native type %T", raw)
}

func typedKind(m map[string]any) (Kind, bool) {
	name, ok := m["kind"].(string)
	if !ok {
		return 0, false
	}
	for k := range m {
		if !typedKeys[k] {
			return 0, false
		}
	}
	kind, err := ParseKind(name)
	if err != nil {
		return 0, false
	}
	return kind, true
}

// Parse converts raw into a Value of the given kind. raw may be the plain
// native form or a typed {kind, value} object naming the same kind.
func Parse(kind Kind, raw any) (Value, error) {
	if m, ok := raw.(map[string]any); ok {
		if k, typed := typedKind(m); typed {
			if k != kind {
				return nil, fmt.Errorf("expected %s, got typed %s", kind, k)
			}
			switch kind {
			case KindEnum, KindAccount, KindUnit, KindNone:
			default:
				raw = m["value"]
			}
		}
	}
	if raw == nil && kind != KindUnit {
		return None{}, nil
	}
	if v, ok := raw.(Value); ok {
		if v.Kind() != kind {
			return nil, fmt.Errorf("expected %s, got %s", kind, v.Kind())
		}
		return v, nil
	}

	switch kind {
	case KindNone:
		return None{}, nil
	case KindUnit:
		return Unit{}, nil
	case KindBool:
		switch x := raw.(type) {
		case bool:
			return Bool(x), nil
		case string:
			b, err := strconv.ParseBool(x)
			if err != nil {
				return nil, fmt.Errorf("invalid bool %q", x)
			}
			return Bool(b), nil
		}
	case KindInt:
		n, err := nativeBig(raw)
		if err != nil {
			return nil, err
		}
		if !n.IsInt64() {
			return nil, fmt.Errorf("int out of range: %v", n)
		}
		return Int(n.Int64()), nil
	case KindUint:
		n, err := nativeBig(raw)
		if err != nil {
			return nil, err
		}
		if !n.IsUint64() {
			return nil, fmt.Errorf("uint out of range: %v", n)
		}
		return Uint(n.Uint64()), nil
	case KindInt128:
		n, err := nativeBig(raw)
		if err != nil {
			return nil, err
		}
		return NewInt128(n)
	case KindIntBig:
		n, err := nativeBig(raw)
		if err != nil {
			return nil, err
		}
		return NewIntBig(n), nil
	case KindUint128:
		n, err := nativeBig(raw)
		if err != nil {
			return nil, err
		}
		return NewUint128(n)
	case KindUintBig:
		n, err := nativeBig(raw)
		if err != nil {
			return nil, err
		}
		return NewUintBig(n)
	case KindFloat32:
		f, err := nativeFloat(raw, 32)
		if err != nil {
			return nil, err
		}
		return Float32(f), nil
	case KindFloat64:
		f, err := nativeFloat(raw, 64)
		if err != nil {
			return nil, err
		}
		return Float64(f), nil
	case KindDecimal:
		d, err := nativeDecimal(raw)
		if err != nil {
			return nil, err
		}
		return Decimal{d: d}, nil
	case KindE8s:
		units, err := scaledUnits(raw, 8)
		if err != nil {
			return nil, err
		}
		if !units.IsUint64() {
			return nil, fmt.Errorf("e8s out of range: %v", units)
		}
		return E8s(units.Uint64()), nil
	case KindE18s:
		units, err := scaledUnits(raw, 18)
		if err != nil {
			return nil, err
		}
		return NewE18s(units)
	case KindDate:
		if s, ok := raw.(string); ok {
			if t, err := time.Parse(dateLayout, s); err == nil {
				return Date(t.Unix() / (msPerDay / 1000)), nil
			}
		}
		if t, ok := raw.(time.Time); ok {
			return Date(t.UTC().Unix() / (msPerDay / 1000)), nil
		}
		n, err := nativeBig(raw)
		if err != nil || !n.IsInt64() || n.Int64() < math.MinInt32 || n.Int64() > math.MaxInt32 {
			return nil, fmt.Errorf("invalid date %v", raw)
		}
		return Date(n.Int64()), nil
	case KindDuration:
		if s, ok := raw.(string); ok {
			if d, err := time.ParseDuration(s); err == nil {
				if d < 0 {
					return nil, fmt.Errorf("negative duration %q", s)
				}
				return Duration(d.Milliseconds()), nil
			}
		}
		n, err := nativeBig(raw)
		if err != nil || !n.IsUint64() {
			return nil, fmt.Errorf("invalid duration %v", raw)
		}
		return Duration(n.Uint64()), nil
	case KindTimestamp:
		switch x := raw.(type) {
		case time.Time:
			return timestampOf(x)
		case string:
			if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
				return timestampOf(t)
			}
		}
		n, err := nativeBig(raw)
		if err != nil || !n.IsUint64() {
			return nil, fmt.Errorf("invalid timestamp %v", raw)
		}
		return Timestamp(n.Uint64()), nil
	case KindText:
		if s, ok := raw.(string); ok {
			return Text(s), nil
		}
	case KindBlob:
		switch x := raw.(type) {
		case []byte:
			return NewBlob(x), nil
		case string:
			b, err := base64.StdEncoding.DecodeString(x)
			if err != nil {
				return nil, fmt.Errorf("invalid base64 blob: %w", err)
			}
			return NewBlob(b), nil
		}
	case KindUlid:
		if s, ok := raw.(string); ok {
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("invalid ulid %q: %w", s, err)
			}
			return Ulid(id), nil
		}
	case KindPrincipal:
		if s, ok := raw.(string); ok {
			return parsePrincipal(s)
		}
	case KindSubaccount:
		if s, ok := raw.(string); ok {
			return parseSubaccount(s)
		}
	case KindAccount:
		return parseAccount(raw)
	case KindEnum:
		return parseEnum(raw)
	case KindList:
		if l, ok := raw.([]any); ok {
			return FromNative(l)
		}
	case KindUnsupported:
		// Opaque payloads are kept as a marker only.
		return Unsupported{}, nil
	}
	return nil, fmt.Errorf("cannot parse %T as %s", raw, kind)
}

func timestampOf(t time.Time) (Value, error) {
	ms := t.UnixMilli()
	if ms < 0 {
		return nil, fmt.Errorf("timestamp before epoch: %s", t)
	}
	return Timestamp(ms), nil
}

func nativeBig(raw any) (*big.Int, error) {
	switch x := raw.(type) {
	case int:
		return big.NewInt(int64(x)), nil
	case int32:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case uint:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("not an integer: %v", x)
		}
		n, _ := big.NewFloat(x).Int(nil)
		return n, nil
	case json.Number:
		return parseBig(string(x))
	case string:
		return parseBig(x)
	}
	return nil, fmt.Errorf("not an integer: %T", raw)
}

func parseBig(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

func nativeFloat(raw any, bits int) (float64, error) {
	switch x := raw.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case json.Number:
		return strconv.ParseFloat(string(x), bits)
	case string:
		f, err := strconv.ParseFloat(x, bits)
		if err != nil {
			return 0, fmt.Errorf("invalid float %q", x)
		}
		return f, nil
	}
	return 0, fmt.Errorf("not a float: %T", raw)
}

func nativeDecimal(raw any) (*apd.Decimal, error) {
	switch x := raw.(type) {
	case string:
		d, _, err := apd.NewFromString(x)
		if err != nil {
			return nil, fmt.Errorf("invalid decimal %q: %w", x, err)
		}
		return d, nil
	case json.Number:
		return nativeDecimal(string(x))
	case float64:
		return nativeDecimal(strconv.FormatFloat(x, 'E', -1, 64))
	}
	n, err := nativeBig(raw)
	if err != nil {
		return nil, fmt.Errorf("not a decimal: %T", raw)
	}
	return apd.NewWithBigInt(new(apd.BigInt).SetMathBigInt(n), 0), nil
}

// scaledUnits converts a decimal amount to an integer count of 10^-scale
// units, rejecting amounts with more fractional digits than scale.
func scaledUnits(raw any, scale int32) (*big.Int, error) {
	d, err := nativeDecimal(raw)
	if err != nil {
		return nil, err
	}
	if d.Form != apd.Finite {
		return nil, fmt.Errorf("amount must be finite: %s", d)
	}
	if d.Negative && !d.IsZero() {
		return nil, fmt.Errorf("amount must be non-negative: %s", d)
	}
	coeff := d.Coeff.MathBigInt()
	shift := int64(d.Exponent) + int64(scale)
	ten := big.NewInt(10)
	if shift >= 0 {
		return coeff.Mul(coeff, new(big.Int).Exp(ten, big.NewInt(shift), nil)), nil
	}
	div := new(big.Int).Exp(ten, big.NewInt(-shift), nil)
	q, r := new(big.Int).QuoRem(coeff, div, new(big.Int))
	if r.Sign() != 0 {
		return nil, fmt.Errorf("amount %s has more than %d fractional digits", d, scale)
	}
	return q, nil
}

func parsePrincipal(s string) (Principal, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid principal %q: %w", s, err)
	}
	return NewPrincipal(b)
}

func parseSubaccount(s string) (Subaccount, error) {
	var sub Subaccount
	b, err := hex.DecodeString(s)
	if err != nil {
		return sub, fmt.Errorf("invalid subaccount %q: %w", s, err)
	}
	if len(b) != len(sub) {
		return sub, fmt.Errorf("subaccount must be %d bytes, got %d", len(sub), len(b))
	}
	copy(sub[:], b)
	return sub, nil
}

func parseAccount(raw any) (Value, error) {
	switch x := raw.(type) {
	case string:
		owner, err := parsePrincipal(x)
		if err != nil {
			return nil, err
		}
		return Account{Owner: owner}, nil
	case map[string]any:
		ownerHex, _ := x["owner"].(string)
		owner, err := parsePrincipal(ownerHex)
		if err != nil {
			return nil, err
		}
		acct := Account{Owner: owner}
		if s, ok := x["subaccount"].(string); ok {
			sub, err := parseSubaccount(s)
			if err != nil {
				return nil, err
			}
			acct.Subaccount = sub
		}
		return acct, nil
	}
	return nil, fmt.Errorf("cannot parse %T as account", raw)
}

func parseEnum(raw any) (Value, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot parse %T as enum", raw)
	}
	path, _ := m["path"].(string)
	variant, ok := m["variant"].(string)
	if !ok || variant == "" {
		return nil, fmt.Errorf("enum requires a variant")
	}
	e := Enum{Path: path, Variant: variant}
	if p, ok := m["payload"]; ok && p != nil {
		v, err := FromNative(p)
		if err != nil {
			return nil, fmt.Errorf("enum payload: %w", err)
		}
		e.Payload = v
	}
	return e, nil
}

// ToNative converts v into a tree that encodes cleanly as JSON or YAML.
//
// Bool, Int, Float64, Text, List and None become plain scalars, slices and nil.
// Every other kind becomes a typed {kind, value} object so that FromNative
// restores it exactly.
func ToNative(v Value) any {
	typed := func(k Kind, raw any) map[string]any {
		return map[string]any{"kind": k.String(), "value": raw}
	}
	switch x := v.(type) {
	case nil, None:
		return nil
	case Unit:
		return map[string]any{"kind": KindUnit.String()}
	case Unsupported:
		return map[string]any{"kind": KindUnsupported.String()}
	case Bool:
		return bool(x)
	case Int:
		return int64(x)
	case Float64:
		return float64(x)
	case Text:
		return string(x)
	case Uint:
		return typed(KindUint, strconv.FormatUint(uint64(x), 10))
	case Int128:
		return typed(KindInt128, x.Big().String())
	case IntBig:
		return typed(KindIntBig, x.Big().String())
	case Uint128:
		return typed(KindUint128, x.Big().String())
	case UintBig:
		return typed(KindUintBig, x.Big().String())
	case Float32:
		return typed(KindFloat32, strconv.FormatFloat(float64(x), 'g', -1, 32))
	case Decimal:
		return typed(KindDecimal, x.String())
	case E8s:
		return typed(KindE8s, formatUnits(new(big.Int).SetUint64(uint64(x)), -8))
	case E18s:
		return typed(KindE18s, formatUnits(x.Units(), -18))
	case Date:
		return typed(KindDate, strconv.FormatInt(int64(x), 10))
	case Duration:
		return typed(KindDuration, strconv.FormatUint(uint64(x), 10))
	case Timestamp:
		return typed(KindTimestamp, strconv.FormatUint(uint64(x), 10))
	case Blob:
		return typed(KindBlob, base64.StdEncoding.EncodeToString(x.Bytes()))
	case Ulid:
		return typed(KindUlid, x.String())
	case Principal:
		return typed(KindPrincipal, hex.EncodeToString(x.Bytes()))
	case Subaccount:
		return typed(KindSubaccount, hex.EncodeToString(x[:]))
	case Account:
		out := map[string]any{
			"kind":  KindAccount.String(),
			"owner": hex.EncodeToString(x.Owner.Bytes()),
		}
		if x.Subaccount != (Subaccount{}) {
			out["subaccount"] = hex.EncodeToString(x.Subaccount[:])
		}
		return out
	case Enum:
		out := map[string]any{
			"kind":    KindEnum.String(),
			"path":    x.Path,
			"variant": x.Variant,
		}
		if x.Payload != nil {
			out["payload"] = ToNative(x.Payload)
		}
		return out
	case List:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = ToNative(e)
		}
		return out
	}
	return nil
}

func formatUnits(units *big.Int, exp int32) string {
	d := apd.NewWithBigInt(new(apd.BigInt).SetMathBigInt(units), exp)
	d.Reduce(d)
	return d.Text('f')
}

// String renders v for diagnostics.
func String(v Value) string {
	switch x := v.(type) {
	case nil, None:
		return "none"
	case Text:
		return strconv.Quote(string(x))
	case Int, Uint, Bool, Float64:
		return fmt.Sprint(x)
	}
	b, err := json.Marshal(ToNative(v))
	if err != nil {
		return v.Kind().String()
	}
	return string(b)
}
