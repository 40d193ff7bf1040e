package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/roach88/kvquery/internal/value"
)

// Record is one decoded row keyed by field name. Absent fields are missing
// from the map; a stored null is value.None.
type Record map[string]value.Value

// Field implements the filter row accessor.
func (r Record) Field(name string) (value.Value, bool) {
	v, ok := r[name]
	return v, ok
}

// Names returns the field names in sorted order.
func (r Record) Names() []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// ToNative converts the record to a JSON-friendly map.
func (r Record) ToNative() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = value.ToNative(v)
	}
	return out
}

// EncodeRecord serializes a record for storage. encoding/json sorts map keys,
// so equal records encode to equal bytes.
func (s *Schema) EncodeRecord(r Record) ([]byte, error) {
	for name, v := range r {
		f, ok := s.Field(name)
		if !ok {
			return nil, fmt.Errorf("encode %s: unknown field %q", s.Entity, name)
		}
		if !value.IsNone(v) && v.Kind() != f.Kind {
			return nil, fmt.Errorf("encode %s: field %q expects %s, got %s", s.Entity, name, f.Kind, v.Kind())
		}
	}
	data, err := json.Marshal(r.ToNative())
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", s.Entity, err)
	}
	return data, nil
}

// DecodeRecord parses stored bytes back into a typed record. Every field must
// be declared and hold a value of its declared kind.
func (s *Schema) DecodeRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Entity, err)
	}
	return s.RecordFromNative(raw)
}

// RecordFromNative types a decoded document against the schema.
func (s *Schema) RecordFromNative(raw map[string]any) (Record, error) {
	r := make(Record, len(raw))
	for name, rv := range raw {
		f, ok := s.Field(name)
		if !ok {
			return nil, fmt.Errorf("decode %s: unknown field %q", s.Entity, name)
		}
		v, err := value.Parse(f.Kind, rv)
		if err != nil {
			return nil, fmt.Errorf("decode %s: field %q: %w", s.Entity, name, err)
		}
		r[name] = v
	}
	return r, nil
}
