// Package schema holds the runtime form of an entity schema: its path, typed
// field set, primary key and secondary indexes.
//
// Schemas are supplied at run time. How they are declared or generated is the
// caller's concern; this package only checks that a schema is internally
// consistent and answers questions the query layer asks of it.
package schema

import (
	"fmt"
	"slices"

	"github.com/roach88/kvquery/internal/keys"
	"github.com/roach88/kvquery/internal/value"
)

// Field is one declared, typed field.
type Field struct {
	Name string     `json:"name" yaml:"name"`
	Kind value.Kind `json:"-" yaml:"-"`

	// KindName is the document form of Kind. Resolve fills Kind from it.
	KindName string `json:"kind" yaml:"kind"`
}

// Index is a secondary index over one or more fields.
type Index struct {
	Name   string   `json:"name" yaml:"name"`
	Fields []string `json:"fields" yaml:"fields"`
	Unique bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
}

// Schema describes one entity kind.
type Schema struct {
	Entity     string   `json:"entity" yaml:"entity"`
	Fields     []Field  `json:"fields" yaml:"fields"`
	PrimaryKey []string `json:"primary_key" yaml:"primary_key"`
	Indexes    []Index  `json:"indexes,omitempty" yaml:"indexes,omitempty"`

	byName map[string]int
}

// New builds and checks a schema from typed fields.
func New(entity string, fields []Field, primaryKey []string, indexes ...Index) (*Schema, error) {
	s := &Schema{
		Entity:     entity,
		Fields:     slices.Clone(fields),
		PrimaryKey: slices.Clone(primaryKey),
		Indexes:    slices.Clone(indexes),
	}
	for i := range s.Fields {
		s.Fields[i].KindName = s.Fields[i].Kind.String()
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNew is New for schemas known to be valid, such as test fixtures.
func MustNew(entity string, fields []Field, primaryKey []string, indexes ...Index) *Schema {
	s, err := New(entity, fields, primaryKey, indexes...)
	if err != nil {
		panic(err)
	}
	return s
}

// F is shorthand for a Field literal.
func F(name string, kind value.Kind) Field {
	return Field{Name: name, Kind: kind, KindName: kind.String()}
}

// Resolve fills Kind from KindName for a schema decoded from a document, then
// checks it.
func (s *Schema) Resolve() error {
	for i := range s.Fields {
		k, err := value.ParseKind(s.Fields[i].KindName)
		if err != nil {
			return fmt.Errorf("field %q: %w", s.Fields[i].Name, err)
		}
		s.Fields[i].Kind = k
	}
	return s.check()
}

func (s *Schema) check() error {
	if s.Entity == "" {
		return fmt.Errorf("schema: entity name is required")
	}
	s.byName = make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema %s: field %d has no name", s.Entity, i)
		}
		if _, dup := s.byName[f.Name]; dup {
			return fmt.Errorf("schema %s: duplicate field %q", s.Entity, f.Name)
		}
		s.byName[f.Name] = i
	}
	if len(s.PrimaryKey) == 0 {
		return fmt.Errorf("schema %s: primary key is required", s.Entity)
	}
	if err := s.checkKeyFields("primary key", s.PrimaryKey); err != nil {
		return err
	}
	seen := make(map[string]bool, len(s.Indexes))
	for _, idx := range s.Indexes {
		if idx.Name == "" || seen[idx.Name] {
			return fmt.Errorf("schema %s: index name %q is empty or duplicated", s.Entity, idx.Name)
		}
		seen[idx.Name] = true
		if len(idx.Fields) == 0 {
			return fmt.Errorf("schema %s: index %q has no fields", s.Entity, idx.Name)
		}
		if err := s.checkKeyFields("index "+idx.Name, idx.Fields); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) checkKeyFields(what string, names []string) error {
	for _, name := range names {
		f, ok := s.Field(name)
		if !ok {
			return fmt.Errorf("schema %s: %s references unknown field %q", s.Entity, what, name)
		}
		if _, ok := keys.KindOf(f.Kind); !ok {
			return fmt.Errorf("schema %s: %s field %q has kind %s which cannot be part of a key", s.Entity, what, name, f.Kind)
		}
	}
	return nil
}

// Path is the key-space path of the entity's rows.
func (s *Schema) Path() string { return s.Entity }

// IndexPath is the key-space path of a secondary index.
func (s *Schema) IndexPath(idx Index) string { return s.Entity + "#" + idx.Name }

// HasField reports whether name is a declared field.
func (s *Schema) HasField(name string) bool {
	_, ok := s.Field(name)
	return ok
}

// Field looks up a declared field.
func (s *Schema) Field(name string) (Field, bool) {
	if s.byName == nil {
		for _, f := range s.Fields {
			if f.Name == name {
				return f, true
			}
		}
		return Field{}, false
	}
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Filterable reports whether name is declared and its kind can be filtered.
func (s *Schema) Filterable(name string) bool {
	f, ok := s.Field(name)
	return ok && f.Kind != value.KindUnsupported
}

// IsPrimaryKey reports whether the single-field primary key is name.
func (s *Schema) IsPrimaryKey(name string) bool {
	return len(s.PrimaryKey) == 1 && s.PrimaryKey[0] == name
}

// Index looks up an index by name.
func (s *Schema) Index(name string) (Index, bool) {
	for _, idx := range s.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return Index{}, false
}

// LowerBound is the smallest encoded key of the entity.
func (s *Schema) LowerBound() []byte { return keys.LowerBound(s.Path()) }

// UpperBound is past the largest encoded key of the entity.
func (s *Schema) UpperBound() []byte { return keys.UpperBound(s.Path()) }

// KeyFor extracts the primary key of a record.
func (s *Schema) KeyFor(r Record) (keys.DataKey, error) {
	comps, err := s.components(r, s.PrimaryKey)
	if err != nil {
		return keys.DataKey{}, fmt.Errorf("primary key: %w", err)
	}
	for i, c := range comps {
		if c == nil {
			return keys.DataKey{}, fmt.Errorf("primary key field %q is missing", s.PrimaryKey[i])
		}
	}
	return keys.DataKey{Path: s.Path(), Components: comps}, nil
}

// IndexKeyFor builds the index entry key of a record: indexed values followed
// by the primary key components.
func (s *Schema) IndexKeyFor(idx Index, r Record, pk keys.DataKey) (keys.IndexKey, error) {
	comps, err := s.components(r, idx.Fields)
	if err != nil {
		return keys.IndexKey{}, fmt.Errorf("index %s: %w", idx.Name, err)
	}
	if !idx.Unique {
		comps = append(comps, pk.Components...)
	}
	return keys.IndexKey{Path: s.IndexPath(idx), Components: comps}, nil
}

func (s *Schema) components(r Record, names []string) ([]keys.IndexValue, error) {
	out := make([]keys.IndexValue, 0, len(names))
	for _, name := range names {
		v, ok := r[name]
		if !ok {
			out = append(out, nil)
			continue
		}
		iv, ok := keys.FromValue(v)
		if !ok {
			return nil, fmt.Errorf("field %q holds %s which cannot be part of a key", name, v.Kind())
		}
		out = append(out, iv)
	}
	return out, nil
}
