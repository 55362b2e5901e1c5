package sedes

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Field binds a name to the sedes that owns it on the wire.
type Field struct {
	Name  string
	Sedes Sedes
}

// Fields is an ordered field declaration.
type Fields []Field

// Find returns the index of the named field, or -1.
func (fs Fields) Find(name string) int {
	for i := 0; i < len(fs); i++ {
		if fs[i].Name == name {
			return i
		}
	}
	return -1
}

// Names returns the field names in declaration order.
func (fs Fields) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// Schema is the immutable field-name/sedes contract for one record
// type. It is built once, at declaration time, and every construction,
// serialization and deserialization of its records goes through it.
type Schema struct {
	name    string
	fields  Fields
	slots   []string
	sedes   List
	parents []*Schema
}

// NewSchema validates a declaration and builds the schema.
//
// A declaration without fields and with exactly one parent inherits the
// parent's fields verbatim. Declaring fields requires unique names,
// each a valid bare identifier, and a name set covering every parent's
// full field set; composing several parents always requires an explicit
// field set. Any violation is a declaration-time error wrapping
// ErrSchema.
func NewSchema(name string, fields Fields, parents ...*Schema) (*Schema, error) {
	if len(fields) == 0 {
		switch len(parents) {
		case 0:
			// a zero-field schema, typically a base for subclassing
		case 1:
			fields = parents[0].fields
		default:
			return nil, fmt.Errorf("%w: schema %s composes %d parent schemas and must declare an explicit field set",
				ErrSchema, name, len(parents))
		}
	} else {
		if dup := duplicates(fields.Names()); len(dup) > 0 {
			return nil, fmt.Errorf("%w: schema %s declares duplicate fields: %s",
				ErrSchema, name, strings.Join(dup, ","))
		}
		var invalid []string
		for _, f := range fields {
			if !isIdentifier(f.Name) {
				invalid = append(invalid, f.Name)
			}
		}
		if len(invalid) > 0 {
			sort.Strings(invalid)
			return nil, fmt.Errorf("%w: schema %s declares field names that are not valid identifiers: %s",
				ErrSchema, name, strings.Join(invalid, ","))
		}
		declared := make(map[string]bool, len(fields))
		for _, f := range fields {
			declared[f.Name] = true
		}
		var missing []string
		for _, p := range parents {
			for _, pf := range p.fields {
				if !declared[pf.Name] {
					missing = append(missing, pf.Name)
				}
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return nil, fmt.Errorf("%w: schema %s must declare a full superset of its parents' fields, missing: %s",
				ErrSchema, name, strings.Join(uniqueSorted(missing), ","))
		}
	}

	s := &Schema{
		name:    name,
		fields:  append(Fields(nil), fields...),
		parents: append([]*Schema(nil), parents...),
	}
	s.slots = makeSlots(s)
	elements := make([]Sedes, len(s.fields))
	for i, f := range s.fields {
		elements[i] = f.Sedes
	}
	s.sedes = NewList(elements...)
	return s, nil
}

// MustSchema is NewSchema for declaration sites, where a violation is a
// programming error.
func MustSchema(name string, fields Fields, parents ...*Schema) *Schema {
	s, err := NewSchema(name, fields, parents...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Name() string { return s.name }

// Fields returns the field declaration, in order.
func (s *Schema) Fields() Fields { return append(Fields(nil), s.fields...) }

// FieldNames returns the field names, in order.
func (s *Schema) FieldNames() []string { return s.fields.Names() }

// Arity returns the number of fields on the wire.
func (s *Schema) Arity() int { return len(s.fields) }

// Slots returns the generated private storage-slot name per field.
// Slots never collide with any name used anywhere in the schema's
// inheritance chain.
func (s *Schema) Slots() []string { return append([]string(nil), s.slots...) }

// Parents returns the parent schemas this schema was declared with.
func (s *Schema) Parents() []*Schema { return append([]*Schema(nil), s.parents...) }

// makeSlots derives one storage-slot name per field by prefixing
// underscores until the candidate is free in the whole chain namespace.
func makeSlots(s *Schema) []string {
	namespace := make(map[string]bool)
	var walk func(sch *Schema)
	walk = func(sch *Schema) {
		for _, f := range sch.fields {
			namespace[f.Name] = true
		}
		for _, slot := range sch.slots {
			namespace[slot] = true
		}
		for _, p := range sch.parents {
			walk(p)
		}
	}
	walk(s)

	slots := make([]string, len(s.fields))
	for i, f := range s.fields {
		slot := "_" + f.Name
		for namespace[slot] {
			slot = "_" + slot
		}
		namespace[slot] = true
		slots[i] = slot
	}
	return slots
}

func duplicates(names []string) []string {
	seen := make(map[string]int, len(names))
	for _, n := range names {
		seen[n]++
	}
	var dup []string
	for n, c := range seen {
		if c > 1 {
			dup = append(dup, n)
		}
	}
	sort.Strings(dup)
	return dup
}

func uniqueSorted(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

// isIdentifier reports whether name is a valid bare identifier: a
// letter or underscore followed by letters, digits or underscores.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
