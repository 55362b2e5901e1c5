package sedes

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"reflect"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash"

	"github.com/drpcorg/sedes/wire"
)

// Record is an immutable snapshot of field values for one schema.
// Construction projects every value into its immutable form, so records
// can be shared across goroutines without locking. The content hash is
// computed lazily and cached; recomputing it is idempotent, so the
// cache needs no synchronization beyond an atomic word.
type Record struct {
	schema *Schema
	values []any
	aux    map[string]any
	hash   atomic.Uint64
}

// New constructs a record from positional values merged with named
// values, in the schema's field order. A field given both positionally
// and by name, an unknown name, or a missing field is an error.
func (s *Schema) New(args []any, named map[string]any) (*Record, error) {
	return s.newRecord(args, named, nil)
}

// MustNew is the positional form of New for sites where a construction
// failure is a programming error.
func (s *Schema) MustNew(args ...any) *Record {
	r, err := s.New(args, nil)
	if err != nil {
		panic(err)
	}
	return r
}

func (s *Schema) newRecord(args []any, named, aux map[string]any) (*Record, error) {
	names := s.fields.Names()
	if len(args) > len(names) {
		return nil, fmt.Errorf("sedes: record %s: %d positional values for %d fields",
			s.name, len(args), len(names))
	}

	var dup, unknown []string
	for k := range named {
		idx := s.fields.Find(k)
		if idx < 0 {
			unknown = append(unknown, k)
		} else if idx < len(args) {
			dup = append(dup, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("sedes: record %s: unknown fields: %s", s.name, strings.Join(unknown, ","))
	}
	if len(dup) > 0 {
		sort.Strings(dup)
		return nil, fmt.Errorf("sedes: record %s: fields given both positionally and by name: %s",
			s.name, strings.Join(dup, ","))
	}

	values := make([]any, len(names))
	for i, v := range args {
		values[i] = project(v)
	}
	var missing []string
	for i := len(args); i < len(names); i++ {
		v, ok := named[names[i]]
		if !ok {
			missing = append(missing, names[i])
			continue
		}
		values[i] = project(v)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("sedes: record %s: missing fields: %s", s.name, strings.Join(missing, ","))
	}

	r := &Record{schema: s, values: values}
	if len(aux) > 0 {
		r.aux = make(map[string]any, len(aux))
		for k, v := range aux {
			if s.fields.Find(k) >= 0 {
				return nil, fmt.Errorf("sedes: record %s: auxiliary field %s shadows a schema field", s.name, k)
			}
			r.aux[k] = project(v)
		}
	}
	return r, nil
}

// project converts a value into its immutable stored form: any ordered
// sequence becomes a fresh []any with projected elements, byte strings
// are copied, everything else is stored as-is. Projection normalizes
// every sequence representation to one shape, which is what makes
// record equality purely structural.
func project(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return append([]byte(nil), x...)
	case []any:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = project(el)
		}
		return out
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		*Record:
		return v
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			out := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(out), rv)
			return out
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = project(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

// Schema returns the schema this record was constructed with.
func (r *Record) Schema() *Schema { return r.schema }

// Len returns the number of schema fields.
func (r *Record) Len() int { return len(r.values) }

// At returns the field value at position i in declaration order.
func (r *Record) At(i int) any { return r.values[i] }

// Get returns the named field value; auxiliary fields resolve after
// schema fields.
func (r *Record) Get(name string) (any, error) {
	if i := r.schema.fields.Find(name); i >= 0 {
		return r.values[i], nil
	}
	if v, ok := r.aux[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("sedes: record %s has no field %s", r.schema.name, name)
}

// Slice returns the field values in positions [i, j). The returned
// slice and any nested sequences must be treated as read-only.
func (r *Record) Slice(i, j int) []any {
	return append([]any(nil), r.values[i:j]...)
}

// Values returns the field values in declaration order. Treat the
// result as read-only.
func (r *Record) Values() []any {
	return append([]any(nil), r.values...)
}

// AsMap projects the record to a field-name keyed map. Treat nested
// sequences as read-only.
func (r *Record) AsMap() map[string]any {
	m := make(map[string]any, len(r.values))
	for i, f := range r.schema.fields {
		m[f.Name] = r.values[i]
	}
	return m
}

// Aux returns the auxiliary (non-wire) field value attached at
// deserialization time, if any.
func (r *Record) Aux(name string) (any, bool) {
	v, ok := r.aux[name]
	return v, ok
}

// Equal reports content equality: same schema and structurally equal
// field values. Auxiliary fields do not participate.
func (r *Record) Equal(other *Record) bool {
	if other == nil || r.schema != other.schema {
		return false
	}
	if r == other {
		return true
	}
	if r.Hash() != other.Hash() {
		return false
	}
	for i := range r.values {
		if !eq(r.values[i], other.values[i]) {
			return false
		}
	}
	return true
}

func eq(a, b any) bool {
	switch x := a.(type) {
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !eq(x[i], y[i]) {
				return false
			}
		}
		return true
	case []byte:
		y, ok := b.([]byte)
		return ok && string(x) == string(y)
	case *Record:
		y, ok := b.(*Record)
		return ok && x.Equal(y)
	}
	return reflect.DeepEqual(a, b)
}

// Hash returns the cached content hash, computing it on first use. The
// write is a plain atomic store: concurrent computations always agree,
// so the race is benign.
func (r *Record) Hash() uint64 {
	if h := r.hash.Load(); h != 0 {
		return h
	}
	d := xxhash.New()
	for _, v := range r.values {
		hashValue(d, v)
	}
	h := d.Sum64()
	if h == 0 {
		h = 1
	}
	r.hash.Store(h)
	return h
}

func hashValue(d hash.Hash64, v any) {
	var hdr [9]byte
	switch x := v.(type) {
	case nil:
		d.Write([]byte{'n'})
	case []any:
		hdr[0] = 'L'
		binary.BigEndian.PutUint64(hdr[1:], uint64(len(x)))
		d.Write(hdr[:])
		for _, el := range x {
			hashValue(d, el)
		}
	case []byte:
		hdr[0] = 'B'
		binary.BigEndian.PutUint64(hdr[1:], uint64(len(x)))
		d.Write(hdr[:])
		d.Write(x)
	case string:
		hdr[0] = 'S'
		binary.BigEndian.PutUint64(hdr[1:], uint64(len(x)))
		d.Write(hdr[:])
		d.Write([]byte(x))
	case *Record:
		hdr[0] = 'R'
		binary.BigEndian.PutUint64(hdr[1:], x.Hash())
		d.Write(hdr[:])
	default:
		fmt.Fprintf(d, "%T=%v;", x, x)
	}
}

func (r *Record) String() string {
	var b strings.Builder
	b.WriteString(r.schema.name)
	b.WriteByte('(')
	for i, f := range r.schema.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", f.Name, r.values[i])
	}
	b.WriteByte(')')
	return b.String()
}

// Copy returns a record identical to r except for the given overrides.
// Stored values are already immutable projections, so unchanged fields
// are reused as-is.
func (r *Record) Copy(overrides map[string]any) (*Record, error) {
	named := r.AsMap()
	for k, v := range overrides {
		if r.schema.fields.Find(k) < 0 {
			return nil, fmt.Errorf("sedes: record %s has no field %s", r.schema.name, k)
		}
		named[k] = v
	}
	return r.schema.newRecord(nil, named, r.aux)
}

// Serialize converts a record of this schema into its canonical bytes.
// Failures inside a field's sedes surface with that field's name.
func (s *Schema) Serialize(r *Record) ([]byte, error) {
	if r == nil || r.schema != s {
		metricSerialize.WithLabelValues(s.name, outcomeFailure).Inc()
		return nil, fmt.Errorf("sedes: record does not belong to schema %s", s.name)
	}
	it, err := s.sedes.Serialize(r.values)
	if err != nil {
		metricSerialize.WithLabelValues(s.name, outcomeFailure).Inc()
		var le *ListSerializationError
		if errors.As(err, &le) {
			return nil, &ObjectSerializationError{Schema: s, Field: s.fieldAt(le.Index), Cause: le}
		}
		return nil, err
	}
	data, err := wire.Encode(it)
	if err != nil {
		metricSerialize.WithLabelValues(s.name, outcomeFailure).Inc()
		return nil, err
	}
	metricSerialize.WithLabelValues(s.name, outcomeSuccess).Inc()
	return data, nil
}

// Deserialize is the mirror of Serialize: canonical bytes in, a fresh
// record out. Codec-level failures propagate as wire decoding errors;
// sedes-level failures surface with field attribution. Entries in extra
// become auxiliary fields on the record; they are not part of the wire
// schema and must not shadow one of its fields.
func (s *Schema) Deserialize(data []byte, extra map[string]any) (*Record, error) {
	it, err := wire.DecodeSingle(data)
	if err != nil {
		metricDeserialize.WithLabelValues(s.name, outcomeFailure).Inc()
		return nil, err
	}
	v, err := s.sedes.Deserialize(it)
	if err != nil {
		metricDeserialize.WithLabelValues(s.name, outcomeFailure).Inc()
		var le *ListDeserializationError
		if errors.As(err, &le) {
			return nil, &ObjectDeserializationError{Schema: s, Field: s.fieldAt(le.Index), Cause: le}
		}
		return nil, err
	}
	r, err := s.newRecord(v.([]any), nil, extra)
	if err != nil {
		metricDeserialize.WithLabelValues(s.name, outcomeFailure).Inc()
		return nil, err
	}
	metricDeserialize.WithLabelValues(s.name, outcomeSuccess).Inc()
	return r, nil
}

// fieldAt resolves a list-error index to its field name; -1 (not
// element-specific) resolves to the empty string.
func (s *Schema) fieldAt(index int) string {
	if index < 0 || index >= len(s.fields) {
		return ""
	}
	return s.fields[index].Name
}
