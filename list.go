package sedes

import (
	"fmt"

	"github.com/drpcorg/sedes/wire"
)

// List is a sedes over a fixed-arity ordered sequence: one element
// sedes per position. Failures inside an element are wrapped with the
// offending index; arity and shape failures carry no index.
type List struct {
	elements []Sedes
}

// NewList builds a List over the given per-position sedes.
func NewList(elements ...Sedes) List {
	return List{elements: append([]Sedes(nil), elements...)}
}

// Arity returns the number of positions.
func (l List) Arity() int { return len(l.elements) }

func (l List) Serialize(v any) (wire.Item, error) {
	values, ok := v.([]any)
	if !ok {
		return nil, &ListSerializationError{
			Msg:   fmt.Sprintf("can only serialize ordered sequences, got %T", v),
			Index: -1,
		}
	}
	if len(values) != len(l.elements) {
		return nil, &ListSerializationError{
			Msg:   fmt.Sprintf("expected %d elements, got %d", len(l.elements), len(values)),
			Index: -1,
		}
	}
	items := make(wire.List, len(values))
	for i, el := range values {
		it, err := l.elements[i].Serialize(el)
		if err != nil {
			return nil, &ListSerializationError{Index: i, Cause: err}
		}
		items[i] = it
	}
	return items, nil
}

func (l List) Deserialize(it wire.Item) (any, error) {
	seq, ok := it.(wire.List)
	if !ok {
		return nil, &ListDeserializationError{Msg: "expected a list, got a byte string", Index: -1}
	}
	if len(seq) != len(l.elements) {
		return nil, &ListDeserializationError{
			Msg:   fmt.Sprintf("expected a list of %d elements, got %d", len(l.elements), len(seq)),
			Index: -1,
		}
	}
	values := make([]any, len(seq))
	for i, el := range seq {
		v, err := l.elements[i].Deserialize(el)
		if err != nil {
			return nil, &ListDeserializationError{Index: i, Cause: err}
		}
		values[i] = v
	}
	return values, nil
}
