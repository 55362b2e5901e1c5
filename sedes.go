/*
Package sedes maps structured values onto canonical wire items and back.

A sedes ("serializer/deserializer") converts one typed value to and from
a wire item (see the wire package). Leaf sedes cover atomic values;
List composes per-position sedes into fixed-arity sequences; Schema and
Record build a named-field record layer on top, with immutable value
semantics and changeset-based editing.

Identical logical values always produce identical bytes, and decoding
rejects any byte sequence that would not re-encode to itself. That makes
the output safe to hash, sign and compare across processes.
*/
package sedes

import "github.com/drpcorg/sedes/wire"

// Sedes converts a value to and from its wire item form.
//
// Serialize fails with a *SerializationError (or a list variant) if the
// value is not representable; Deserialize fails with a
// *DeserializationError (or a list variant) if the item's shape is
// wrong for this sedes.
type Sedes interface {
	Serialize(v any) (wire.Item, error)
	Deserialize(it wire.Item) (any, error)
}

// Acceptor is an optional sedes capability: a cheap representability
// check without performing the serialization.
type Acceptor interface {
	Fits(v any) bool
}
