package sedes

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/drpcorg/sedes/wire"
)

// Uint64 serializes unsigned integers as minimal big-endian byte
// strings. Zero is the empty string; a stored leading zero byte is
// non-canonical and rejected on deserialize.
type Uint64 struct{}

func (Uint64) Serialize(v any) (wire.Item, error) {
	n, ok := asUint64(v)
	if !ok {
		return nil, &SerializationError{
			Msg:   fmt.Sprintf("can only serialize non-negative integers, got %T", v),
			Value: v,
		}
	}
	if n == 0 {
		return wire.Bytes{}, nil
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	i := 0
	for buf[i] == 0 {
		i++
	}
	return wire.Bytes(buf[i:]), nil
}

func (Uint64) Deserialize(it wire.Item) (any, error) {
	b, ok := it.(wire.Bytes)
	if !ok {
		return nil, &DeserializationError{Msg: "expected a byte string, got a list", Item: it}
	}
	if len(b) > 8 {
		return nil, &DeserializationError{Msg: "integer does not fit into 64 bits", Item: it}
	}
	if len(b) > 0 && b[0] == 0 {
		return nil, &DeserializationError{Msg: "integer encoded with leading zero bytes", Item: it}
	}
	n := uint64(0)
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	return n, nil
}

func (Uint64) Fits(v any) bool {
	_, ok := asUint64(v)
	return ok
}

func asUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case uint:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int32:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	}
	return 0, false
}

// Binary serializes raw byte strings, with optional length bounds.
// Both []byte and string values are accepted; deserialized values are
// []byte.
type Binary struct {
	Min int
	Max int // -1 = unbounded
}

// NewBinary returns an unbounded Binary sedes.
func NewBinary() Binary { return Binary{Min: 0, Max: -1} }

// BinaryRange returns a Binary sedes accepting lengths in [min, max].
func BinaryRange(min, max int) Binary { return Binary{Min: min, Max: max} }

// BinaryExact returns a Binary sedes accepting exactly n bytes.
func BinaryExact(n int) Binary { return Binary{Min: n, Max: n} }

func (b Binary) lenOK(n int) bool {
	return n >= b.Min && (b.Max < 0 || n <= b.Max)
}

func (b Binary) Serialize(v any) (wire.Item, error) {
	var raw []byte
	switch s := v.(type) {
	case []byte:
		raw = s
	case string:
		raw = []byte(s)
	default:
		return nil, &SerializationError{
			Msg:   fmt.Sprintf("can only serialize bytes and strings, got %T", v),
			Value: v,
		}
	}
	if !b.lenOK(len(raw)) {
		return nil, &SerializationError{
			Msg:   fmt.Sprintf("byte string of length %d is out of bounds", len(raw)),
			Value: v,
		}
	}
	return wire.Bytes(append([]byte(nil), raw...)), nil
}

func (b Binary) Deserialize(it wire.Item) (any, error) {
	s, ok := it.(wire.Bytes)
	if !ok {
		return nil, &DeserializationError{Msg: "expected a byte string, got a list", Item: it}
	}
	if !b.lenOK(len(s)) {
		return nil, &DeserializationError{
			Msg:  fmt.Sprintf("byte string of length %d is out of bounds", len(s)),
			Item: it,
		}
	}
	return append([]byte(nil), s...), nil
}

func (b Binary) Fits(v any) bool {
	switch s := v.(type) {
	case []byte:
		return b.lenOK(len(s))
	case string:
		return b.lenOK(len(s))
	}
	return false
}

// Text serializes UTF-8 strings. Invalid UTF-8 is rejected in both
// directions.
type Text struct{}

func (Text) Serialize(v any) (wire.Item, error) {
	s, ok := v.(string)
	if !ok {
		return nil, &SerializationError{
			Msg:   fmt.Sprintf("can only serialize strings, got %T", v),
			Value: v,
		}
	}
	if !utf8.ValidString(s) {
		return nil, &SerializationError{Msg: "string is not valid UTF-8", Value: v}
	}
	return wire.Bytes(s), nil
}

func (Text) Deserialize(it wire.Item) (any, error) {
	b, ok := it.(wire.Bytes)
	if !ok {
		return nil, &DeserializationError{Msg: "expected a byte string, got a list", Item: it}
	}
	if !utf8.Valid(b) {
		return nil, &DeserializationError{Msg: "byte string is not valid UTF-8", Item: it}
	}
	return string(b), nil
}

func (Text) Fits(v any) bool {
	s, ok := v.(string)
	return ok && utf8.ValidString(s)
}
