/*
Package wire implements the canonical item codec: a deterministic,
recursive length-prefix encoding for trees of byte strings and ordered
sequences.

# Encoding rules

A byte string s encodes as:

 1. s itself, if s is a single byte below 0x80 (no prefix);
 2. one byte 0x80+len(s) followed by s, if len(s) <= 55;
 3. one byte 0xb7+len(L), the minimal big-endian length L = len(s),
    then s, otherwise.

A sequence encodes its concatenated item encodings P as:

 1. one byte 0xc0+len(P) followed by P, if len(P) <= 55;
 2. one byte 0xf7+len(L), the minimal big-endian length L = len(P),
    then P, otherwise.

# Canonical form

Every logical value has exactly one encoding, and Decode rejects any
input that re-encoded would differ from itself: length fields with
leading zero bytes, the long form where the short form suffices, and a
length prefix on a single byte below 0x80. This is what makes the
encoding safe to hash and sign.

# Decoding

Decode returns one item plus the unconsumed remainder, in the
(value, rest, err) shape. DecodeSingle additionally requires the
remainder to be empty. Decoding is iterative, so adversarially nested
input cannot grow the call stack; total work is bounded by input length.
*/
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrEncoding = errors.New("sedes: encoding failed")
	ErrDecoding = errors.New("sedes: decoding failed")
)

// EncodingError reports an item the codec cannot encode.
type EncodingError struct {
	Msg  string
	Item Item
}

func (e *EncodingError) Error() string { return "sedes: " + e.Msg }

func (e *EncodingError) Unwrap() error { return ErrEncoding }

// DecodingError reports a malformed or non-canonical input. Bytes holds
// the offending region of the input.
type DecodingError struct {
	Msg   string
	Bytes []byte
}

func (e *DecodingError) Error() string { return "sedes: " + e.Msg }

func (e *DecodingError) Unwrap() error { return ErrDecoding }

const (
	strShortTag  = 0x80
	strLongTag   = 0xb7
	listShortTag = 0xc0
	listLongTag  = 0xf7
	maxShortLen  = 55
)

// Encode returns the canonical encoding of it.
func Encode(it Item) ([]byte, error) {
	return Append(nil, it)
}

// Append appends the canonical encoding of it to into.
func Append(into []byte, it Item) ([]byte, error) {
	switch v := it.(type) {
	case Bytes:
		return appendString(into, v), nil
	case List:
		var payload []byte
		var err error
		for _, el := range v {
			payload, err = Append(payload, el)
			if err != nil {
				return nil, err
			}
		}
		into = appendHeader(into, listShortTag, listLongTag, uint64(len(payload)))
		return append(into, payload...), nil
	case nil:
		return nil, &EncodingError{Msg: "cannot encode a nil item", Item: it}
	default:
		return nil, &EncodingError{Msg: fmt.Sprintf("cannot encode item of type %T", it), Item: it}
	}
}

func appendString(into []byte, s []byte) []byte {
	if len(s) == 1 && s[0] < strShortTag {
		return append(into, s[0])
	}
	into = appendHeader(into, strShortTag, strLongTag, uint64(len(s)))
	return append(into, s...)
}

// appendHeader writes a length header, choosing the short or long form.
func appendHeader(into []byte, short, long byte, n uint64) []byte {
	if n <= maxShortLen {
		return append(into, short+byte(n))
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	i := 0
	for buf[i] == 0 {
		i++
	}
	into = append(into, long+byte(8-i))
	return append(into, buf[i:]...)
}

const (
	kindByte = iota
	kindString
	kindList
)

// probe classifies the header of the item starting at data[pos] and
// enforces the canonical-form rules. The item must fit entirely within
// data[pos:limit].
func probe(data []byte, pos, limit int) (kind, hdrlen, bodylen int, err error) {
	bad := func(msg string) (int, int, int, error) {
		return 0, 0, 0, &DecodingError{Msg: msg, Bytes: data[pos:limit]}
	}
	tag := data[pos]
	var long byte
	switch {
	case tag < strShortTag:
		return kindByte, 0, 1, nil
	case tag <= strLongTag:
		kind, hdrlen, bodylen = kindString, 1, int(tag-strShortTag)
		if pos+hdrlen+bodylen > limit {
			return bad("string payload is truncated")
		}
		if bodylen == 1 && data[pos+1] < strShortTag {
			return bad("single byte below 0x80 must be encoded without a length prefix")
		}
		return kind, hdrlen, bodylen, nil
	case tag < listShortTag:
		kind, long = kindString, strLongTag
	case tag <= listLongTag:
		kind, hdrlen, bodylen = kindList, 1, int(tag-listShortTag)
		if pos+hdrlen+bodylen > limit {
			return bad("list payload is truncated")
		}
		return kind, hdrlen, bodylen, nil
	default:
		kind, long = kindList, listLongTag
	}

	lenlen := int(tag - long)
	if pos+1+lenlen > limit {
		return bad("length field is truncated")
	}
	if data[pos+1] == 0 {
		return bad("length field has leading zero bytes")
	}
	n := uint64(0)
	for _, b := range data[pos+1 : pos+1+lenlen] {
		n = n<<8 | uint64(b)
	}
	if n <= maxShortLen {
		return bad("long length form used where the short form suffices")
	}
	if n > uint64(limit-pos-1-lenlen) {
		return bad("payload is truncated")
	}
	return kind, 1 + lenlen, int(n), nil
}

// Decode reads one item from the front of data and returns it together
// with the unconsumed remainder.
func Decode(data []byte) (Item, []byte, error) {
	it, n, err := decodeItem(data)
	if err != nil {
		return nil, nil, err
	}
	return it, data[n:], nil
}

// DecodeSingle decodes data as exactly one item; trailing bytes are a
// decoding failure.
func DecodeSingle(data []byte) (Item, error) {
	it, rest, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, &DecodingError{
			Msg:   fmt.Sprintf("expected a single encoded item, %d trailing bytes remain", len(rest)),
			Bytes: rest,
		}
	}
	return it, nil
}

// decodeItem is the iterative decoder core. List nesting is tracked on
// an explicit frame stack so input depth never translates into call
// stack depth.
func decodeItem(data []byte) (Item, int, error) {
	if len(data) == 0 {
		return nil, 0, &DecodingError{Msg: "cannot decode an empty input"}
	}

	type frame struct {
		items List
		end   int
	}
	var stack []frame
	pos := 0
	for {
		limit := len(data)
		if n := len(stack); n > 0 {
			limit = stack[n-1].end
		}
		kind, hdrlen, bodylen, err := probe(data, pos, limit)
		if err != nil {
			return nil, 0, err
		}

		if kind == kindList {
			stack = append(stack, frame{end: pos + hdrlen + bodylen})
			pos += hdrlen
		} else {
			start := pos + hdrlen
			leaf := Bytes(make([]byte, bodylen))
			copy(leaf, data[start:start+bodylen])
			pos = start + bodylen
			if len(stack) == 0 {
				return leaf, pos, nil
			}
			top := &stack[len(stack)-1]
			top.items = append(top.items, leaf)
		}

		for len(stack) > 0 && pos == stack[len(stack)-1].end {
			done := stack[len(stack)-1].items
			if done == nil {
				done = List{}
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return done, pos, nil
			}
			top := &stack[len(stack)-1]
			top.items = append(top.items, done)
		}
	}
}
