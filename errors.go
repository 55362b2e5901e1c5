package sedes

import (
	"errors"
	"fmt"

	"github.com/drpcorg/sedes/wire"
)

var (
	ErrSerialization   = errors.New("sedes: serialization failed")
	ErrDeserialization = errors.New("sedes: deserialization failed")
	ErrSchema          = errors.New("sedes: invalid schema declaration")
	ErrChangeset       = errors.New("sedes: changeset is not active")
)

// SerializationError reports a value a sedes cannot represent.
type SerializationError struct {
	Msg   string
	Value any
}

func (e *SerializationError) Error() string { return "sedes: " + e.Msg }

func (e *SerializationError) Unwrap() error { return ErrSerialization }

// DeserializationError reports a wire item whose shape is wrong for the
// sedes that received it.
type DeserializationError struct {
	Msg  string
	Item wire.Item
}

func (e *DeserializationError) Error() string { return "sedes: " + e.Msg }

func (e *DeserializationError) Unwrap() error { return ErrDeserialization }

// ListSerializationError is raised by List.Serialize. Index is the
// offending element position, or -1 when the failure is not
// element-specific (wrong arity, not a sequence); Cause is the wrapped
// element error in the former case.
type ListSerializationError struct {
	Msg   string
	Index int
	Cause error
}

func (e *ListSerializationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("sedes: serialization failed because of element at index %d (%v)", e.Index, e.Cause)
	}
	return "sedes: " + e.Msg
}

func (e *ListSerializationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrSerialization, e.Cause}
	}
	return []error{ErrSerialization}
}

// ListDeserializationError is the deserialization mirror of
// ListSerializationError.
type ListDeserializationError struct {
	Msg   string
	Index int
	Cause error
}

func (e *ListDeserializationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("sedes: deserialization failed because of element at index %d (%v)", e.Index, e.Cause)
	}
	return "sedes: " + e.Msg
}

func (e *ListDeserializationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrDeserialization, e.Cause}
	}
	return []error{ErrDeserialization}
}

// ObjectSerializationError is raised when serializing a record fails.
// Field names the offending field when the underlying list error is
// element-specific, and is empty otherwise.
type ObjectSerializationError struct {
	Schema *Schema
	Field  string
	Cause  *ListSerializationError
}

func (e *ObjectSerializationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("sedes: serialization of %s failed because of field %s (%v)",
			e.Schema.Name(), e.Field, e.Cause.Cause)
	}
	return fmt.Sprintf("sedes: serialization of %s failed because of the underlying list (%v)",
		e.Schema.Name(), e.Cause)
}

func (e *ObjectSerializationError) Unwrap() []error {
	return []error{ErrSerialization, e.Cause}
}

// ObjectDeserializationError is the deserialization mirror of
// ObjectSerializationError.
type ObjectDeserializationError struct {
	Schema *Schema
	Field  string
	Cause  *ListDeserializationError
}

func (e *ObjectDeserializationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("sedes: deserialization of %s failed because of field %s (%v)",
			e.Schema.Name(), e.Field, e.Cause.Cause)
	}
	return fmt.Sprintf("sedes: deserialization of %s failed because of the underlying list (%v)",
		e.Schema.Name(), e.Cause)
}

func (e *ObjectDeserializationError) Unwrap() []error {
	return []error{ErrDeserialization, e.Cause}
}
