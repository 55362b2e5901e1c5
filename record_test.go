package sedes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drpcorg/sedes/wire"
)

func accountSchema(t *testing.T) *Schema {
	t.Helper()
	return MustSchema("Account", Fields{
		{Name: "nonce", Sedes: Uint64{}},
		{Name: "owner", Sedes: Text{}},
		{Name: "code", Sedes: NewBinary()},
	})
}

func TestRecordConstruction(t *testing.T) {
	s := accountSchema(t)

	r, err := s.New([]any{uint64(1)}, map[string]any{"owner": "alice", "code": []byte{0xfe}})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.At(0))
	owner, err := r.Get("owner")
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []any{"alice", []byte{0xfe}}, r.Slice(1, 3))
	assert.Equal(t, map[string]any{"nonce": uint64(1), "owner": "alice", "code": []byte{0xfe}}, r.AsMap())
	assert.Equal(t, "Account(nonce: 1, owner: alice, code: [254])", r.String())

	_, err = r.Get("missing")
	assert.Error(t, err)
}

func TestRecordConstructionErrors(t *testing.T) {
	s := accountSchema(t)

	// a field given both positionally and by name
	_, err := s.New([]any{uint64(1)}, map[string]any{"nonce": uint64(2), "owner": "a", "code": []byte{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both positionally and by name")
	assert.Contains(t, err.Error(), "nonce")

	// unknown named field
	_, err = s.New(nil, map[string]any{"nonce": uint64(1), "owner": "a", "code": []byte{}, "extra": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")

	// missing field
	_, err = s.New([]any{uint64(1)}, map[string]any{"owner": "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
	assert.Contains(t, err.Error(), "code")

	// too many positional values
	_, err = s.New([]any{uint64(1), "a", []byte{}, "surplus"}, nil)
	require.Error(t, err)
}

func TestRecordRoundTrip(t *testing.T) {
	s := accountSchema(t)
	r := s.MustNew(uint64(42), "alice", []byte{0xca, 0xfe})

	data, err := s.Serialize(r)
	require.NoError(t, err)

	back, err := s.Deserialize(data, nil)
	require.NoError(t, err)
	assert.True(t, r.Equal(back))
	assert.Equal(t, r.Hash(), back.Hash())

	// canonical: the same logical record always encodes to the same bytes
	again, err := s.Serialize(back)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestRecordFieldAttribution(t *testing.T) {
	s := accountSchema(t)

	// the middle field's sedes rejects its value
	r, err := s.New([]any{uint64(1), 42, []byte{}}, nil)
	require.NoError(t, err, "construction does not validate representability")

	_, err = s.Serialize(r)
	var ose *ObjectSerializationError
	require.ErrorAs(t, err, &ose)
	assert.Equal(t, "owner", ose.Field)
	assert.Equal(t, 1, ose.Cause.Index)
	assert.ErrorIs(t, err, ErrSerialization)
	assert.Contains(t, err.Error(), "field owner")

	// deserialization mirror: the middle item has the wrong shape
	it := wire.List{wire.Bytes{0x01}, wire.List{}, wire.Bytes{}}
	data, err := wire.Encode(it)
	require.NoError(t, err)
	_, err = s.Deserialize(data, nil)
	var ode *ObjectDeserializationError
	require.ErrorAs(t, err, &ode)
	assert.Equal(t, "owner", ode.Field)
	assert.ErrorIs(t, err, ErrDeserialization)
}

func TestRecordGenericListFailure(t *testing.T) {
	s := accountSchema(t)

	// two items instead of three: an arity failure has no field
	data, err := wire.Encode(wire.List{wire.Bytes{0x01}, wire.Bytes("a")})
	require.NoError(t, err)
	_, err = s.Deserialize(data, nil)
	var ode *ObjectDeserializationError
	require.ErrorAs(t, err, &ode)
	assert.Equal(t, "", ode.Field)
	assert.Contains(t, err.Error(), "underlying list")

	// a leaf where the record list should be
	data, err = wire.Encode(wire.Bytes("leaf"))
	require.NoError(t, err)
	_, err = s.Deserialize(data, nil)
	require.ErrorAs(t, err, &ode)
	assert.Equal(t, "", ode.Field)
}

func TestRecordDecodeErrorsPassThrough(t *testing.T) {
	s := accountSchema(t)
	_, err := s.Deserialize([]byte{0x81, 0x00}, nil)
	assert.ErrorIs(t, err, wire.ErrDecoding, "codec failures are terminal leaves")
}

func TestRecordCrossRepresentationEquality(t *testing.T) {
	s := MustSchema("Holder", Fields{{Name: "items", Sedes: rawSedes{}}})

	a := s.MustNew([]int{1, 2, 3})
	b := s.MustNew([]any{1, 2, 3})
	c := s.MustNew([3]int{1, 2, 3})
	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(c))
	assert.Equal(t, a.Hash(), b.Hash())

	d := s.MustNew([]any{1, 2, 4})
	assert.False(t, a.Equal(d))

	// nested sequences normalize recursively
	e := s.MustNew([]any{[]int{1}, "x"})
	f := s.MustNew([]any{[]any{1}, "x"})
	assert.True(t, e.Equal(f))
}

func TestRecordEqualitySchemaBound(t *testing.T) {
	s1 := MustSchema("A", Fields{{Name: "x", Sedes: Uint64{}}})
	s2 := MustSchema("A", Fields{{Name: "x", Sedes: Uint64{}}})
	r1 := s1.MustNew(uint64(1))
	r2 := s2.MustNew(uint64(1))
	assert.False(t, r1.Equal(r2), "equality requires the same schema, not an identical-looking one")
	assert.True(t, r1.Equal(s1.MustNew(uint64(1))))
	assert.False(t, r1.Equal(nil))
}

func TestRecordImmutableProjection(t *testing.T) {
	s := MustSchema("Holder", Fields{{Name: "items", Sedes: rawSedes{}}})

	src := []int{1, 2, 3}
	r := s.MustNew(src)
	src[0] = 99
	v, err := r.Get("items")
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, v, "stored value must not alias the caller's slice")

	raw := []byte{1, 2}
	r2 := s.MustNew(raw)
	raw[0] = 99
	v2, _ := r2.Get("items")
	assert.Equal(t, []byte{1, 2}, v2)
}

func TestRecordCopy(t *testing.T) {
	s := accountSchema(t)
	r := s.MustNew(uint64(1), "alice", []byte{1})

	r2, err := r.Copy(map[string]any{"owner": "bob"})
	require.NoError(t, err)
	owner, _ := r2.Get("owner")
	assert.Equal(t, "bob", owner)
	assert.Equal(t, uint64(1), r2.At(0))

	// the original is untouched
	owner, _ = r.Get("owner")
	assert.Equal(t, "alice", owner)

	_, err = r.Copy(map[string]any{"nope": 1})
	assert.Error(t, err)

	// a copy with no overrides is equal to the original
	r3, err := r.Copy(nil)
	require.NoError(t, err)
	assert.True(t, r.Equal(r3))
}

func TestRecordAuxFields(t *testing.T) {
	s := accountSchema(t)
	data, err := s.Serialize(s.MustNew(uint64(7), "alice", []byte{}))
	require.NoError(t, err)

	r, err := s.Deserialize(data, map[string]any{"source": "peer-1"})
	require.NoError(t, err)
	v, ok := r.Aux("source")
	assert.True(t, ok)
	assert.Equal(t, "peer-1", v)

	// auxiliary fields resolve through Get but never shadow the schema
	got, err := r.Get("source")
	require.NoError(t, err)
	assert.Equal(t, "peer-1", got)
	_, err = s.Deserialize(data, map[string]any{"nonce": uint64(1)})
	assert.Error(t, err)

	// aux fields stay out of equality and the wire image
	plain, err := s.Deserialize(data, nil)
	require.NoError(t, err)
	assert.True(t, plain.Equal(r))
	again, err := s.Serialize(r)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestRecordHashCached(t *testing.T) {
	s := accountSchema(t)
	r := s.MustNew(uint64(1), "alice", []byte{1})
	h := r.Hash()
	assert.NotZero(t, h)
	assert.Equal(t, h, r.Hash())

	// concurrent first computations agree
	done := make(chan uint64, 8)
	r2 := s.MustNew(uint64(1), "alice", []byte{1})
	for i := 0; i < 8; i++ {
		go func() { done <- r2.Hash() }()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, h, <-done)
	}
}

func TestSerializeWrongSchema(t *testing.T) {
	s1 := MustSchema("A", Fields{{Name: "x", Sedes: Uint64{}}})
	s2 := MustSchema("B", Fields{{Name: "x", Sedes: Uint64{}}})
	r := s1.MustNew(uint64(1))
	_, err := s2.Serialize(r)
	assert.Error(t, err)
}

// rawSedes stores any projected value as-is; it lets record tests
// exercise projection and equality without wire representability.
type rawSedes struct{}

func (rawSedes) Serialize(any) (wire.Item, error) { return wire.Bytes{}, nil }
func (rawSedes) Deserialize(wire.Item) (any, error) { return nil, nil }
