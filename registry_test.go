package sedes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry(nil)
	s := MustSchema("Tx", Fields{{Name: "nonce", Sedes: Uint64{}}})

	require.NoError(t, reg.Register(s))
	got, ok := reg.Lookup("Tx")
	assert.True(t, ok)
	assert.Same(t, s, got)

	_, ok = reg.Lookup("Nope")
	assert.False(t, ok)

	dup := MustSchema("Tx", Fields{{Name: "nonce", Sedes: Uint64{}}})
	assert.Error(t, reg.Register(dup))

	count := 0
	reg.Range(func(name string, _ *Schema) bool {
		count++
		return true
	})
	assert.Equal(t, 1, count)
}

func TestCachingEncoder(t *testing.T) {
	s := MustSchema("Blob", Fields{{Name: "data", Sedes: NewBinary()}})
	enc, err := NewCachingEncoder(16)
	require.NoError(t, err)

	r := s.MustNew([]byte("payload"))
	direct, err := s.Serialize(r)
	require.NoError(t, err)

	first, err := enc.Serialize(s, r)
	require.NoError(t, err)
	assert.Equal(t, direct, first)
	assert.Equal(t, 1, enc.Len())

	// second call is served from the cache, bytes stay identical and private
	second, err := enc.Serialize(s, r)
	require.NoError(t, err)
	assert.Equal(t, direct, second)
	second[0] ^= 0xff
	third, err := enc.Serialize(s, r)
	require.NoError(t, err)
	assert.Equal(t, direct, third)
}

func TestMetricsCollectors(t *testing.T) {
	assert.Len(t, Metrics(), 2)
}
