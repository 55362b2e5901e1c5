package sedes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pointSchema(t *testing.T) *Schema {
	t.Helper()
	return MustSchema("Point", Fields{
		{Name: "x", Sedes: Uint64{}},
		{Name: "y", Sedes: Uint64{}},
	})
}

func TestChangesetIsolation(t *testing.T) {
	s := pointSchema(t)
	r := s.MustNew(uint64(1), uint64(2))

	cs, err := r.BuildChangeset(map[string]any{"x": uint64(10)})
	require.NoError(t, err)
	require.NoError(t, cs.Open())

	// staged value is visible through the changeset only
	x, err := cs.Get("x")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), x)
	orig, _ := r.Get("x")
	assert.Equal(t, uint64(1), orig)

	// unstaged fields fall through to the original
	y, err := cs.Get("y")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), y)

	require.NoError(t, cs.Set("y", uint64(20)))
	edited, err := cs.Commit()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), edited.At(0))
	assert.Equal(t, uint64(20), edited.At(1))

	// the original never moved
	assert.Equal(t, uint64(1), r.At(0))
	assert.Equal(t, uint64(2), r.At(1))

	// any access after commit fails
	_, err = cs.Get("x")
	assert.ErrorIs(t, err, ErrChangeset)
	assert.ErrorIs(t, cs.Set("x", uint64(0)), ErrChangeset)
}

func TestChangesetStateMachine(t *testing.T) {
	s := pointSchema(t)
	r := s.MustNew(uint64(1), uint64(2))

	cs, err := r.BuildChangeset(nil)
	require.NoError(t, err)

	// not yet open: no access, no commit, no close
	_, err = cs.Get("x")
	assert.ErrorIs(t, err, ErrChangeset)
	_, err = cs.Commit()
	assert.ErrorIs(t, err, ErrChangeset)
	assert.ErrorIs(t, cs.Close(), ErrChangeset)

	require.NoError(t, cs.Open())
	assert.ErrorIs(t, cs.Open(), ErrChangeset, "no reopening")

	require.NoError(t, cs.Close())
	assert.ErrorIs(t, cs.Open(), ErrChangeset, "closed is terminal")
	_, err = cs.Commit()
	assert.ErrorIs(t, err, ErrChangeset)
}

func TestChangesetUnknownField(t *testing.T) {
	s := pointSchema(t)
	r := s.MustNew(uint64(1), uint64(2))

	_, err := r.BuildChangeset(map[string]any{"z": 1})
	assert.Error(t, err)

	cs, err := r.BuildChangeset(nil)
	require.NoError(t, err)
	require.NoError(t, cs.Open())
	assert.Error(t, cs.Set("z", 1))
}

func TestChangesetApply(t *testing.T) {
	s := pointSchema(t)
	r := s.MustNew(uint64(1), uint64(2))

	edited, err := r.Apply(func(cs *Changeset) error {
		return cs.Set("x", uint64(5))
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), edited.At(0))
	assert.Equal(t, uint64(2), edited.At(1))
	assert.Equal(t, uint64(1), r.At(0))

	// an fn error discards the edits and commits nothing
	boom := errors.New("boom")
	_, err = r.Apply(func(cs *Changeset) error {
		if err := cs.Set("x", uint64(9)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
