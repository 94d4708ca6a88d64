package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/stealthai/internal/model"
)

func TestStore_GetSet(t *testing.T) {
	t.Parallel()

	s := NewStore(model.NewWorldState(fact(model.KeyIsAlert, false)))

	v, err := s.Get(model.KeyIsAlert)
	require.NoError(t, err)
	assert.Equal(t, model.False, v)

	_, err = s.Get(model.KeyHeardSound)
	require.ErrorIs(t, err, ErrUndefinedKey)

	assert.True(t, s.Set(model.KeyIsAlert, model.True), "value changed")
	assert.False(t, s.Set(model.KeyIsAlert, model.True), "same value")
	assert.True(t, s.Set(model.KeyHeardSound, model.False), "initialization counts as change")
	assert.True(t, s.Defined(model.KeyHeardSound))
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	t.Parallel()

	s := NewStore(model.NewWorldState(fact(model.KeyIsAlert, false)))
	snap := s.Snapshot()
	s.Set(model.KeyIsAlert, model.True)

	assert.Equal(t, model.False, snap.Get(model.KeyIsAlert))
	assert.Equal(t, model.True, s.Snapshot().Get(model.KeyIsAlert))
}

func TestStore_Validate(t *testing.T) {
	t.Parallel()

	s := NewStore(model.NewWorldState(fact(model.KeyIsAlert, false)))
	required := model.KeySet(0).Add(model.KeyIsAlert)
	require.NoError(t, s.Validate(required))

	err := s.Validate(required.Add(model.KeyIsPanicked))
	require.ErrorIs(t, err, ErrUndefinedKey)
	assert.Contains(t, err.Error(), "IsPanicked")
}
