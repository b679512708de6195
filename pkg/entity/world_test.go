package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/spawnpool/pkg/errors"
	"github.com/ajitpratap0/spawnpool/pkg/pool"
)

func TestWorld_Spawn(t *testing.T) {
	w := NewWorld("character")
	at := pool.Transform{Location: pool.Vector{X: 1, Y: 2, Z: 3}}

	a, err := w.Spawn("character", at)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), a.ID())
	assert.Equal(t, pool.Class("character"), a.Class())
	assert.Equal(t, at, a.Transform())
	assert.True(t, a.Active())
	assert.False(t, a.Destroyed())

	b, err := w.Spawn("character", at)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, uint64(2), w.Spawned())
	assert.Equal(t, uint64(2), w.Alive())
}

func TestWorld_UnknownClass(t *testing.T) {
	w := NewWorld()
	a, err := w.Spawn("ghost", pool.Transform{})
	require.Error(t, err)
	assert.Nil(t, a)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	assert.Equal(t, uint64(1), w.SpawnCalls())
	assert.Equal(t, uint64(0), w.Spawned())

	w.Register("ghost")
	assert.True(t, w.Registered("ghost"))
	_, err = w.Spawn("ghost", pool.Transform{})
	assert.NoError(t, err)
}

func TestWorld_RegisterIgnoresInvalidClass(t *testing.T) {
	w := NewWorld("")
	assert.False(t, w.Registered(""))
}

func TestWorld_FailEvery(t *testing.T) {
	w := NewWorld("character")
	w.FailEvery(3)

	failures := 0
	for i := 0; i < 9; i++ {
		if _, err := w.Spawn("character", pool.Transform{}); err != nil {
			assert.True(t, errors.IsType(err, errors.ErrorTypeSpawn))
			failures++
		}
	}
	assert.Equal(t, 3, failures)
	assert.Equal(t, uint64(6), w.Spawned())

	w.FailEvery(0)
	_, err := w.Spawn("character", pool.Transform{})
	assert.NoError(t, err)
}

func TestActor_Lifecycle(t *testing.T) {
	w := NewWorld("character")
	a, err := w.Spawn("character", pool.Transform{})
	require.NoError(t, err)

	a.Deactivate()
	assert.False(t, a.Active())

	a.SetLocation(pool.Vector{X: 5})
	a.Activate()
	assert.True(t, a.Active())
	assert.Equal(t, pool.Vector{X: 5}, a.Location())
	assert.Equal(t, 1, a.Activations())

	a.Destroy()
	a.Destroy()
	assert.True(t, a.Destroyed())
	assert.False(t, a.Active())
	assert.Equal(t, uint64(1), w.Destroyed())
	assert.Equal(t, uint64(0), w.Alive())

	a.Activate()
	assert.False(t, a.Active())
}
