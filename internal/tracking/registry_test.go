package tracking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AllocateLowestFree(t *testing.T) {
	t.Parallel()
	r := NewRegistry(3)

	for want := TrackID(1); want <= 3; want++ {
		id, err := r.Allocate()
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
	assert.Equal(t, 3, r.InUse())
	assert.Equal(t, 0, r.Free())

	_, err := r.Allocate()
	assert.True(t, errors.Is(err, ErrExhausted), "expected ErrExhausted, got %v", err)
}

func TestRegistry_ReleaseMakesIDReusable(t *testing.T) {
	t.Parallel()
	r := NewRegistry(3)
	for i := 0; i < 3; i++ {
		_, err := r.Allocate()
		require.NoError(t, err)
	}

	r.Release(2)
	assert.False(t, r.IsOccupied(2))
	assert.Equal(t, 1, r.Free())

	id, err := r.Allocate()
	require.NoError(t, err)
	assert.Equal(t, TrackID(2), id, "released id should be handed out again")

	_, err = r.Allocate()
	assert.ErrorIs(t, err, ErrExhausted, "a released id is only reused once")
}

func TestRegistry_ReleaseUnoccupiedPanics(t *testing.T) {
	t.Parallel()
	r := NewRegistry(2)

	assert.Panics(t, func() { r.Release(1) }, "release of a free id")
	assert.Panics(t, func() { r.Release(0) }, "release of id 0")
	assert.Panics(t, func() { r.Release(3) }, "release past capacity")

	id, err := r.Allocate()
	require.NoError(t, err)
	r.Release(id)
	assert.Panics(t, func() { r.Release(id) }, "double release")
}

func TestRegistry_MinimumCapacity(t *testing.T) {
	t.Parallel()
	r := NewRegistry(0)
	assert.Equal(t, 1, r.Capacity())
}

func TestRegistry_NoDuplicateLiveIDs(t *testing.T) {
	t.Parallel()
	r := NewRegistry(5)
	live := make(map[TrackID]bool)

	// Interleave allocations and releases; a live id must never be handed
	// out twice.
	for round := 0; round < 20; round++ {
		id, err := r.Allocate()
		if err == nil {
			require.False(t, live[id], "id %d allocated while live", id)
			live[id] = true
		}
		if round%3 == 2 {
			for victim := range live {
				r.Release(victim)
				delete(live, victim)
				break
			}
		}
	}
	assert.Equal(t, len(live), r.InUse())
}
