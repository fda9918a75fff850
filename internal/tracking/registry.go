package tracking

import "fmt"

// TrackID is the externally visible identity of a track. Valid ids start at 1.
type TrackID int

// Registry is a fixed-capacity pool of track ids. It bounds the number of
// simultaneously live tracks. Ids are 1..capacity and an id is handed out
// again only after Release.
type Registry struct {
	occupied []bool
	inUse    int
}

// NewRegistry creates a registry with every id free. Capacity below 1 is
// raised to 1.
func NewRegistry(capacity int) *Registry {
	if capacity < 1 {
		capacity = 1
	}
	return &Registry{occupied: make([]bool, capacity)}
}

// Allocate marks the lowest free id occupied and returns it.
// Returns ErrExhausted when no id is free; the caller must not spawn a track.
func (r *Registry) Allocate() (TrackID, error) {
	for i, used := range r.occupied {
		if !used {
			r.occupied[i] = true
			r.inUse++
			return TrackID(i + 1), nil
		}
	}
	return 0, ErrExhausted
}

// Release returns id to the pool. Releasing an id that is not occupied is a
// programming error and panics.
func (r *Registry) Release(id TrackID) {
	if !r.IsOccupied(id) {
		panic(fmt.Sprintf("tracking: release of track id %d which is not occupied", id))
	}
	r.occupied[id-1] = false
	r.inUse--
}

// IsOccupied reports whether id is currently held by a live track.
func (r *Registry) IsOccupied(id TrackID) bool {
	if id < 1 || int(id) > len(r.occupied) {
		return false
	}
	return r.occupied[id-1]
}

// Capacity returns the fixed number of ids.
func (r *Registry) Capacity() int { return len(r.occupied) }

// InUse returns the number of occupied ids.
func (r *Registry) InUse() int { return r.inUse }

// Free returns the number of ids available to Allocate.
func (r *Registry) Free() int { return len(r.occupied) - r.inUse }
