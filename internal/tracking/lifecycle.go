package tracking

import (
	"errors"
	"fmt"

	"github.com/banshee-data/scantrack/internal/monitoring"
)

// ConfirmationState is a step in a track's confirmation progression.
type ConfirmationState string

const (
	Poss1      ConfirmationState = "Poss1"
	Poss2      ConfirmationState = "Poss2"
	Tentative1 ConfirmationState = "Tentative1"
	Tentative2 ConfirmationState = "Tentative2"
	Tentative3 ConfirmationState = "Tentative3"
	Firm       ConfirmationState = "Firm"
)

// ConfirmationMode selects the length of the progression.
type ConfirmationMode int

const (
	ThreeState ConfirmationMode = 3
	FiveState  ConfirmationMode = 5
	SevenState ConfirmationMode = 7
)

func (m ConfirmationMode) String() string {
	return fmt.Sprintf("%d-state", int(m))
}

// Progression returns the ordered states for mode. The slice is a fresh
// copy; callers may keep it.
func Progression(mode ConfirmationMode) ([]ConfirmationState, error) {
	switch mode {
	case ThreeState:
		return []ConfirmationState{Poss1, Tentative1, Firm}, nil
	case FiveState:
		return []ConfirmationState{Poss1, Poss2, Tentative1, Tentative2, Firm}, nil
	case SevenState:
		return []ConfirmationState{Poss1, Poss2, Tentative1, Tentative2, Tentative3, Firm}, nil
	default:
		return nil, fmt.Errorf("%w: %d (want 3, 5 or 7)", ErrInvalidMode, int(mode))
	}
}

// Outcome is what a batch did to a track.
type Outcome int

const (
	OutcomeHit Outcome = iota
	OutcomeMiss
	OutcomeTerminated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeMiss:
		return "miss"
	case OutcomeTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Track is a live target. ID is drawn from the Registry and is never shared
// with another live track. History is append-only.
type Track struct {
	ID        TrackID
	State     ConfirmationState
	Filter    *Filter
	HitCount  int // cumulative, drives promotion
	MissCount int // consecutive, reset on every hit
	History   []HistoryEntry

	LastDoppler float64
	FirstTime   float64
	LastTime    float64 // time of the last hit

	stage   int    // index of State in the progression
	created uint64 // spawn order within the session
}

// IsFirm reports whether the track completed its progression.
func (t *Track) IsFirm() bool { return t.State == Firm }

// Lifecycle applies the hit/miss state machine and owns id allocation and
// release through the Registry.
type Lifecycle struct {
	progression []ConfirmationState
	maxMisses   int
	registry    *Registry
	filterCfg   FilterConfig
	spawned     uint64
}

// NewLifecycle resolves the progression for mode once.
func NewLifecycle(mode ConfirmationMode, maxMisses int, registry *Registry, filterCfg FilterConfig) (*Lifecycle, error) {
	progression, err := Progression(mode)
	if err != nil {
		return nil, err
	}
	if maxMisses < 0 {
		maxMisses = 0
	}
	return &Lifecycle{
		progression: progression,
		maxMisses:   maxMisses,
		registry:    registry,
		filterCfg:   filterCfg,
	}, nil
}

// Progression returns the resolved state order.
func (l *Lifecycle) Progression() []ConfirmationState {
	return append([]ConfirmationState(nil), l.progression...)
}

// Spawn allocates an id and starts a track at det with zero velocity.
// Returns ErrExhausted when the registry is full.
func (l *Lifecycle) Spawn(det Detection) (*Track, error) {
	id, err := l.registry.Allocate()
	if err != nil {
		return nil, err
	}

	pos := det.Cartesian()
	filter := NewFilter(l.filterCfg)
	filter.Initialize(pos[0], pos[1], pos[2], 0, 0, 0, det.Time)

	l.spawned++
	track := &Track{
		ID:          id,
		created:     l.spawned,
		State:       l.progression[0],
		Filter:      filter,
		HitCount:    1,
		LastDoppler: det.Doppler,
		FirstTime:   det.Time,
		LastTime:    det.Time,
	}
	track.History = append(track.History, HistoryEntry{Detection: det, State: track.State})
	return track, nil
}

// Hit updates the filter with det at time t and advances the track one
// step per hit, clamped at the last state. A singular innovation covariance
// turns the hit into a miss; the returned error is then
// ErrSingularCovariance and the outcome is that of Miss.
func (l *Lifecycle) Hit(track *Track, det Detection, t float64) (Outcome, error) {
	if err := track.Filter.Update(det.Cartesian(), t); err != nil {
		if errors.Is(err, ErrSingularCovariance) {
			monitoring.Opsf("track %d: update skipped at t=%.3f: %v", track.ID, t, err)
			return l.Miss(track, t), err
		}
		return OutcomeMiss, err
	}

	track.HitCount++
	track.MissCount = 0
	track.LastDoppler = det.Doppler
	track.LastTime = t

	stage := track.HitCount - 1
	if last := len(l.progression) - 1; stage > last {
		stage = last
	}
	if stage > track.stage {
		track.stage = stage
		track.State = l.progression[stage]
		if track.State == Firm {
			monitoring.Diagf("track %d confirmed firm after %d hits", track.ID, track.HitCount)
		}
	}

	track.History = append(track.History, HistoryEntry{Detection: det, State: track.State})
	return OutcomeHit, nil
}

// Miss coasts the filter to t and counts a consecutive miss. Once the count
// exceeds the limit the track's id is released and OutcomeTerminated is
// returned; the caller removes the track from the live set.
func (l *Lifecycle) Miss(track *Track, t float64) Outcome {
	track.Filter.Predict(t)
	track.Filter.Coast()
	track.MissCount++

	if track.MissCount > l.maxMisses {
		l.registry.Release(track.ID)
		monitoring.Diagf("track %d terminated after %d consecutive misses (state %s, %d hits)",
			track.ID, track.MissCount, track.State, track.HitCount)
		return OutcomeTerminated
	}
	return OutcomeMiss
}
