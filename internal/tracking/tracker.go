package tracking

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/banshee-data/scantrack/internal/monitoring"
)

// BatchResult summarises what one batch did to the track population.
type BatchResult struct {
	Index      int
	Time       float64
	Detections int
	Joint      bool // true when the joint association path ran
	Clusters   int

	Hits       []TrackID
	Misses     []TrackID
	Singular   []TrackID // hits turned into misses by a singular update
	Created    []TrackID
	Terminated []TrackID
	Dropped    int // detections lost to an exhausted registry
}

// Stats are running totals over the session.
type Stats struct {
	Batches          int
	Detections       int
	TracksCreated    int
	TracksTerminated int
	TracksFirm       int
	Dropped          int
	SingularUpdates  int
}

// Tracker is one tracking session. It owns the id registry and the live
// track set; batches must be fed in time order.
type Tracker struct {
	Config Config

	registry  *Registry
	lifecycle *Lifecycle
	batcher   *Batcher
	single    *RangeCorrelator
	joint     *JointAssociator
	tracks    map[TrackID]*Track

	onTerminate func(*Track)
	stats       Stats

	mu sync.RWMutex
}

// NewTracker creates a session with an empty registry of cfg.MaxTracks ids.
func NewTracker(cfg Config) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracker config: %w", err)
	}

	registry := NewRegistry(cfg.MaxTracks)
	lifecycle, err := NewLifecycle(cfg.Mode, cfg.MaxMisses, registry, cfg.Filter)
	if err != nil {
		return nil, err
	}

	return &Tracker{
		Config:    cfg,
		registry:  registry,
		lifecycle: lifecycle,
		batcher:   NewBatcher(cfg.MaxTimeDiff, cfg.BatchMode),
		single:    &RangeCorrelator{RangeThreshold: cfg.RangeThreshold},
		joint: &JointAssociator{
			Gate:             ChiSquareGate(cfg.Chi2Significance, PositionDOF),
			DopplerThreshold: cfg.DopplerThreshold,
		},
		tracks: make(map[TrackID]*Track),
	}, nil
}

// SetDebugCollector attaches (or with nil, detaches) association
// instrumentation.
func (t *Tracker) SetDebugCollector(c DebugCollector) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.single.Debug = c
	t.joint.Debug = c
}

// OnTerminate registers a callback invoked with each track as it is
// removed from the live set. The id has already been released.
func (t *Tracker) OnTerminate(fn func(*Track)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTerminate = fn
}

// Gate returns the squared Mahalanobis gate in use.
func (t *Tracker) Gate() float64 { return t.joint.Gate }

// Registry exposes the id pool for inspection.
func (t *Tracker) Registry() *Registry { return t.registry }

// Run batches dets and processes every batch in order. Unsorted input is
// rejected before any track is touched.
func (t *Tracker) Run(dets []Detection) ([]BatchResult, error) {
	batches, err := t.batcher.Batch(dets)
	if err != nil {
		return nil, err
	}
	results := make([]BatchResult, 0, len(batches))
	for _, b := range batches {
		results = append(results, t.ProcessBatch(b))
	}
	return results, nil
}

// ProcessBatch associates one batch with the live tracks, applies hits and
// misses, and spawns tracks for unassigned detections.
func (t *Tracker) ProcessBatch(batch ScanBatch) BatchResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := BatchResult{
		Index:      batch.Index,
		Time:       batch.Time,
		Detections: len(batch.Detections),
	}
	if len(batch.Detections) == 0 {
		return result
	}

	tracks := t.sortedTracksLocked()

	var assoc Associator = t.single
	if len(batch.Detections) > 1 {
		result.Joint = true
		assoc = t.joint
		for _, track := range tracks {
			track.Filter.Predict(batch.Time)
		}
	}

	assignments := assoc.Assign(assoc.Candidates(tracks, batch.Detections))
	if result.Joint {
		result.Clusters = t.joint.LastClusterCount()
	}

	assignedTrack := make(map[TrackID]int, len(assignments))
	assignedDet := make([]bool, len(batch.Detections))
	for _, a := range assignments {
		assignedTrack[a.Track.ID] = a.Detection
		assignedDet[a.Detection] = true
	}

	for _, track := range tracks {
		var outcome Outcome
		if di, ok := assignedTrack[track.ID]; ok {
			var err error
			wasFirm := track.IsFirm()
			outcome, err = t.lifecycle.Hit(track, batch.Detections[di], batch.Time)
			if errors.Is(err, ErrSingularCovariance) {
				result.Singular = append(result.Singular, track.ID)
				t.stats.SingularUpdates++
			}
			if outcome == OutcomeHit && !wasFirm && track.IsFirm() {
				t.stats.TracksFirm++
			}
		} else {
			outcome = t.lifecycle.Miss(track, batch.Time)
		}

		switch outcome {
		case OutcomeHit:
			result.Hits = append(result.Hits, track.ID)
		case OutcomeMiss:
			result.Misses = append(result.Misses, track.ID)
		case OutcomeTerminated:
			result.Misses = append(result.Misses, track.ID)
			result.Terminated = append(result.Terminated, track.ID)
			t.terminateLocked(track)
		}
	}

	for di, det := range batch.Detections {
		if assignedDet[di] {
			continue
		}
		track, err := t.lifecycle.Spawn(det)
		if err != nil {
			if errors.Is(err, ErrExhausted) {
				result.Dropped++
				t.stats.Dropped++
				monitoring.Opsf("batch %d: dropped detection %d (%s): %v", batch.Index, di, det, err)
				continue
			}
			monitoring.Opsf("batch %d: failed to spawn track: %v", batch.Index, err)
			continue
		}
		t.tracks[track.ID] = track
		t.stats.TracksCreated++
		if track.IsFirm() {
			t.stats.TracksFirm++
		}
		result.Created = append(result.Created, track.ID)
	}

	t.stats.Batches++
	t.stats.Detections += len(batch.Detections)

	monitoring.Diagf("batch %d t=%.3f dets=%d joint=%t clusters=%d hits=%d misses=%d created=%d terminated=%d dropped=%d live=%d",
		result.Index, result.Time, result.Detections, result.Joint, result.Clusters,
		len(result.Hits), len(result.Misses), len(result.Created), len(result.Terminated), result.Dropped, len(t.tracks))

	return result
}

func (t *Tracker) terminateLocked(track *Track) {
	delete(t.tracks, track.ID)
	t.stats.TracksTerminated++
	if t.onTerminate != nil {
		t.onTerminate(track)
	}
}

func (t *Tracker) sortedTracksLocked() []*Track {
	out := make([]*Track, 0, len(t.tracks))
	for _, track := range t.tracks {
		out = append(out, track)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Tracks returns the live tracks in ascending id order. The tracks are
// shared with the session: treat them as read-only and do not hold them
// across ProcessBatch calls.
func (t *Tracker) Tracks() []*Track {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sortedTracksLocked()
}

// Track returns the live track with id, or nil.
func (t *Tracker) Track(id TrackID) *Track {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracks[id]
}

// TrackCount returns the number of live tracks and how many of them are firm.
func (t *Tracker) TrackCount() (live, firm int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, track := range t.tracks {
		if track.IsFirm() {
			firm++
		}
	}
	return len(t.tracks), firm
}

// Stats returns the running totals.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}
