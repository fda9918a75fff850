package tracking

import "sync"

// DebugCollector receives association internals for offline inspection.
// Score is the Euclidean distance for nearest-range correlation and the
// squared Mahalanobis distance for joint association.
type DebugCollector interface {
	IsEnabled() bool
	RecordAssociation(trackID TrackID, detection int, score float64, accepted bool)
}

// PairRecord is one evaluated (track, detection) pair.
type PairRecord struct {
	TrackID   TrackID
	Detection int
	Score     float64
	Accepted  bool
}

// RecordingCollector keeps every evaluated pair in memory.
type RecordingCollector struct {
	mu      sync.Mutex
	enabled bool
	pairs   []PairRecord
}

// NewRecordingCollector returns an enabled collector.
func NewRecordingCollector() *RecordingCollector {
	return &RecordingCollector{enabled: true}
}

// SetEnabled toggles recording.
func (c *RecordingCollector) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// IsEnabled implements DebugCollector.
func (c *RecordingCollector) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// RecordAssociation implements DebugCollector.
func (c *RecordingCollector) RecordAssociation(trackID TrackID, detection int, score float64, accepted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pairs = append(c.pairs, PairRecord{TrackID: trackID, Detection: detection, Score: score, Accepted: accepted})
}

// Pairs returns and clears the recorded pairs.
func (c *RecordingCollector) Pairs() []PairRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.pairs
	c.pairs = nil
	return out
}
