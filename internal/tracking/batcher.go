package tracking

import "fmt"

// DefaultMaxTimeDiff is the default batching window in seconds.
const DefaultMaxTimeDiff = 0.050

// BatchMode selects how the batching window is measured.
type BatchMode int

const (
	// BatchByGap starts a new batch when the gap to the previous detection
	// exceeds the window.
	BatchByGap BatchMode = iota
	// BatchByWindow starts a new batch when a detection is more than the
	// window after the first detection of the current batch, so every
	// batch spans at most one window.
	BatchByWindow
)

func (m BatchMode) String() string {
	switch m {
	case BatchByGap:
		return "gap"
	case BatchByWindow:
		return "window"
	default:
		return fmt.Sprintf("BatchMode(%d)", int(m))
	}
}

// Batcher partitions time-sorted detections into scan batches. It holds no
// state between calls.
type Batcher struct {
	MaxTimeDiff float64
	Mode        BatchMode
}

// NewBatcher creates a batcher. A negative window is treated as zero.
func NewBatcher(maxTimeDiff float64, mode BatchMode) *Batcher {
	if maxTimeDiff < 0 {
		maxTimeDiff = 0
	}
	return &Batcher{MaxTimeDiff: maxTimeDiff, Mode: mode}
}

// Batch groups dets into batches in a single pass. Input must already be
// sorted by time; a decreasing timestamp returns ErrUnsortedInput and no
// batches. Empty input yields no batches.
func (b *Batcher) Batch(dets []Detection) ([]ScanBatch, error) {
	if len(dets) == 0 {
		return nil, nil
	}

	var batches []ScanBatch
	current := []Detection{dets[0]}
	anchor := dets[0].Time

	flush := func() {
		batches = append(batches, ScanBatch{
			Index:      len(batches),
			Time:       current[len(current)-1].Time,
			Detections: current,
		})
	}

	for i := 1; i < len(dets); i++ {
		prev, d := dets[i-1], dets[i]
		if d.Time < prev.Time {
			return nil, fmt.Errorf("detection %d at t=%.6f precedes detection %d at t=%.6f: %w",
				i, d.Time, i-1, prev.Time, ErrUnsortedInput)
		}

		ref := prev.Time
		if b.Mode == BatchByWindow {
			ref = anchor
		}
		if d.Time-ref > b.MaxTimeDiff {
			flush()
			current = []Detection{d}
			anchor = d.Time
			continue
		}
		current = append(current, d)
	}
	flush()

	return batches, nil
}
