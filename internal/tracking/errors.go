package tracking

import "errors"

var (
	// ErrExhausted is returned by Registry.Allocate when every id is in use.
	// The detection that asked for a track is dropped.
	ErrExhausted = errors.New("track id registry exhausted")

	// ErrSingularCovariance is returned by Filter.Update when the innovation
	// covariance cannot be inverted. The track's update is skipped and the
	// batch counts as a miss for it.
	ErrSingularCovariance = errors.New("singular innovation covariance")

	// ErrUnsortedInput is returned by Batcher.Batch when detections are not
	// in non-decreasing time order. It is fatal: tracking must not start.
	ErrUnsortedInput = errors.New("detections are not sorted by time")

	// ErrInvalidMode is returned for a confirmation mode other than 3, 5 or 7.
	ErrInvalidMode = errors.New("invalid confirmation mode")
)
