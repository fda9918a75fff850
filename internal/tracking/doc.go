// Package tracking is the track-while-scan core.
//
// Responsibilities: grouping time-sorted detections into scan batches,
// gating and associating detections with live tracks (nearest-range
// correlation for single-detection batches, clustered joint association for
// larger ones), constant-velocity Kalman filtering, track id allocation and
// the hit/miss confirmation state machine.
// Key types: Detection, ScanBatch, Filter, Registry, Track, Tracker.
//
// Processing is sequential: one batch is committed to the registry and the
// live track set before the next one starts. I/O (reading detections,
// archiving tracks) lives in the ingest and trackdb packages.
package tracking
