package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/scantrack/internal/config"
	"github.com/banshee-data/scantrack/internal/ingest"
	"github.com/banshee-data/scantrack/internal/monitoring"
	"github.com/banshee-data/scantrack/internal/trackdb"
	"github.com/banshee-data/scantrack/internal/tracking"
	"github.com/banshee-data/scantrack/internal/units"
)

// traceCollector forwards association telemetry to the trace stream.
type traceCollector struct{}

func (traceCollector) IsEnabled() bool { return monitoring.TraceEnabled() }

func (traceCollector) RecordAssociation(id tracking.TrackID, detection int, score float64, accepted bool) {
	monitoring.Tracef("pair track=%d det=%d score=%.4f accepted=%t", id, detection, score, accepted)
}

func run(opts options, out, logOut io.Writer) error {
	flush, err := setupLogging(opts.LogFormat, opts.Verbose, opts.Trace, logOut)
	if err != nil {
		return err
	}
	defer flush()

	if opts.InputPath == "" {
		return errors.New("-input is required")
	}
	speedUnit, err := units.ParseSpeedUnit(opts.SpeedUnits)
	if err != nil {
		return err
	}

	tuning := config.EmptyTrackerTuning()
	if opts.ConfigPath != "" {
		if tuning, err = config.LoadTrackerTuning(opts.ConfigPath); err != nil {
			return err
		}
	}
	cfg := tracking.ConfigFromTuning(tuning)

	dets, readStats, err := ingest.ReadDetectionsFile(opts.InputPath)
	if err != nil {
		return err
	}
	monitoring.Opsf("read %d detections from %s (%d malformed rows skipped)",
		readStats.Detections, opts.InputPath, readStats.Malformed)

	tracker, err := tracking.NewTracker(cfg)
	if err != nil {
		return err
	}
	if opts.Trace {
		tracker.SetDebugCollector(traceCollector{})
	}

	var (
		archive *trackdb.DB
		runID   string
		saveErr error
	)
	if opts.DBPath != "" {
		if archive, err = trackdb.Open(opts.DBPath); err != nil {
			return err
		}
		defer archive.Close()
		if runID, err = archive.StartRun(cfg); err != nil {
			return err
		}
		monitoring.Opsf("archiving run %s to %s", runID, opts.DBPath)

		tracker.OnTerminate(func(t *tracking.Track) {
			if err := archive.SaveTrack(runID, t, true); err != nil {
				monitoring.Opsf("failed to archive track %d: %v", t.ID, err)
				saveErr = errors.Join(saveErr, err)
			}
		})
	}

	results, err := tracker.Run(dets)
	if err != nil {
		return fmt.Errorf("tracking aborted: %w", err)
	}

	if archive != nil {
		for _, t := range tracker.Tracks() {
			if err := archive.SaveTrack(runID, t, false); err != nil {
				saveErr = errors.Join(saveErr, err)
			}
		}
		if err := archive.FinishRun(runID, tracker.Stats()); err != nil {
			saveErr = errors.Join(saveErr, err)
		}
	}

	stats := tracker.Stats()
	live, firm := tracker.TrackCount()
	monitoring.Opsf("processed %d batches: %d tracks created, %d terminated, %d live (%d firm), %d detections dropped",
		len(results), stats.TracksCreated, stats.TracksTerminated, live, firm, stats.Dropped)

	writeReport(out, tracker.Tracks(), stats, speedUnit)

	if saveErr != nil {
		return fmt.Errorf("track archive incomplete: %w", saveErr)
	}
	return nil
}
