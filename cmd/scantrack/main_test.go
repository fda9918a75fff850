package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scantrack/internal/monitoring"
	"github.com/banshee-data/scantrack/internal/testutil"
	"github.com/banshee-data/scantrack/internal/trackdb"
)

// The monitoring streams are process-wide, so these tests run serially and
// restore quiet defaults when done.
func resetLogging(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { monitoring.SetLogWriters(monitoring.LogWriters{}) })
}

func twoTargetFixture(t *testing.T, dir string) string {
	t.Helper()
	rows := testutil.ConstantVelocityRows([3]float64{0, 1000, 0}, [3]float64{10, 0, 0}, 0, 1, 5, 4)
	rows = append(rows, testutil.ConstantVelocityRows([3]float64{500, 2000, 0}, [3]float64{0, -10, 0}, 0, 1, 5, -4)...)
	// Interleave by time; ingestion sorts stably either way.
	return testutil.WriteDetectionsCSV(t, dir, "two_targets.csv", rows)
}

func TestRun_TwoTargetsWithArchive(t *testing.T) {
	resetLogging(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tracks.db")

	var out, logs bytes.Buffer
	err := run(options{
		InputPath:  twoTargetFixture(t, dir),
		DBPath:     dbPath,
		LogFormat:  logFormatText,
		SpeedUnits: "kph",
	}, &out, &logs)
	require.NoError(t, err)

	report := out.String()
	assert.Equal(t, 2, strings.Count(report, "Firm"), report)
	assert.Contains(t, report, "SPEED (kph)")
	assert.Contains(t, report, "batches=5 detections=10 created=2 terminated=0 firm=2")
	assert.Contains(t, logs.String(), "read 10 detections")

	archive, err := trackdb.Open(dbPath)
	require.NoError(t, err)
	defer archive.Close()

	var runID string
	require.NoError(t, archive.QueryRow(`SELECT run_id FROM runs`).Scan(&runID))
	run, err := archive.GetRun(runID)
	require.NoError(t, err)
	require.NotNil(t, run.FinishedAt)
	assert.Equal(t, 2, run.Stats.TracksCreated)

	tracks, err := archive.ListTracks(runID)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	for _, tr := range tracks {
		assert.Equal(t, 5, tr.HitCount)
		assert.False(t, tr.Terminated)
	}

	history, err := archive.TrackHistory(runID, tracks[0].TrackID)
	require.NoError(t, err)
	assert.Len(t, history, 5)
}

func TestRun_ArchivesTerminatedTracks(t *testing.T) {
	resetLogging(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tracks.db")

	rows := []string{testutil.DetectionRow(0, 1000, 0, 0, 0)}
	rows = append(rows, testutil.ConstantVelocityRows([3]float64{0, 5000, 0}, [3]float64{0, 0, 0}, 1, 1, 4, 0)...)
	input := testutil.WriteDetectionsCSV(t, dir, "fading.csv", rows)

	var out, logs bytes.Buffer
	require.NoError(t, run(options{InputPath: input, DBPath: dbPath, LogFormat: logFormatText, SpeedUnits: "mps"}, &out, &logs))
	assert.Contains(t, out.String(), "terminated=1")

	archive, err := trackdb.Open(dbPath)
	require.NoError(t, err)
	defer archive.Close()

	var runID string
	require.NoError(t, archive.QueryRow(`SELECT run_id FROM runs`).Scan(&runID))
	tracks, err := archive.ListTracks(runID)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.True(t, tracks[0].Terminated)
	assert.Equal(t, 4, tracks[0].MissCount)
	assert.False(t, tracks[1].Terminated)
}

func TestRun_JSONLogging(t *testing.T) {
	resetLogging(t)
	dir := t.TempDir()

	var out, logs bytes.Buffer
	err := run(options{
		InputPath:  twoTargetFixture(t, dir),
		LogFormat:  logFormatJSON,
		Verbose:    true,
		SpeedUnits: "mps",
	}, &out, &logs)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.NotEmpty(t, lines)
	loggers := make(map[string]bool)
	for _, line := range lines {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		if name, ok := entry["logger"].(string); ok {
			loggers[name] = true
		}
	}
	assert.True(t, loggers["ops"])
	assert.True(t, loggers["diag"], "verbose enables per-batch diagnostics")
}

func TestRun_TraceLogsPairs(t *testing.T) {
	resetLogging(t)
	dir := t.TempDir()

	var out, logs bytes.Buffer
	require.NoError(t, run(options{
		InputPath:  twoTargetFixture(t, dir),
		LogFormat:  logFormatText,
		Trace:      true,
		SpeedUnits: "mps",
	}, &out, &logs))
	assert.Contains(t, logs.String(), "pair track=1 det=")
}

func TestRun_WithConfigFile(t *testing.T) {
	resetLogging(t)
	dir := t.TempDir()

	var out, logs bytes.Buffer
	err := run(options{
		InputPath:  twoTargetFixture(t, dir),
		ConfigPath: filepath.Join("..", "..", "config", "tracker.defaults.json"),
		LogFormat:  logFormatText,
		SpeedUnits: "mps",
	}, &out, &logs)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "created=2")
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteDetectionsCSV(t, dir, "one.csv", []string{testutil.DetectionRow(0, 1000, 0, 0, 0)})

	tests := []struct {
		name    string
		opts    options
		wantErr string
	}{
		{
			name:    "missing input",
			opts:    options{LogFormat: logFormatText, SpeedUnits: "mps"},
			wantErr: "-input is required",
		},
		{
			name:    "unknown log format",
			opts:    options{InputPath: input, LogFormat: "xml", SpeedUnits: "mps"},
			wantErr: "unknown log format",
		},
		{
			name:    "bad speed unit",
			opts:    options{InputPath: input, LogFormat: logFormatText, SpeedUnits: "knots"},
			wantErr: "invalid speed unit",
		},
		{
			name:    "config without json extension",
			opts:    options{InputPath: input, ConfigPath: filepath.Join(dir, "tuning.yaml"), LogFormat: logFormatText, SpeedUnits: "mps"},
			wantErr: ".json",
		},
		{
			name:    "input does not exist",
			opts:    options{InputPath: filepath.Join(dir, "absent.csv"), LogFormat: logFormatText, SpeedUnits: "mps"},
			wantErr: "failed to open detections file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetLogging(t)
			var out, logs bytes.Buffer
			err := run(tt.opts, &out, &logs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
