package trackdb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/scantrack/internal/tracking"
)

// Run is one archived tracking session.
type Run struct {
	RunID      string `json:"run_id"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt *int64 `json:"finished_at,omitempty"`
	ConfigJSON string `json:"config_json"`

	Stats tracking.Stats `json:"stats"`
}

// ErrRunNotFound is returned when a run id is not in the archive.
var ErrRunNotFound = errors.New("run not found")

// StartRun records a new run with the session configuration and returns
// its id.
func (db *DB) StartRun(cfg tracking.Config) (string, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal run config: %w", err)
	}

	runID := uuid.New().String()
	_, err = db.Exec(`
		INSERT INTO runs (run_id, started_at, config_json)
		VALUES (?, ?, ?)
	`, runID, time.Now().UnixNano(), string(cfgJSON))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return runID, nil
}

// FinishRun stamps the run's end time and final totals.
func (db *DB) FinishRun(runID string, stats tracking.Stats) error {
	result, err := db.Exec(`
		UPDATE runs SET
			finished_at = ?,
			batches = ?,
			detections = ?,
			tracks_created = ?,
			tracks_terminated = ?,
			tracks_firm = ?,
			dropped = ?,
			singular_updates = ?
		WHERE run_id = ?
	`,
		time.Now().UnixNano(),
		stats.Batches,
		stats.Detections,
		stats.TracksCreated,
		stats.TracksTerminated,
		stats.TracksFirm,
		stats.Dropped,
		stats.SingularUpdates,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// GetRun loads a run by id.
func (db *DB) GetRun(runID string) (*Run, error) {
	r := &Run{}
	var finishedAt sql.NullInt64
	err := db.QueryRow(`
		SELECT run_id, started_at, finished_at, config_json,
		       batches, detections, tracks_created, tracks_terminated,
		       tracks_firm, dropped, singular_updates
		FROM runs
		WHERE run_id = ?
	`, runID).Scan(
		&r.RunID, &r.StartedAt, &finishedAt, &r.ConfigJSON,
		&r.Stats.Batches, &r.Stats.Detections, &r.Stats.TracksCreated, &r.Stats.TracksTerminated,
		&r.Stats.TracksFirm, &r.Stats.Dropped, &r.Stats.SingularUpdates,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if finishedAt.Valid {
		r.FinishedAt = &finishedAt.Int64
	}
	return r, nil
}
