package trackdb

import (
	"database/sql"
	"fmt"

	"github.com/banshee-data/scantrack/internal/tracking"
)

// TrackRecord is the archived summary of one track. Track ids are reused
// within a run once released, so (RunID, TrackID, FirstTime) identifies a
// track.
type TrackRecord struct {
	RunID       string                     `json:"run_id"`
	TrackID     tracking.TrackID           `json:"track_id"`
	FirstTime   float64                    `json:"first_time"`
	LastTime    float64                    `json:"last_time"`
	State       tracking.ConfirmationState `json:"state"`
	HitCount    int                        `json:"hit_count"`
	MissCount   int                        `json:"miss_count"`
	LastDoppler float64                    `json:"last_doppler"`
	Position    [3]float64                 `json:"position"`
	Velocity    [3]float64                 `json:"velocity"`
	Terminated  bool                       `json:"terminated"`
}

// HistoryRecord is one detection assigned to an archived track.
type HistoryRecord struct {
	TrackID        tracking.TrackID           `json:"track_id"`
	TrackFirstTime float64                    `json:"track_first_time"`
	Seq            int                        `json:"seq"`
	Detection      tracking.Detection         `json:"detection"`
	State          tracking.ConfirmationState `json:"state"`
}

// SaveTrack writes track and its history under runID. Saving the same track
// again updates its summary and appends any new history entries.
func (db *DB) SaveTrack(runID string, track *tracking.Track, terminated bool) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin save track: %w", err)
	}
	defer tx.Rollback()

	pos := track.Filter.Position()
	vel := track.Filter.Velocity()

	var key int64
	err = tx.QueryRow(`
		INSERT INTO tracks (
			run_id, track_id, first_time, last_time, state,
			hit_count, miss_count, last_doppler,
			x, y, z, vx, vy, vz, terminated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, track_id, first_time) DO UPDATE SET
			last_time = excluded.last_time,
			state = excluded.state,
			hit_count = excluded.hit_count,
			miss_count = excluded.miss_count,
			last_doppler = excluded.last_doppler,
			x = excluded.x, y = excluded.y, z = excluded.z,
			vx = excluded.vx, vy = excluded.vy, vz = excluded.vz,
			terminated = excluded.terminated
		RETURNING track_key
	`,
		runID, int(track.ID), track.FirstTime, track.LastTime, string(track.State),
		track.HitCount, track.MissCount, track.LastDoppler,
		pos[0], pos[1], pos[2], vel[0], vel[1], vel[2], terminated,
	).Scan(&key)
	if err != nil {
		return fmt.Errorf("upsert track %d: %w", track.ID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO track_history (
			track_key, seq, range_m, azimuth, elevation, time_s, doppler, state
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare history insert: %w", err)
	}
	defer stmt.Close()

	for seq, h := range track.History {
		d := h.Detection
		if _, err := stmt.Exec(key, seq, d.Range, d.Azimuth, d.Elevation, d.Time, d.Doppler, string(h.State)); err != nil {
			return fmt.Errorf("insert history %d of track %d: %w", seq, track.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save track: %w", err)
	}
	return nil
}

// ListTracks returns every track archived for runID ordered by start time
// then id.
func (db *DB) ListTracks(runID string) ([]*TrackRecord, error) {
	rows, err := db.Query(`
		SELECT run_id, track_id, first_time, last_time, state,
		       hit_count, miss_count, last_doppler,
		       x, y, z, vx, vy, vz, terminated
		FROM tracks
		WHERE run_id = ?
		ORDER BY first_time, track_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	var out []*TrackRecord
	for rows.Next() {
		r, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TrackHistory returns the history of every track that carried trackID in
// runID, oldest first.
func (db *DB) TrackHistory(runID string, trackID tracking.TrackID) ([]HistoryRecord, error) {
	rows, err := db.Query(`
		SELECT t.track_id, t.first_time, h.seq,
		       h.range_m, h.azimuth, h.elevation, h.time_s, h.doppler, h.state
		FROM track_history h
		JOIN tracks t ON t.track_key = h.track_key
		WHERE t.run_id = ? AND t.track_id = ?
		ORDER BY t.first_time, h.seq
	`, runID, int(trackID))
	if err != nil {
		return nil, fmt.Errorf("track history: %w", err)
	}
	defer rows.Close()

	var out []HistoryRecord
	for rows.Next() {
		var (
			h     HistoryRecord
			id    int
			state string
		)
		err := rows.Scan(&id, &h.TrackFirstTime, &h.Seq,
			&h.Detection.Range, &h.Detection.Azimuth, &h.Detection.Elevation,
			&h.Detection.Time, &h.Detection.Doppler, &state)
		if err != nil {
			return nil, fmt.Errorf("scan track history: %w", err)
		}
		h.TrackID = tracking.TrackID(id)
		h.State = tracking.ConfirmationState(state)
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanTrack(rows *sql.Rows) (*TrackRecord, error) {
	r := &TrackRecord{}
	var (
		id    int
		state string
	)
	err := rows.Scan(
		&r.RunID, &id, &r.FirstTime, &r.LastTime, &state,
		&r.HitCount, &r.MissCount, &r.LastDoppler,
		&r.Position[0], &r.Position[1], &r.Position[2],
		&r.Velocity[0], &r.Velocity[1], &r.Velocity[2],
		&r.Terminated,
	)
	if err != nil {
		return nil, fmt.Errorf("scan track: %w", err)
	}
	r.TrackID = tracking.TrackID(id)
	r.State = tracking.ConfirmationState(state)
	return r, nil
}
