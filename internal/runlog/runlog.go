// Package runlog persists per-frame detector results to SQLite so runs can
// be inspected live (tailsql) and summarised afterwards.
package runlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/lanekeeper/internal/config"
	"github.com/banshee-data/lanekeeper/internal/lane"
)

// Store is a run log database.
type Store struct {
	*sql.DB
	path string
}

// Open opens (creating if needed) the run log at path and applies the
// embedded migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; serialise through a single connection.
	db.SetMaxOpenConns(1)

	s := &Store{DB: db, path: path}
	if err := s.MigrateUp(Migrations()); err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("opened run log %s", path)
	return s, nil
}

// Path returns the file the store was opened from.
func (s *Store) Path() string { return s.path }

// Run identifies one detector run.
type Run struct {
	ID      string
	Source  string
	Started time.Time
}

// RunInfo is a summary row for a recorded run.
type RunInfo struct {
	ID         string
	Source     string
	Started    time.Time
	Finished   time.Time // zero while the run is open
	FrameCount int
}

// FrameRecord is one stored frame.
type FrameRecord struct {
	Frame            uint64
	RawSegments      int
	WeightedSegments int
	Clusters         int
	Left, Right      string // lane.Line.String(), "none" when absent
	Angle            float64
	Branch           string
	Damped           bool
	Elapsed          time.Duration
}

// StartRun records a new run for source with the configuration in use.
func (s *Store) StartRun(source string, cfg *config.DetectorConfig, started time.Time) (*Run, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	run := &Run{ID: uuid.NewString(), Source: source, Started: started}
	_, err = s.Exec(`INSERT INTO runs (run_id, source, config_json, started_unix_nanos) VALUES (?, ?, ?, ?)`,
		run.ID, source, string(cfgJSON), started.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return run, nil
}

// RecordFrame stores one frame result against runID.
func (s *Store) RecordFrame(runID string, res lane.FrameResult) error {
	_, err := s.Exec(`INSERT INTO frames (run_id, frame, raw_segments, weighted_segments, clusters, left_lane, right_lane, steering_angle, branch, damped, elapsed_nanos)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, int64(res.Frame), res.RawSegments, res.WeightedSegments, res.Clusters,
		res.Lanes.Left.String(), res.Lanes.Right.String(),
		res.Steering.Angle, res.Steering.Branch.String(), res.Steering.Damped,
		res.Elapsed.Nanoseconds())
	if err != nil {
		return fmt.Errorf("failed to insert frame %d: %w", res.Frame, err)
	}
	return nil
}

// FinishRun marks runID complete and stores its frame count.
func (s *Store) FinishRun(runID string, finished time.Time) error {
	res, err := s.Exec(`UPDATE runs SET finished_unix_nanos = ?,
			frame_count = (SELECT COUNT(*) FROM frames WHERE run_id = ?)
			WHERE run_id = ?`, finished.UnixNano(), runID, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunInfo, error) {
	rows, err := s.Query(`SELECT run_id, source, started_unix_nanos, finished_unix_nanos, frame_count
			FROM runs ORDER BY started_unix_nanos DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var (
			ri       RunInfo
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&ri.ID, &ri.Source, &started, &finished, &ri.FrameCount); err != nil {
			return nil, err
		}
		ri.Started = time.Unix(0, started)
		if finished.Valid {
			ri.Finished = time.Unix(0, finished.Int64)
		}
		runs = append(runs, ri)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// Frames returns every frame of runID in frame order.
func (s *Store) Frames(runID string) ([]FrameRecord, error) {
	rows, err := s.Query(`SELECT frame, raw_segments, weighted_segments, clusters, left_lane, right_lane,
			steering_angle, branch, damped, elapsed_nanos
			FROM frames WHERE run_id = ? ORDER BY frame`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []FrameRecord
	for rows.Next() {
		var (
			fr      FrameRecord
			frame   int64
			elapsed int64
		)
		if err := rows.Scan(&frame, &fr.RawSegments, &fr.WeightedSegments, &fr.Clusters, &fr.Left, &fr.Right,
			&fr.Angle, &fr.Branch, &fr.Damped, &elapsed); err != nil {
			return nil, err
		}
		fr.Frame = uint64(frame)
		fr.Elapsed = time.Duration(elapsed)
		frames = append(frames, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}
