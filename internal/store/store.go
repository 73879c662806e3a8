// Package store keeps a history of phantom analysis runs in SQLite so that
// fiducial spacing and SNR can be tracked across QA sessions.
//
// The schema is managed with golang-migrate from migrations embedded in the
// binary; Open always brings the database to the latest version.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ironsheep/phantom-qa-mcp/internal/analysis"
	"github.com/ironsheep/phantom-qa-mcp/internal/detection"
)

// ErrRunNotFound is returned by Get for unknown run IDs.
var ErrRunNotFound = errors.New("run not found")

// Store is a handle to the run history database.
type Store struct {
	db    *sql.DB
	debug bool
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string, debug bool) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, debug: debug}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Run is one persisted profile analysis.
type Run struct {
	RunID          string             `json:"run_id"`
	Profile        string             `json:"profile"`
	SourcePath     string             `json:"source_path"`
	SliceIndex     int                `json:"slice_index"`
	Params         detection.Params   `json:"params"`
	Detected       int                `json:"detected"`
	Circles        []detection.Circle `json:"circles"`
	Distances      []float64          `json:"distances_mm"`
	MeanDistanceMM float64            `json:"mean_distance_mm"`

	// SNR and CNR are nil when the run had no SNR measurement.
	SNR *float64 `json:"snr,omitempty"`
	CNR *float64 `json:"cnr,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// FromResult builds a Run for an analysis of the file at source. RunID and
// CreatedAt are filled in by Insert when empty.
func FromResult(res *analysis.Result, source string) *Run {
	run := &Run{
		Profile:        res.Profile,
		SourcePath:     source,
		SliceIndex:     res.SliceIndex,
		Params:         res.Params,
		Detected:       res.Detected,
		Circles:        res.Circles,
		Distances:      res.Distances,
		MeanDistanceMM: res.Summary.MeanMM,
	}
	if res.SNR != nil {
		snr, cnr := res.SNR.SNR, res.SNR.CNR
		run.SNR = &snr
		run.CNR = &cnr
	}
	return run
}

// Insert stores run, assigning a new UUID and the current time when RunID or
// CreatedAt are unset.
func (s *Store) Insert(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	circles := run.Circles
	if circles == nil {
		circles = []detection.Circle{}
	}
	circlesJSON, err := json.Marshal(circles)
	if err != nil {
		return fmt.Errorf("failed to encode circles: %w", err)
	}
	distances := run.Distances
	if distances == nil {
		distances = []float64{}
	}
	distancesJSON, err := json.Marshal(distances)
	if err != nil {
		return fmt.Errorf("failed to encode distances: %w", err)
	}
	paramsJSON, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (
			run_id, profile, source_path, slice_index, circles_json, distances_json,
			mean_distance_mm, snr, cnr, created_at, params_json, detected
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Profile, run.SourcePath, run.SliceIndex, string(circlesJSON), string(distancesJSON),
		run.MeanDistanceMM, nullable(run.SNR), nullable(run.CNR), run.CreatedAt.UnixNano(),
		string(paramsJSON), run.Detected,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

const selectRuns = `
	SELECT run_id, profile, source_path, slice_index, circles_json, distances_json,
	       mean_distance_mm, snr, cnr, created_at, params_json, detected
	FROM runs`

// Get returns the run with the given ID.
func (s *Store) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(selectRuns+" WHERE run_id = ?", runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns the most recent runs first. An empty profile lists every
// profile; limit <= 0 means no limit.
func (s *Store) List(profileName string, limit int) ([]*Run, error) {
	var (
		where []string
		args  []interface{}
	)
	if profileName != "" {
		where = append(where, "profile = ?")
		args = append(args, profileName)
	}

	query := selectRuns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, run_id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run           Run
		circlesJSON   string
		distancesJSON string
		paramsJSON    string
		snr, cnr      sql.NullFloat64
		createdAt     int64
	)
	err := sc.Scan(&run.RunID, &run.Profile, &run.SourcePath, &run.SliceIndex, &circlesJSON, &distancesJSON,
		&run.MeanDistanceMM, &snr, &cnr, &createdAt, &paramsJSON, &run.Detected)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if err := json.Unmarshal([]byte(circlesJSON), &run.Circles); err != nil {
		return nil, fmt.Errorf("failed to decode circles for run %s: %w", run.RunID, err)
	}
	if err := json.Unmarshal([]byte(distancesJSON), &run.Distances); err != nil {
		return nil, fmt.Errorf("failed to decode distances for run %s: %w", run.RunID, err)
	}
	if err := json.Unmarshal([]byte(paramsJSON), &run.Params); err != nil {
		return nil, fmt.Errorf("failed to decode params for run %s: %w", run.RunID, err)
	}
	if snr.Valid {
		run.SNR = &snr.Float64
	}
	if cnr.Valid {
		run.CNR = &cnr.Float64
	}
	run.CreatedAt = time.Unix(0, createdAt).UTC()
	return &run, nil
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return finiteOrNull(*v)
}

// finiteOrNull stores NaN and ±Inf as NULL; SQLite has no representation
// for NaN.
func finiteOrNull(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
