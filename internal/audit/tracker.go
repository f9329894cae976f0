package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pha-linkage/internal/debug"
)

// Tracker records normalization runs so enriched snapshots can be traced
// back to the exact invocation that produced them.
type Tracker struct {
	db *sql.DB
}

// NewTracker creates a new run tracker
func NewTracker(db *sql.DB) *Tracker {
	return &Tracker{db: db}
}

// Run identifies one pipeline invocation.
type Run struct {
	ID        string
	Label     string
	StartedAt time.Time
}

// RunStats summarizes what a normalization run processed.
type RunStats struct {
	RecordCount   int `json:"record_count"`
	KCHACount     int `json:"kcha_count"`
	SHACount      int `json:"sha_count"`
	JunkSSNCount  int `json:"junk_ssn_count"`
	JunkPairCount int `json:"junk_pair_count"`
}

// EnsureSchema creates the run tracking table if it does not exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS pipeline_run (
			run_id       text PRIMARY KEY,
			run_label    text NOT NULL,
			started_at   timestamptz NOT NULL,
			finished_at  timestamptz,
			record_count integer,
			stats_json   jsonb
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create pipeline_run table: %w", err)
	}
	return nil
}

// StartRun opens a new tracked run and persists its start marker.
func (t *Tracker) StartRun(localDebug bool, label string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Label:     label,
		StartedAt: time.Now(),
	}

	debug.DebugOutput(localDebug, "Starting run %s (%s)", run.ID, label)

	_, err := t.db.Exec(`
		INSERT INTO pipeline_run (run_id, run_label, started_at)
		VALUES ($1, $2, $3)
	`, run.ID, run.Label, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record run start: %w", err)
	}

	return run, nil
}

// FinishRun closes a tracked run with its summary statistics.
func (t *Tracker) FinishRun(localDebug bool, run *Run, stats RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode run stats: %w", err)
	}

	_, err = t.db.Exec(`
		UPDATE pipeline_run
		SET finished_at = $2, record_count = $3, stats_json = $4
		WHERE run_id = $1
	`, run.ID, time.Now(), stats.RecordCount, statsJSON)
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}

	debug.DebugOutput(localDebug, "Finished run %s: %d records, %d junk pairs",
		run.ID, stats.RecordCount, stats.JunkPairCount)
	return nil
}

// RunHistoryEntry is one completed or in-flight run.
type RunHistoryEntry struct {
	RunID       string     `json:"run_id"`
	RunLabel    string     `json:"run_label"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	RecordCount *int       `json:"record_count,omitempty"`
	Stats       *RunStats  `json:"stats,omitempty"`
}

// GetRunHistory retrieves recent runs, newest first.
func (t *Tracker) GetRunHistory(localDebug bool, limit int) ([]RunHistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := t.db.Query(`
		SELECT run_id, run_label, started_at, finished_at, record_count, stats_json
		FROM pipeline_run
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	var history []RunHistoryEntry
	for rows.Next() {
		var entry RunHistoryEntry
		var finishedAt sql.NullTime
		var recordCount sql.NullInt64
		var statsJSON sql.NullString

		err := rows.Scan(&entry.RunID, &entry.RunLabel, &entry.StartedAt,
			&finishedAt, &recordCount, &statsJSON)
		if err != nil {
			debug.DebugOutput(localDebug, "Error scanning run history row: %v", err)
			continue
		}

		if finishedAt.Valid {
			entry.FinishedAt = &finishedAt.Time
		}
		if recordCount.Valid {
			count := int(recordCount.Int64)
			entry.RecordCount = &count
		}
		if statsJSON.Valid {
			var stats RunStats
			if json.Unmarshal([]byte(statsJSON.String), &stats) == nil {
				entry.Stats = &stats
			}
		}

		history = append(history, entry)
	}

	debug.DebugOutput(localDebug, "Retrieved %d run history entries", len(history))
	return history, nil
}
