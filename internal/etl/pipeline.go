package etl

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pha-linkage/internal/audit"
	"github.com/pha-linkage/internal/config"
	"github.com/pha-linkage/internal/debug"
	"github.com/pha-linkage/internal/engine"
	"github.com/pha-linkage/internal/record"
)

// Pipeline brackets the normalization engine: it loads the two agency
// extracts into staging, unions them into the person_period table with a
// provenance tag, runs the engine, and persists the enriched snapshot.
type Pipeline struct {
	db     *sql.DB
	fields *config.Fields
}

// NewPipeline creates a new ETL pipeline
func NewPipeline(db *sql.DB, fields *config.Fields) *Pipeline {
	return &Pipeline{db: db, fields: fields}
}

// EnsureSchema creates the pipeline tables if they do not exist.
func (p *Pipeline) EnsureSchema(localDebug bool) error {
	debug.DebugOutput(localDebug, "Ensuring pipeline schema")

	statements := []string{
		`CREATE TABLE IF NOT EXISTS stg_kcha_tenancy (
			household_id   text,
			ssn            text,
			household_ssn  text,
			first_name     text,
			middle_name    text,
			last_name      text,
			gender         text,
			dob            text,
			activity_date  text,
			extra_cols     jsonb
		)`,
		`CREATE TABLE IF NOT EXISTS stg_sha_tenancy (
			household_id   text,
			ssn            text,
			household_ssn  text,
			first_name     text,
			middle_name    text,
			last_name      text,
			gender         text,
			dob            text,
			activity_date  text,
			extra_cols     jsonb
		)`,
		`CREATE TABLE IF NOT EXISTS person_period (
			person_period_id bigserial PRIMARY KEY,
			source           text NOT NULL,
			household_id     text,
			ssn              text,
			household_ssn    text,
			first_name       text,
			middle_name      text,
			last_name        text,
			gender           text,
			dob              text,
			activity_date    text,
			extra_cols       jsonb
		)`,
		`CREATE TABLE IF NOT EXISTS person_period_enriched (
			person_period_id      bigint PRIMARY KEY,
			run_id                text NOT NULL,
			source                text NOT NULL,
			household_id          text,
			ssn                   text,
			household_ssn         text,
			first_name            text,
			middle_name           text,
			last_name             text,
			gender                text,
			dob_raw               text,
			activity_date_raw     text,
			extra_cols            jsonb,
			dob                   date,
			activity_date         date,
			ssn_clean             bigint,
			ssn_alt               text,
			ssn_is_junk           boolean NOT NULL,
			ssn_alt_is_junk       boolean NOT NULL,
			hh_ssn_clean          bigint,
			hh_ssn_alt            text,
			hh_ssn_is_junk        boolean NOT NULL,
			hh_ssn_alt_is_junk    boolean NOT NULL,
			first_name_clean      text,
			middle_name_clean     text,
			last_name_clean       text,
			last_name_suffix      text,
			name_phonetic_key     text,
			name_prefix_key       text,
			dob_freq              integer,
			first_name_freq       integer,
			middle_name_freq      integer,
			surname_freq          integer,
			suffix_freq           integer,
			surname_most_recent   text,
			gender_clean          text,
			gender_freq           integer
		)`,
		`CREATE INDEX IF NOT EXISTS person_period_enriched_ssn_idx
			ON person_period_enriched (ssn_clean, ssn_alt)`,
		`CREATE INDEX IF NOT EXISTS person_period_enriched_phonetic_idx
			ON person_period_enriched (name_phonetic_key)`,
	}

	for _, stmt := range statements {
		if _, err := p.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return audit.EnsureSchema(p.db)
}

// LoadTenancy loads one agency's tenancy extract CSV into its staging
// table. The header is validated against the configured column roles up
// front; a missing required column aborts the load.
func (p *Pipeline) LoadTenancy(localDebug bool, source, csvPath string) error {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	debug.DebugOutput(localDebug, "Loading %s tenancy extract from: %s", source, csvPath)

	schema, err := p.fields.ForSource(source)
	if err != nil {
		return err
	}

	stagingTable, err := stagingTableFor(source)
	if err != nil {
		return err
	}

	if _, err := p.db.Exec("TRUNCATE TABLE " + stagingTable); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", stagingTable, err)
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open tenancy CSV: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	debug.DebugOutput(localDebug, "CSV columns: %v", header)

	if err := record.ValidateHeader(header, schema.RequiredColumns()); err != nil {
		return fmt.Errorf("%s extract: %w", source, err)
	}

	columnMap := make(map[string]int)
	for i, col := range header {
		columnMap[strings.ToLower(col)] = i
	}

	stmt, err := p.db.Prepare(fmt.Sprintf(`
		INSERT INTO %s (
			household_id, ssn, household_ssn, first_name, middle_name,
			last_name, gender, dob, activity_date, extra_cols
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, stagingTable))
	if err != nil {
		return fmt.Errorf("failed to prepare staging statement: %w", err)
	}
	defer stmt.Close()

	recordCount := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			debug.DebugOutput(localDebug, "Error reading CSV record %d: %v", recordCount, err)
			continue
		}

		extra := make(map[string]string)
		for _, col := range schema.CarryColumns {
			if v := getColumnValue(row, columnMap, col); v != "" {
				extra[col] = v
			}
		}
		extraJSON, err := json.Marshal(extra)
		if err != nil {
			return fmt.Errorf("failed to encode carried columns: %w", err)
		}

		_, err = stmt.Exec(
			nullIfEmpty(getColumnValue(row, columnMap, schema.HouseholdIDColumn)),
			nullIfEmpty(getColumnValue(row, columnMap, schema.SSNColumn)),
			nullIfEmpty(getColumnValue(row, columnMap, schema.HouseholdSSNColumn)),
			nullIfEmpty(getColumnValue(row, columnMap, schema.FirstNameColumn)),
			nullIfEmpty(getColumnValue(row, columnMap, schema.MiddleNameColumn)),
			nullIfEmpty(getColumnValue(row, columnMap, schema.LastNameColumn)),
			nullIfEmpty(getColumnValue(row, columnMap, schema.GenderColumn)),
			nullIfEmpty(getColumnValue(row, columnMap, schema.DOBColumn)),
			nullIfEmpty(getColumnValue(row, columnMap, schema.ActivityDateColumn)),
			extraJSON,
		)
		if err != nil {
			debug.DebugOutput(localDebug, "Error inserting staging record %d: %v", recordCount, err)
			continue
		}

		recordCount++
		if recordCount%1000 == 0 {
			debug.DebugOutput(localDebug, "Loaded %d staging records", recordCount)
		}
	}

	debug.DebugOutput(localDebug, "Loaded %d total records to %s", recordCount, stagingTable)
	return nil
}

// Combine unions the two staging tables into person_period, tagging each
// row with its provenance. The combined table is rebuilt from scratch so
// every record carries exactly one provenance tag.
func (p *Pipeline) Combine(localDebug bool) error {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	if _, err := p.db.Exec("TRUNCATE TABLE person_period RESTART IDENTITY CASCADE"); err != nil {
		return fmt.Errorf("failed to truncate person_period: %w", err)
	}

	_, err := p.db.Exec(`
		INSERT INTO person_period (
			source, household_id, ssn, household_ssn, first_name,
			middle_name, last_name, gender, dob, activity_date, extra_cols
		)
		SELECT 'kcha', household_id, ssn, household_ssn, first_name,
		       middle_name, last_name, gender, dob, activity_date, extra_cols
		FROM stg_kcha_tenancy
		UNION ALL
		SELECT 'sha', household_id, ssn, household_ssn, first_name,
		       middle_name, last_name, gender, dob, activity_date, extra_cols
		FROM stg_sha_tenancy
	`)
	if err != nil {
		return fmt.Errorf("failed to combine staging tables: %w", err)
	}

	var count int
	if err := p.db.QueryRow("SELECT COUNT(*) FROM person_period").Scan(&count); err != nil {
		return fmt.Errorf("failed to count combined records: %w", err)
	}

	debug.DebugOutput(localDebug, "Combined %d person-period records", count)
	return nil
}

// Normalize loads the combined table, runs the normalization engine over
// it, and persists the enriched snapshot. The enriched table is rebuilt
// rather than updated in place so the combined table stays available for
// auditing.
func (p *Pipeline) Normalize(localDebug bool, workers int) error {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)
	defer debug.DebugTiming(localDebug, "normalization run")()

	tracker := audit.NewTracker(p.db)
	run, err := tracker.StartRun(localDebug, "normalize")
	if err != nil {
		return err
	}

	records, err := p.loadRecords(localDebug)
	if err != nil {
		return err
	}

	eng := engine.NewPipeline(p.fields, workers)
	if err := eng.Run(records); err != nil {
		return fmt.Errorf("normalization engine failed: %w", err)
	}

	if err := p.persistEnriched(localDebug, run.ID, records); err != nil {
		return err
	}

	return tracker.FinishRun(localDebug, run, runStats(records))
}

// loadRecords reads the combined person_period table in insertion order.
// Row order matters: the aggregator's most-recent tie break uses it.
func (p *Pipeline) loadRecords(localDebug bool) ([]*record.PersonPeriod, error) {
	rows, err := p.db.Query(`
		SELECT person_period_id, source,
		       COALESCE(household_id, ''), COALESCE(ssn, ''), COALESCE(household_ssn, ''),
		       COALESCE(first_name, ''), COALESCE(middle_name, ''), COALESCE(last_name, ''),
		       COALESCE(gender, ''), COALESCE(dob, ''), COALESCE(activity_date, ''),
		       COALESCE(extra_cols, '{}'::jsonb)
		FROM person_period
		ORDER BY person_period_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query person_period: %w", err)
	}
	defer rows.Close()

	var records []*record.PersonPeriod
	for rows.Next() {
		rec := &record.PersonPeriod{}
		var extraJSON []byte

		err := rows.Scan(
			&rec.ID, &rec.Source,
			&rec.HouseholdID, &rec.SSN, &rec.HouseholdSSN,
			&rec.FirstName, &rec.MiddleName, &rec.LastName,
			&rec.Gender, &rec.DOBRaw, &rec.ActivityRaw,
			&extraJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person_period row: %w", err)
		}

		if err := json.Unmarshal(extraJSON, &rec.Extra); err != nil {
			return nil, fmt.Errorf("failed to decode carried columns for record %d: %w", rec.ID, err)
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading person_period rows: %w", err)
	}

	debug.DebugOutput(localDebug, "Loaded %d person-period records", len(records))
	return records, nil
}

// persistEnriched writes the enriched snapshot inside one transaction.
func (p *Pipeline) persistEnriched(localDebug bool, runID string, records []*record.PersonPeriod) error {
	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("TRUNCATE TABLE person_period_enriched"); err != nil {
		return fmt.Errorf("failed to truncate enriched table: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO person_period_enriched (
			person_period_id, run_id, source, household_id, ssn, household_ssn,
			first_name, middle_name, last_name, gender, dob_raw, activity_date_raw,
			extra_cols, dob, activity_date,
			ssn_clean, ssn_alt, ssn_is_junk, ssn_alt_is_junk,
			hh_ssn_clean, hh_ssn_alt, hh_ssn_is_junk, hh_ssn_alt_is_junk,
			first_name_clean, middle_name_clean, last_name_clean, last_name_suffix,
			name_phonetic_key, name_prefix_key,
			dob_freq, first_name_freq, middle_name_freq, surname_freq, suffix_freq,
			surname_most_recent, gender_clean, gender_freq
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28,
			$29, $30, $31, $32, $33, $34, $35, $36, $37
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare enriched statement: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, rec := range records {
		extraJSON, err := json.Marshal(rec.Extra)
		if err != nil {
			return fmt.Errorf("failed to encode carried columns for record %d: %w", rec.ID, err)
		}

		_, err = stmt.Exec(
			rec.ID, runID, rec.Source,
			nullIfEmpty(rec.HouseholdID), nullIfEmpty(rec.SSN), nullIfEmpty(rec.HouseholdSSN),
			nullIfEmpty(rec.FirstName), nullIfEmpty(rec.MiddleName), nullIfEmpty(rec.LastName),
			nullIfEmpty(rec.Gender), nullIfEmpty(rec.DOBRaw), nullIfEmpty(rec.ActivityRaw),
			extraJSON, rec.DOB, rec.ActivityDate,
			rec.SSNClean, nullIfEmpty(rec.SSNAlt), rec.SSNIsJunk, rec.SSNAltIsJunk,
			rec.HouseholdSSNClean, nullIfEmpty(rec.HouseholdSSNAlt),
			rec.HouseholdSSNIsJunk, rec.HouseholdSSNAltIsJunk,
			rec.FirstNameClean, rec.MiddleNameClean, rec.LastNameClean, rec.LastNameSuffix,
			rec.NamePhoneticKey, rec.NamePrefixKey,
			rec.DOBFrequency, rec.FirstNameFrequency, rec.MiddleNameFrequency,
			rec.SurnameFrequency, rec.SuffixFrequency,
			rec.SurnameMostRecent, rec.GenderClean, rec.GenderFrequency,
		)
		if err != nil {
			return fmt.Errorf("failed to insert enriched record %d: %w", rec.ID, err)
		}

		written++
		if written%1000 == 0 {
			debug.DebugOutput(localDebug, "Persisted %d enriched records", written)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit enriched snapshot: %w", err)
	}

	debug.DebugOutput(localDebug, "Persisted %d enriched records", written)
	return nil
}

// runStats summarizes a normalization run for the audit trail.
func runStats(records []*record.PersonPeriod) audit.RunStats {
	stats := audit.RunStats{RecordCount: len(records)}
	for _, rec := range records {
		switch rec.Source {
		case record.SourceKCHA:
			stats.KCHACount++
		case record.SourceSHA:
			stats.SHACount++
		}
		if rec.SSNIsJunk {
			stats.JunkSSNCount++
		}
		if rec.SSNIsJunk && rec.SSNAltIsJunk {
			stats.JunkPairCount++
		}
	}
	return stats
}

// Helper methods for data parsing

func stagingTableFor(source string) (string, error) {
	switch source {
	case record.SourceKCHA:
		return "stg_kcha_tenancy", nil
	case record.SourceSHA:
		return "stg_sha_tenancy", nil
	default:
		return "", fmt.Errorf("unknown source type: %s", source)
	}
}

func getColumnValue(row []string, columnMap map[string]int, columnName string) string {
	if idx, exists := columnMap[strings.ToLower(columnName)]; exists && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
