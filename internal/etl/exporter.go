package etl

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pha-linkage/internal/debug"
)

// exportColumns is the fixed column order of the exported artifact.
var exportColumns = []string{
	"person_period_id", "run_id", "source", "household_id",
	"ssn", "household_ssn", "first_name", "middle_name", "last_name", "gender",
	"dob", "activity_date",
	"ssn_clean", "ssn_alt", "ssn_is_junk", "ssn_alt_is_junk",
	"hh_ssn_clean", "hh_ssn_alt", "hh_ssn_is_junk", "hh_ssn_alt_is_junk",
	"first_name_clean", "middle_name_clean", "last_name_clean", "last_name_suffix",
	"name_phonetic_key", "name_prefix_key",
	"dob_freq", "first_name_freq", "middle_name_freq", "surname_freq", "suffix_freq",
	"surname_most_recent", "gender_clean", "gender_freq",
}

// Export writes the enriched person-period snapshot to a CSV file for
// the downstream deduplication stage.
func (p *Pipeline) Export(localDebug bool, csvPath string) error {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	debug.DebugOutput(localDebug, "Exporting enriched snapshot to: %s", csvPath)

	rows, err := p.db.Query(`
		SELECT person_period_id, run_id, source, household_id,
		       ssn, household_ssn, first_name, middle_name, last_name, gender,
		       dob, activity_date,
		       ssn_clean, ssn_alt, ssn_is_junk, ssn_alt_is_junk,
		       hh_ssn_clean, hh_ssn_alt, hh_ssn_is_junk, hh_ssn_alt_is_junk,
		       first_name_clean, middle_name_clean, last_name_clean, last_name_suffix,
		       name_phonetic_key, name_prefix_key,
		       dob_freq, first_name_freq, middle_name_freq, surname_freq, suffix_freq,
		       surname_most_recent, gender_clean, gender_freq
		FROM person_period_enriched
		ORDER BY person_period_id
	`)
	if err != nil {
		return fmt.Errorf("failed to query enriched table: %w", err)
	}
	defer rows.Close()

	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(exportColumns); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	exported := 0
	for rows.Next() {
		values := make([]interface{}, len(exportColumns))
		scanTargets := make([]interface{}, len(exportColumns))
		for i := range values {
			scanTargets[i] = &values[i]
		}

		if err := rows.Scan(scanTargets...); err != nil {
			return fmt.Errorf("failed to scan enriched row: %w", err)
		}

		out := make([]string, len(values))
		for i, v := range values {
			out[i] = formatValue(v)
		}

		if err := writer.Write(out); err != nil {
			return fmt.Errorf("failed to write export row: %w", err)
		}

		exported++
		if exported%1000 == 0 {
			debug.DebugOutput(localDebug, "Exported %d records", exported)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed reading enriched rows: %w", err)
	}

	debug.DebugOutput(localDebug, "Export complete: %d records", exported)
	return nil
}

// formatValue renders a scanned database value for CSV output, with NULL
// as an empty field.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", val)
	}
}
