package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// RecordsHandler serves enriched person-period records for inspection.
type RecordsHandler struct {
	DB *sql.DB
}

// EnrichedRecord is the JSON shape of one enriched person-period row.
type EnrichedRecord struct {
	PersonPeriodID    int64   `json:"person_period_id"`
	RunID             string  `json:"run_id"`
	Source            string  `json:"source"`
	HouseholdID       *string `json:"household_id,omitempty"`
	SSNClean          *int64  `json:"ssn_clean,omitempty"`
	SSNAlt            *string `json:"ssn_alt,omitempty"`
	SSNIsJunk         bool    `json:"ssn_is_junk"`
	SSNAltIsJunk      bool    `json:"ssn_alt_is_junk"`
	FirstNameClean    string  `json:"first_name_clean"`
	MiddleNameClean   string  `json:"middle_name_clean"`
	LastNameClean     string  `json:"last_name_clean"`
	LastNameSuffix    string  `json:"last_name_suffix"`
	NamePhoneticKey   string  `json:"name_phonetic_key"`
	NamePrefixKey     string  `json:"name_prefix_key"`
	DOB               *string `json:"dob,omitempty"`
	ActivityDate      *string `json:"activity_date,omitempty"`
	DOBFreq           *int    `json:"dob_freq,omitempty"`
	FirstNameFreq     *int    `json:"first_name_freq,omitempty"`
	MiddleNameFreq    *int    `json:"middle_name_freq,omitempty"`
	SurnameFreq       *int    `json:"surname_freq,omitempty"`
	SuffixFreq        *int    `json:"suffix_freq,omitempty"`
	SurnameMostRecent *string `json:"surname_most_recent,omitempty"`
	GenderClean       *string `json:"gender_clean,omitempty"`
	GenderFreq        *int    `json:"gender_freq,omitempty"`
}

const enrichedSelect = `
	SELECT person_period_id, run_id, source, household_id,
	       ssn_clean, ssn_alt, ssn_is_junk, ssn_alt_is_junk,
	       first_name_clean, middle_name_clean, last_name_clean, last_name_suffix,
	       name_phonetic_key, name_prefix_key,
	       to_char(dob, 'YYYY-MM-DD'), to_char(activity_date, 'YYYY-MM-DD'),
	       dob_freq, first_name_freq, middle_name_freq, surname_freq, suffix_freq,
	       surname_most_recent, gender_clean, gender_freq
	FROM person_period_enriched
`

func scanEnriched(scanner interface {
	Scan(dest ...interface{}) error
}) (*EnrichedRecord, error) {
	var rec EnrichedRecord
	err := scanner.Scan(
		&rec.PersonPeriodID, &rec.RunID, &rec.Source, &rec.HouseholdID,
		&rec.SSNClean, &rec.SSNAlt, &rec.SSNIsJunk, &rec.SSNAltIsJunk,
		&rec.FirstNameClean, &rec.MiddleNameClean, &rec.LastNameClean, &rec.LastNameSuffix,
		&rec.NamePhoneticKey, &rec.NamePrefixKey,
		&rec.DOB, &rec.ActivityDate,
		&rec.DOBFreq, &rec.FirstNameFreq, &rec.MiddleNameFreq, &rec.SurnameFreq, &rec.SuffixFreq,
		&rec.SurnameMostRecent, &rec.GenderClean, &rec.GenderFreq,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRecords returns a page of enriched records.
func (h *RecordsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	query := enrichedSelect + " ORDER BY person_period_id LIMIT $1 OFFSET $2"
	args := []interface{}{limit, offset}

	if source := r.URL.Query().Get("source"); source != "" {
		query = enrichedSelect + " WHERE source = $3 ORDER BY person_period_id LIMIT $1 OFFSET $2"
		args = append(args, source)
	}

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query records")
		return
	}
	defer rows.Close()

	records := []*EnrichedRecord{}
	for rows.Next() {
		rec, err := scanEnriched(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to scan record")
			return
		}
		records = append(records, rec)
	}

	writeJSON(w, map[string]interface{}{
		"records": records,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetRecord returns a single enriched record by id.
func (h *RecordsHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	row := h.DB.QueryRow(enrichedSelect+" WHERE person_period_id = $1", id)
	rec, err := scanEnriched(row)
	if err == sql.ErrNoRows {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load record")
		return
	}

	writeJSON(w, rec)
}

// GetIdentityGroup returns every record sharing an identifier pair, the
// same grouping the aggregator uses.
func (h *RecordsHandler) GetIdentityGroup(w http.ResponseWriter, r *http.Request) {
	ssn := r.URL.Query().Get("ssn")
	alt := r.URL.Query().Get("alt")
	if ssn == "" && alt == "" {
		writeError(w, http.StatusBadRequest, "ssn or alt query parameter required")
		return
	}

	var ssnNum int64
	if ssn != "" {
		var err error
		ssnNum, err = strconv.ParseInt(ssn, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid ssn value")
			return
		}
	}

	var rows *sql.Rows
	var err error
	switch {
	case ssn != "" && alt != "":
		rows, err = h.DB.Query(enrichedSelect+
			" WHERE ssn_clean = $1 AND ssn_alt = $2 ORDER BY person_period_id", ssnNum, alt)
	case ssn != "":
		rows, err = h.DB.Query(enrichedSelect+
			" WHERE ssn_clean = $1 AND ssn_alt IS NULL ORDER BY person_period_id", ssnNum)
	default:
		rows, err = h.DB.Query(enrichedSelect+
			" WHERE ssn_clean IS NULL AND ssn_alt = $1 ORDER BY person_period_id", alt)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query identity group")
		return
	}
	defer rows.Close()

	records := []*EnrichedRecord{}
	for rows.Next() {
		rec, err := scanEnriched(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to scan record")
			return
		}
		records = append(records, rec)
	}

	writeJSON(w, map[string]interface{}{
		"ssn":     ssn,
		"alt":     alt,
		"records": records,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
