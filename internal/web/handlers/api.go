package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/pha-linkage/internal/audit"
)

// APIHandler serves pipeline-level statistics and run history.
type APIHandler struct {
	DB *sql.DB
}

// GetStats returns summary statistics over the enriched table.
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]interface{})

	var total, junkPairs, withAggregates int
	err := h.DB.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE ssn_is_junk AND ssn_alt_is_junk),
		       COUNT(*) FILTER (WHERE dob_freq IS NOT NULL)
		FROM person_period_enriched
	`).Scan(&total, &junkPairs, &withAggregates)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query statistics")
		return
	}
	stats["total_records"] = total
	stats["junk_identifier_pairs"] = junkPairs
	stats["records_with_aggregates"] = withAggregates

	sourceCounts := make(map[string]int)
	rows, err := h.DB.Query(`
		SELECT source, COUNT(*) FROM person_period_enriched GROUP BY source
	`)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query source breakdown")
		return
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var count int
		if rows.Scan(&source, &count) == nil {
			sourceCounts[source] = count
		}
	}
	stats["source_breakdown"] = sourceCounts

	var identities int
	err = h.DB.QueryRow(`
		SELECT COUNT(DISTINCT (ssn_clean, ssn_alt))
		FROM person_period_enriched
		WHERE NOT (ssn_is_junk AND ssn_alt_is_junk)
	`).Scan(&identities)
	if err == nil {
		stats["distinct_identifier_pairs"] = identities
	}

	writeJSON(w, stats)
}

// GetRuns returns recent pipeline runs, newest first.
func (h *APIHandler) GetRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	tracker := audit.NewTracker(h.DB)
	history, err := tracker.GetRunHistory(false, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query run history")
		return
	}

	writeJSON(w, map[string]interface{}{"runs": history})
}
