package normalize

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pha-linkage/internal/record"
)

// Placeholder identifier values seen in the agency extracts. All-zero and
// repeated-digit values are caught separately; these are the remaining
// known sentinels.
var placeholderNumbers = map[int64]bool{
	987654321: true,
}

// Placeholder alternate identifier spellings.
var placeholderAlternates = map[string]bool{
	"NONE":    true,
	"N/A":     true,
	"UNKNOWN": true,
}

// CleanIdentifier splits a raw identifier into its numeric and alternate
// representations. Dashes are stripped first; if any alphabetic content
// remains, the original value is routed to the alternate field and the
// numeric field is left empty. Parse failure maps to an explicit nil,
// never a silent zero.
func CleanIdentifier(raw string) (num *int64, alt string) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), "-", "")
	if s == "" {
		return nil, ""
	}

	for _, r := range s {
		if unicode.IsLetter(r) {
			return nil, strings.TrimSpace(raw)
		}
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, ""
	}
	return &v, ""
}

// IsJunkNumber reports whether a cleaned numeric identifier matches a
// known-invalid pattern: empty, zero, a single digit repeated to fill the
// field, or a placeholder constant.
func IsJunkNumber(num *int64) bool {
	if num == nil {
		return true
	}
	v := *num
	if v == 0 {
		return true
	}
	if placeholderNumbers[v] {
		return true
	}

	s := strconv.FormatInt(v, 10)
	if len(s) < 2 {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// IsJunkAlternate reports whether an alternate identifier is unusable for
// grouping: empty or a known placeholder spelling.
func IsJunkAlternate(alt string) bool {
	s := strings.TrimSpace(alt)
	return s == "" || placeholderAlternates[strings.ToUpper(s)]
}

// ClassifyIdentifiers applies the stage-2 identifier classifier to both
// the person-level and household-level identifiers of a record. Cleaning
// and junk classification are pure functions of the record's own raw
// fields.
func ClassifyIdentifiers(rec *record.PersonPeriod) {
	rec.SSNClean, rec.SSNAlt = CleanIdentifier(rec.SSN)
	rec.SSNIsJunk = IsJunkNumber(rec.SSNClean)
	rec.SSNAltIsJunk = IsJunkAlternate(rec.SSNAlt)

	rec.HouseholdSSNClean, rec.HouseholdSSNAlt = CleanIdentifier(rec.HouseholdSSN)
	rec.HouseholdSSNIsJunk = IsJunkNumber(rec.HouseholdSSNClean)
	rec.HouseholdSSNAltIsJunk = IsJunkAlternate(rec.HouseholdSSNAlt)
}
