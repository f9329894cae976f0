package normalize

import (
	"strings"
	"time"

	"github.com/pha-linkage/internal/record"
)

// Date formats accepted by the source extracts. Both agencies export the
// YYYY-MM-DD family, sometimes with a time component appended.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// TrimUpper trims leading/trailing whitespace and upper-cases a text
// field. Applying it to already-clean data yields the same result.
func TrimUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ParseDate parses a YYYY-MM-DD family date string. Unparseable input
// yields nil rather than an error so that one malformed record never
// aborts the batch.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return &t
		}
	}
	return nil
}

// Fields applies the stage-1 field normalizer to a single record: the
// identity-bearing text fields are trimmed and upper-cased into their
// clean counterparts, date fields are parsed, and any configured extra
// text columns are normalized in place. Raw fields are left untouched.
func Fields(rec *record.PersonPeriod, textColumns []string) {
	rec.FirstNameClean = TrimUpper(rec.FirstName)
	rec.MiddleNameClean = TrimUpper(rec.MiddleName)
	rec.LastNameClean = TrimUpper(rec.LastName)

	rec.DOB = ParseDate(rec.DOBRaw)
	rec.ActivityDate = ParseDate(rec.ActivityRaw)

	for _, col := range textColumns {
		if v, ok := rec.Extra[col]; ok {
			rec.Extra[col] = TrimUpper(v)
		}
	}
}
