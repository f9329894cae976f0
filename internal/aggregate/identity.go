package aggregate

import (
	"strings"
	"time"

	"github.com/pha-linkage/internal/record"
)

// Key is the composite identity grouping key: the numeric identifier and
// the alternate identifier taken together. A person may carry a junk
// numeric value but a usable alternate, or vice versa, so neither field
// alone partitions the table.
type Key struct {
	Num    int64
	HasNum bool
	Alt    string
}

// KeyOf builds the grouping key for a record from its classified
// person-level identifier.
func KeyOf(rec *record.PersonPeriod) Key {
	k := Key{Alt: rec.SSNAlt}
	if rec.SSNClean != nil {
		k.Num = *rec.SSNClean
		k.HasNum = true
	}
	return k
}

// genderCodes maps the raw gender spellings found in the agency extracts
// to the two canonical codes.
var genderCodes = map[string]string{
	"M":      "M",
	"MALE":   "M",
	"1":      "M",
	"F":      "F",
	"FEMALE": "F",
	"2":      "F",
}

// NormalizeGender maps a raw gender spelling to one of the two canonical
// codes. Anything unrecognized maps to nil and is propagated downstream
// rather than dropped.
func NormalizeGender(raw string) *string {
	if code, ok := genderCodes[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return &code
	}
	return nil
}

// Apply partitions records by identifier pair and broadcasts per-group
// frequency counts and most-recent selections back onto every member
// row. Records whose identifier pair is fully junk are excluded from
// grouping entirely; every aggregate on those rows stays nil, the
// explicit signal to downstream matching that no reliable identity
// grouping is available.
//
// Input order is significant only for the most-recent-surname tie break,
// which uses the original row ordering.
func Apply(records []*record.PersonPeriod) {
	groups := make(map[Key][]*record.PersonPeriod)
	for _, rec := range records {
		if rec.SSNIsJunk && rec.SSNAltIsJunk {
			continue
		}
		k := KeyOf(rec)
		groups[k] = append(groups[k], rec)
	}

	for _, group := range groups {
		applyGroup(group)
	}
}

func applyGroup(group []*record.PersonPeriod) {
	dobCounts := make(map[string]int)
	firstCounts := make(map[string]int)
	middleCounts := make(map[string]int)
	surnameCounts := make(map[string]int)
	suffixCounts := make(map[string]int)
	genderCounts := make(map[string]int)

	for _, rec := range group {
		dobCounts[dateKey(rec.DOB)]++
		firstCounts[rec.FirstNameClean]++
		if rec.MiddleNameClean != "" {
			middleCounts[rec.MiddleNameClean]++
		}
		if rec.LastNameClean != "" {
			surnameCounts[rec.LastNameClean]++
		}
		if rec.LastNameSuffix != "" {
			suffixCounts[rec.LastNameSuffix]++
		}
		if g := NormalizeGender(rec.Gender); g != nil {
			genderCounts[*g]++
		}
	}

	mostRecent := mostRecentSurname(group)

	for _, rec := range group {
		rec.DOBFrequency = intPtr(dobCounts[dateKey(rec.DOB)])
		rec.FirstNameFrequency = intPtr(firstCounts[rec.FirstNameClean])
		if rec.MiddleNameClean != "" {
			rec.MiddleNameFrequency = intPtr(middleCounts[rec.MiddleNameClean])
		}
		if rec.LastNameClean != "" {
			rec.SurnameFrequency = intPtr(surnameCounts[rec.LastNameClean])
		}
		if rec.LastNameSuffix != "" {
			rec.SuffixFrequency = intPtr(suffixCounts[rec.LastNameSuffix])
		}

		surname := mostRecent
		rec.SurnameMostRecent = &surname

		rec.GenderClean = NormalizeGender(rec.Gender)
		if rec.GenderClean != nil {
			rec.GenderFrequency = intPtr(genderCounts[*rec.GenderClean])
		}
	}
}

// mostRecentSurname returns the surname of the single most recently dated
// record in the group, ties broken by original row order with the latest
// row winning. The value is taken literally from that record: when the
// latest record's surname is empty the search does not fall back to an
// earlier non-empty one. Known limitation, preserved deliberately; see
// DESIGN.md.
func mostRecentSurname(group []*record.PersonPeriod) string {
	latest := group[0]
	for _, rec := range group[1:] {
		if !dateBefore(rec.ActivityDate, latest.ActivityDate) {
			latest = rec
		}
	}
	return latest.LastNameClean
}

// dateBefore orders nullable dates with nil sorting before any real date.
func dateBefore(a, b *time.Time) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return a.Before(*b)
}

func dateKey(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func intPtr(v int) *int {
	return &v
}
