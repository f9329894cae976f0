package normalize

import (
	"strings"
	"unicode"

	"github.com/pha-linkage/internal/record"
)

// Generational suffix rule tables, evaluated in fixed priority order. The
// first tier matches a 4-character window (space plus 3-character token),
// the second a 3-character window (space plus 2-character token). The
// 4-character test takes precedence and at most one suffix is taken from
// a field.
var (
	suffixTokens4 = []string{"III", "LLL", "2ND", "111", "JR."}
	suffixTokens3 = []string{"JR", "SR", "II", "IV"}
)

// extractSuffix applies the two-tier suffix test to a name field. It
// returns the truncated name and the captured window, which still carries
// its leading space and any punctuation. Fields shorter than the
// inspected window are treated as non-matching, not errors.
func extractSuffix(name string) (trimmed, rawSuffix string) {
	if len(name) >= 4 {
		tail := name[len(name)-4:]
		for _, tok := range suffixTokens4 {
			if tail == " "+tok {
				return name[:len(name)-4], tail
			}
		}
	}

	if len(name) >= 3 {
		tail := name[len(name)-3:]
		for _, tok := range suffixTokens3 {
			if tail == " "+tok {
				return name[:len(name)-3], tail
			}
		}
	}

	return name, ""
}

// extractMiddleInitial inspects the last two characters of a first-name
// field for "a space followed by one uppercase letter" and pulls the
// letter out as a middle initial.
func extractMiddleInitial(first string) (trimmed, initial string) {
	if len(first) < 2 {
		return first, ""
	}

	tail := first[len(first)-2:]
	if tail[0] == ' ' && tail[1] >= 'A' && tail[1] <= 'Z' {
		return first[:len(first)-2], string(tail[1])
	}
	return first, ""
}

// cleanSuffix strips punctuation and blank characters from a captured
// suffix window.
func cleanSuffix(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Decompose runs the stage-3 name state machine over a single record:
// middle-initial extraction from the first name, suffix extraction from
// the last name, then suffix extraction from the (already stripped)
// first name. A first-name suffix overwrites a last-name suffix; that
// precedence is preserved deliberately, see DESIGN.md before changing it.
func Decompose(rec *record.PersonPeriod) {
	first, initial := extractMiddleInitial(rec.FirstNameClean)
	rec.FirstNameClean = first
	if initial != "" {
		if rec.MiddleNameClean != "" {
			rec.MiddleNameClean = initial + " " + rec.MiddleNameClean
		} else {
			rec.MiddleNameClean = initial
		}
	}

	last, suffix := extractSuffix(rec.LastNameClean)
	rec.LastNameClean = last

	first, firstSuffix := extractSuffix(rec.FirstNameClean)
	rec.FirstNameClean = first
	if firstSuffix != "" {
		suffix = firstSuffix
	}

	rec.LastNameSuffix = cleanSuffix(suffix)
}
