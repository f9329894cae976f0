package record

import (
	"fmt"
	"strings"
)

// ValidateHeader checks that every required column is present in a source
// extract header. Downstream stages assume the full column set exists, so
// a missing column aborts the run immediately rather than producing a
// partially populated table.
func ValidateHeader(header []string, required []string) error {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[strings.ToLower(strings.TrimSpace(col))] = true
	}

	var missing []string
	for _, col := range required {
		if col == "" {
			continue
		}
		if !present[strings.ToLower(col)] {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("source extract is missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
