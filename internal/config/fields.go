package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/pha-linkage/internal/record"
)

// SourceSchema maps one agency's extract columns onto the logical
// person-period fields, and lists which carried columns are text
// normalization targets. The two agency extracts share a logical schema
// but not column spellings, so the mapping is configured per source
// rather than hard-coded.
type SourceSchema struct {
	SSNColumn          string   `toml:"ssn_column"`
	HouseholdSSNColumn string   `toml:"household_ssn_column"`
	FirstNameColumn    string   `toml:"first_name_column"`
	MiddleNameColumn   string   `toml:"middle_name_column"`
	LastNameColumn     string   `toml:"last_name_column"`
	GenderColumn       string   `toml:"gender_column"`
	DOBColumn          string   `toml:"dob_column"`
	ActivityDateColumn string   `toml:"activity_date_column"`
	HouseholdIDColumn  string   `toml:"household_id_column"`
	TextColumns        []string `toml:"text_columns"`  // carried columns that still get trim+uppercase
	CarryColumns       []string `toml:"carry_columns"` // carried through unchanged
}

// RequiredColumns returns the extract columns that must be present for
// the pipeline to run at all.
func (s *SourceSchema) RequiredColumns() []string {
	return []string{
		s.SSNColumn,
		s.HouseholdSSNColumn,
		s.FirstNameColumn,
		s.LastNameColumn,
		s.GenderColumn,
		s.DOBColumn,
		s.ActivityDateColumn,
		s.HouseholdIDColumn,
	}
}

// Fields holds the per-source column role configuration.
type Fields struct {
	KCHA SourceSchema `toml:"kcha"`
	SHA  SourceSchema `toml:"sha"`
}

// ForSource returns the schema for a provenance tag.
func (f *Fields) ForSource(source string) (*SourceSchema, error) {
	switch source {
	case record.SourceKCHA:
		return &f.KCHA, nil
	case record.SourceSHA:
		return &f.SHA, nil
	default:
		return nil, fmt.Errorf("unknown source: %s", source)
	}
}

// LoadFields loads the field role configuration from a TOML file, falling
// back to the built-in defaults when the file does not exist.
func LoadFields(path string) (*Fields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultFields(), nil
		}
		return nil, fmt.Errorf("failed to read field config %s: %w", path, err)
	}

	fields := DefaultFields()
	if err := toml.Unmarshal(data, fields); err != nil {
		return nil, fmt.Errorf("failed to parse field config %s: %w", path, err)
	}
	return fields, nil
}

// DefaultFields returns the column mappings for the standard KCHA and SHA
// tenancy extracts.
func DefaultFields() *Fields {
	return &Fields{
		KCHA: SourceSchema{
			SSNColumn:          "ssn",
			HouseholdSSNColumn: "hh_ssn",
			FirstNameColumn:    "fname",
			MiddleNameColumn:   "mname",
			LastNameColumn:     "lname",
			GenderColumn:       "gender",
			DOBColumn:          "dob",
			ActivityDateColumn: "act_date",
			HouseholdIDColumn:  "hh_id",
			TextColumns:        []string{"unit_address", "property_name"},
			CarryColumns:       []string{"unit_address", "property_name", "race", "program_type", "bedrooms"},
		},
		SHA: SourceSchema{
			SSNColumn:          "mbr_ssn",
			HouseholdSSNColumn: "head_ssn",
			FirstNameColumn:    "first_name",
			MiddleNameColumn:   "middle_name",
			LastNameColumn:     "last_name",
			GenderColumn:       "sex",
			DOBColumn:          "birth_date",
			ActivityDateColumn: "activity_date",
			HouseholdIDColumn:  "household_id",
			TextColumns:        []string{"unit_address"},
			CarryColumns:       []string{"unit_address", "race", "program_type", "bedrooms"},
		},
	}
}
