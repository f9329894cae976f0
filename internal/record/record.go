package record

import "time"

// Provenance tags for the two source housing authorities.
const (
	SourceKCHA = "kcha"
	SourceSHA  = "sha"
)

// PersonPeriod represents one contiguous tenancy interval for one person
// at a housing authority. Raw fields are carried through unchanged; the
// pipeline stages append derived identity fields and never remove or
// overwrite the raw values.
type PersonPeriod struct {
	ID     int64
	Source string // provenance tag: kcha or sha

	// Raw fields as loaded from the source extract
	HouseholdID  string
	SSN          string
	HouseholdSSN string
	FirstName    string
	MiddleName   string
	LastName     string
	Gender       string
	DOBRaw       string
	ActivityRaw  string
	Extra        map[string]string // demographic/unit columns carried unchanged

	// Stage 1: field normalization
	DOB          *time.Time
	ActivityDate *time.Time

	// Stage 2: identifier classification
	SSNClean              *int64
	SSNAlt                string
	SSNIsJunk             bool
	SSNAltIsJunk          bool
	HouseholdSSNClean     *int64
	HouseholdSSNAlt       string
	HouseholdSSNIsJunk    bool
	HouseholdSSNAltIsJunk bool

	// Stage 3: name decomposition
	FirstNameClean  string
	MiddleNameClean string
	LastNameClean   string
	LastNameSuffix  string

	// Stage 4: matching keys
	NamePhoneticKey string
	NamePrefixKey   string

	// Stage 5: per-identity aggregates. All nil when the record's
	// identifier pair is fully junk, signalling that no reliable
	// identity grouping is available for the row.
	DOBFrequency        *int
	FirstNameFrequency  *int
	MiddleNameFrequency *int
	SurnameFrequency    *int
	SuffixFrequency     *int
	SurnameMostRecent   *string
	GenderClean         *string
	GenderFrequency     *int
}
