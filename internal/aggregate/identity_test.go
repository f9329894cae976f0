package aggregate

import (
	"testing"
	"time"

	"github.com/pha-linkage/internal/record"
)

func datePtr(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func int64Ptr(v int64) *int64 {
	return &v
}

// member builds a non-junk group member sharing SSN 537281964.
func member(last, first, dob, activity, gender string) *record.PersonPeriod {
	return &record.PersonPeriod{
		SSNClean:       int64Ptr(537281964),
		SSNAltIsJunk:   true,
		LastNameClean:  last,
		FirstNameClean: first,
		Gender:         gender,
		DOB:            datePtr(dob),
		ActivityDate:   datePtr(activity),
	}
}

func TestApplyFrequencies(t *testing.T) {
	records := []*record.PersonPeriod{
		member("SMITH", "JOHN", "1974-06-30", "2019-01-01", "M"),
		member("SMITH", "JOHN", "1974-06-30", "2020-01-01", "MALE"),
		member("SMYTHE", "JON", "1974-06-03", "2021-01-01", "M"),
	}

	Apply(records)

	for i, rec := range records {
		if rec.SurnameMostRecent == nil || *rec.SurnameMostRecent != "SMYTHE" {
			t.Errorf("record %d: surname most recent = %v, want SMYTHE", i, rec.SurnameMostRecent)
		}
		if rec.GenderClean == nil || *rec.GenderClean != "M" {
			t.Errorf("record %d: gender clean = %v, want M", i, rec.GenderClean)
		}
		if rec.GenderFrequency == nil || *rec.GenderFrequency != 3 {
			t.Errorf("record %d: gender frequency = %v, want 3", i, rec.GenderFrequency)
		}
	}

	if *records[0].SurnameFrequency != 2 || *records[2].SurnameFrequency != 1 {
		t.Errorf("surname frequencies = %d, %d, want 2, 1",
			*records[0].SurnameFrequency, *records[2].SurnameFrequency)
	}
	if *records[0].DOBFrequency != 2 || *records[2].DOBFrequency != 1 {
		t.Errorf("dob frequencies = %d, %d, want 2, 1",
			*records[0].DOBFrequency, *records[2].DOBFrequency)
	}
	if *records[0].FirstNameFrequency != 2 || *records[2].FirstNameFrequency != 1 {
		t.Errorf("first name frequencies = %d, %d, want 2, 1",
			*records[0].FirstNameFrequency, *records[2].FirstNameFrequency)
	}
}

func TestApplyMostRecentSurnameNoBackfill(t *testing.T) {
	// Adversarial case: the latest record carries an empty surname. The
	// broadcast value is taken literally from that record, not backfilled
	// from earlier non-empty rows.
	records := []*record.PersonPeriod{
		member("SMITH", "JOHN", "1974-06-30", "2020-01-01", "M"),
		member("", "JOHN", "1974-06-30", "2021-01-01", "M"),
	}

	Apply(records)

	for i, rec := range records {
		if rec.SurnameMostRecent == nil {
			t.Fatalf("record %d: surname most recent is nil for non-junk group", i)
		}
		if *rec.SurnameMostRecent != "" {
			t.Errorf("record %d: surname most recent = %q, want empty (no backfill)",
				i, *rec.SurnameMostRecent)
		}
	}
}

func TestApplyMostRecentSurnameTieBreak(t *testing.T) {
	// Equal activity dates: the row later in the original ordering wins.
	records := []*record.PersonPeriod{
		member("SMITH", "JOHN", "1974-06-30", "2021-01-01", "M"),
		member("SMYTHE", "JOHN", "1974-06-30", "2021-01-01", "M"),
	}

	Apply(records)

	if *records[0].SurnameMostRecent != "SMYTHE" {
		t.Errorf("surname most recent = %q, want SMYTHE (latest row wins ties)",
			*records[0].SurnameMostRecent)
	}
}

func TestApplyJunkGroupsGetNilAggregates(t *testing.T) {
	junk := &record.PersonPeriod{
		SSNIsJunk:      true,
		SSNAltIsJunk:   true,
		LastNameClean:  "SMITH",
		FirstNameClean: "JOHN",
		Gender:         "M",
	}
	records := []*record.PersonPeriod{
		junk,
		member("SMITH", "JOHN", "1974-06-30", "2020-01-01", "M"),
	}

	Apply(records)

	if junk.DOBFrequency != nil || junk.FirstNameFrequency != nil ||
		junk.MiddleNameFrequency != nil || junk.SurnameFrequency != nil ||
		junk.SuffixFrequency != nil || junk.SurnameMostRecent != nil ||
		junk.GenderClean != nil || junk.GenderFrequency != nil {
		t.Errorf("junk identifier pair must leave every aggregate nil: %+v", junk)
	}

	if records[1].SurnameFrequency == nil {
		t.Errorf("non-junk group member should still be aggregated")
	}
}

func TestApplyGroupsByPairNotNumberAlone(t *testing.T) {
	// A junk numeric value with a usable alternate still forms a group,
	// keyed by the pair.
	a := &record.PersonPeriod{
		SSNIsJunk:     true,
		SSNAlt:        "A12345678",
		LastNameClean: "GARCIA",
		ActivityDate:  datePtr("2020-01-01"),
	}
	b := &record.PersonPeriod{
		SSNIsJunk:     true,
		SSNAlt:        "A12345678",
		LastNameClean: "GARCIA",
		ActivityDate:  datePtr("2021-01-01"),
	}
	other := &record.PersonPeriod{
		SSNIsJunk:     true,
		SSNAlt:        "B98765432",
		LastNameClean: "GARCIA",
		ActivityDate:  datePtr("2022-01-01"),
	}

	Apply([]*record.PersonPeriod{a, b, other})

	if a.SurnameFrequency == nil || *a.SurnameFrequency != 2 {
		t.Errorf("surname frequency = %v, want 2 within the alternate-keyed group", a.SurnameFrequency)
	}
	if other.SurnameFrequency == nil || *other.SurnameFrequency != 1 {
		t.Errorf("surname frequency = %v, want 1 for the other alternate", other.SurnameFrequency)
	}
}

func TestNormalizeGender(t *testing.T) {
	tests := []struct {
		input string
		want  string // empty means nil expected
	}{
		{"M", "M"},
		{"male", "M"},
		{"1", "M"},
		{"F", "F"},
		{"Female", "F"},
		{"2", "F"},
		{"U", ""},
		{"", ""},
		{"3", ""},
	}

	for _, tt := range tests {
		got := NormalizeGender(tt.input)
		if tt.want == "" {
			if got != nil {
				t.Errorf("NormalizeGender(%q) = %q, want nil", tt.input, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("NormalizeGender(%q) = %v, want %q", tt.input, got, tt.want)
		}
	}
}
