package engine

import (
	"reflect"
	"testing"

	"github.com/pha-linkage/internal/config"
	"github.com/pha-linkage/internal/record"
)

func testRecords() []*record.PersonPeriod {
	return []*record.PersonPeriod{
		{
			ID:           1,
			Source:       record.SourceKCHA,
			SSN:          "123-45-6789",
			HouseholdSSN: "123-45-6789",
			FirstName:    " john a ",
			LastName:     "smith jr",
			Gender:       "M",
			DOBRaw:       "1974-06-30",
			ActivityRaw:  "2019-03-01",
			Extra:        map[string]string{"unit_address": " 12 main st "},
		},
		{
			ID:           2,
			Source:       record.SourceSHA,
			SSN:          "123456789",
			HouseholdSSN: "000000000",
			FirstName:    "JON",
			LastName:     "SMYTHE",
			Gender:       "male",
			DOBRaw:       "1974-06-30",
			ActivityRaw:  "2021-07-15",
		},
		{
			ID:          3,
			Source:      record.SourceSHA,
			SSN:         "000000000",
			FirstName:   "JANE",
			LastName:    "DOE",
			Gender:      "F",
			DOBRaw:      "not a date",
			ActivityRaw: "2020-01-01",
		},
	}
}

func snapshot(records []*record.PersonPeriod) []record.PersonPeriod {
	out := make([]record.PersonPeriod, len(records))
	for i, rec := range records {
		out[i] = *rec
	}
	return out
}

func TestPipelineEndToEnd(t *testing.T) {
	records := testRecords()
	p := NewPipeline(config.DefaultFields(), 2)

	if err := p.Run(records); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Record 1: dashed SSN cleaned, initial and suffix extracted, keys
	// generated from the stripped surname.
	r := records[0]
	if r.SSNClean == nil || *r.SSNClean != 123456789 {
		t.Errorf("ssn clean = %v, want 123456789", r.SSNClean)
	}
	if r.SSNIsJunk {
		t.Errorf("123456789 should not classify as junk")
	}
	if r.FirstNameClean != "JOHN" || r.MiddleNameClean != "A" {
		t.Errorf("name decomposition = %q / %q, want JOHN / A", r.FirstNameClean, r.MiddleNameClean)
	}
	if r.LastNameClean != "SMITH" || r.LastNameSuffix != "JR" {
		t.Errorf("surname decomposition = %q / %q, want SMITH / JR", r.LastNameClean, r.LastNameSuffix)
	}
	if r.NamePhoneticKey != "S530" || r.NamePrefixKey != "SMI" {
		t.Errorf("keys = %q / %q, want S530 / SMI", r.NamePhoneticKey, r.NamePrefixKey)
	}
	if r.Extra["unit_address"] != "12 MAIN ST" {
		t.Errorf("configured text column not normalized: %q", r.Extra["unit_address"])
	}

	// Records 1 and 2 share an identifier pair and a DOB.
	if r.DOBFrequency == nil || *r.DOBFrequency != 2 {
		t.Errorf("dob frequency = %v, want 2", r.DOBFrequency)
	}
	if r.SurnameMostRecent == nil || *r.SurnameMostRecent != "SMYTHE" {
		t.Errorf("surname most recent = %v, want SMYTHE", r.SurnameMostRecent)
	}
	if records[1].NamePhoneticKey != "S530" {
		t.Errorf("variant spelling key = %q, want S530", records[1].NamePhoneticKey)
	}

	// Record 2's household identifier is junk but its person identifier
	// is not; aggregates must still be present.
	if !records[1].HouseholdSSNIsJunk {
		t.Errorf("all-zero household ssn should classify as junk")
	}
	if records[1].FirstNameFrequency == nil {
		t.Errorf("non-junk person identifier should still be aggregated")
	}

	// Record 3's identifier pair is fully junk: every aggregate nil,
	// unparseable DOB recovered to nil rather than raised.
	r3 := records[2]
	if !r3.SSNIsJunk || !r3.SSNAltIsJunk {
		t.Errorf("all-zero ssn with empty alternate should be fully junk")
	}
	if r3.DOB != nil {
		t.Errorf("unparseable dob = %v, want nil", r3.DOB)
	}
	if r3.DOBFrequency != nil || r3.SurnameMostRecent != nil || r3.GenderFrequency != nil {
		t.Errorf("fully junk pair must leave aggregates nil: %+v", r3)
	}
}

func TestPipelineDeterministic(t *testing.T) {
	first := testRecords()
	second := testRecords()

	p := NewPipeline(config.DefaultFields(), 3)
	if err := p.Run(first); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := p.Run(second); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !reflect.DeepEqual(snapshot(first), snapshot(second)) {
		t.Errorf("two runs over the same input diverged")
	}

	// Re-running over already-enriched records must also be a no-op.
	before := snapshot(first)
	if err := p.Run(first); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !reflect.DeepEqual(before, snapshot(first)) {
		t.Errorf("pipeline is not idempotent over its own output")
	}
}

func TestPipelineUnknownSource(t *testing.T) {
	records := []*record.PersonPeriod{{ID: 9, Source: "hud"}}
	p := NewPipeline(config.DefaultFields(), 1)

	if err := p.Run(records); err == nil {
		t.Errorf("Run() with unknown provenance tag should fail")
	}
}
