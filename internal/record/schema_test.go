package record

import (
	"strings"
	"testing"
)

func TestValidateHeader(t *testing.T) {
	header := []string{"SSN", " hh_ssn ", "fname", "lname", "gender", "dob", "act_date", "hh_id"}

	if err := ValidateHeader(header, []string{"ssn", "hh_ssn", "fname"}); err != nil {
		t.Errorf("ValidateHeader() error = %v, want nil", err)
	}

	err := ValidateHeader(header, []string{"ssn", "mbr_ssn", "birth_date"})
	if err == nil {
		t.Fatal("ValidateHeader() should fail on missing columns")
	}
	if !strings.Contains(err.Error(), "mbr_ssn") || !strings.Contains(err.Error(), "birth_date") {
		t.Errorf("error should name the missing columns: %v", err)
	}
}
