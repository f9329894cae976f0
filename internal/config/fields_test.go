package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pha-linkage/internal/record"
)

func TestLoadFieldsMissingFileUsesDefaults(t *testing.T) {
	fields, err := LoadFields(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFields() error = %v", err)
	}

	if fields.KCHA.SSNColumn != "ssn" || fields.SHA.SSNColumn != "mbr_ssn" {
		t.Errorf("defaults not applied: %q / %q", fields.KCHA.SSNColumn, fields.SHA.SSNColumn)
	}
}

func TestLoadFieldsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.toml")
	content := `
[kcha]
ssn_column = "member_ssn"
text_columns = ["unit_address"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fields, err := LoadFields(path)
	if err != nil {
		t.Fatalf("LoadFields() error = %v", err)
	}

	if fields.KCHA.SSNColumn != "member_ssn" {
		t.Errorf("kcha ssn column = %q, want member_ssn", fields.KCHA.SSNColumn)
	}
	// Unspecified sections keep their defaults.
	if fields.SHA.SSNColumn != "mbr_ssn" {
		t.Errorf("sha ssn column = %q, want default mbr_ssn", fields.SHA.SSNColumn)
	}
}

func TestForSource(t *testing.T) {
	fields := DefaultFields()

	if _, err := fields.ForSource(record.SourceKCHA); err != nil {
		t.Errorf("ForSource(kcha) error = %v", err)
	}
	if _, err := fields.ForSource(record.SourceSHA); err != nil {
		t.Errorf("ForSource(sha) error = %v", err)
	}
	if _, err := fields.ForSource("hud"); err == nil {
		t.Errorf("ForSource(hud) should fail")
	}
}

func TestRequiredColumns(t *testing.T) {
	schema := &DefaultFields().KCHA
	required := schema.RequiredColumns()

	if len(required) == 0 {
		t.Fatal("no required columns")
	}
	for _, col := range required {
		if col == "" {
			t.Errorf("required column list contains an empty name: %v", required)
		}
	}
}
