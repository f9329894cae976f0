package phonetics

import (
	"testing"
)

func TestSoundex(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ROBERT", "R163"},
		{"RUPERT", "R163"},
		{"SMITH", "S530"},
		{"SMYTHE", "S530"},
		{"ASHCRAFT", "A261"},
		{"PFISTER", "P236"},
		{"WASHINGTON", "W252"},
		{"JACKSON", "J250"},
		{"EULER", "E460"},
		{"GAUSS", "G200"},
		{"HILBERT", "H416"},
		{"TYMCZAK", "T522"},  // C and Z collapse but vowel-separated K codes again
		{"HONEYMAN", "H555"}, // N, M, N all code: vowels separate each pair
		{"BOOTH", "B300"},    // H after T does not separate; OO collapses to nothing
		{"KNUTH", "K530"},
		{"LLOYD", "L300"},
		{"LEE", "L000"},
		{"O'BRIEN", "O165"},
		{"smith", "S530"},
		{"SMITH JR", "S532"}, // keys are generated after suffix removal
		{"", ""},
		{"123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Soundex(tt.input); got != tt.want {
				t.Errorf("Soundex(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSoundexCollapsesVariantSpellings(t *testing.T) {
	pairs := [][2]string{
		{"SMITH", "SMYTHE"},
		{"ROBERT", "RUPERT"},
		{"JOHN", "JON"},
	}

	for _, pair := range pairs {
		a, b := Soundex(pair[0]), Soundex(pair[1])
		if a == "" || a != b {
			t.Errorf("Soundex(%q) = %q, Soundex(%q) = %q, want equal non-empty codes",
				pair[0], a, pair[1], b)
		}
	}
}

func TestAlphaOnly(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"O'BRIEN", "OBRIEN"},
		{"SMITH JR", "SMITHJR"},
		{"MARY-ANNE", "MARYANNE"},
		{"J0HN", "JHN"},
		{"  lee  ", "LEE"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := AlphaOnly(tt.input); got != tt.want {
			t.Errorf("AlphaOnly(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNamePrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"SMITH", "SMI"},
		{"O'BRIEN", "OBR"},
		{"NG", "NG"},
		{"", ""},
		{"1-2", ""},
	}

	for _, tt := range tests {
		if got := NamePrefix(tt.input); got != tt.want {
			t.Errorf("NamePrefix(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
