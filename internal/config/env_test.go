package config

import "testing"

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"set", "40", 40},
		{"unset", "", 20},
		{"not numeric", "lots", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("PGMAXCONNS", tt.value)
			}
			if got := GetEnvInt("PGMAXCONNS", 20); got != tt.want {
				t.Errorf("GetEnvInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"on", "on", true},
		{"numeric true", "1", true},
		{"no", "no", false},
		{"unset", "", false},
		{"unrecognized", "maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("LINKAGE_DEBUG", tt.value)
			}
			if got := GetEnvBool("LINKAGE_DEBUG", false); got != tt.want {
				t.Errorf("GetEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}
