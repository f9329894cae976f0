package phonetics

import (
	"strings"
	"unicode"
)

// soundexCodes maps consonants to their Soundex digit classes. Vowels
// and Y carry no code and separate duplicates (the same class codes
// twice across a vowel); H and W carry no code but do not separate.
var soundexCodes = map[byte]byte{
	'B': '1', 'F': '1', 'P': '1', 'V': '1',
	'C': '2', 'G': '2', 'J': '2', 'K': '2', 'Q': '2', 'S': '2', 'X': '2', 'Z': '2',
	'D': '3', 'T': '3',
	'L': '4',
	'M': '5', 'N': '5',
	'R': '6',
}

// AlphaOnly strips punctuation, digits and whitespace from a string,
// leaving upper-cased letters only.
func AlphaOnly(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) && r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Soundex returns the classic 4-character phonetic code for a name: the
// first letter retained, subsequent letters mapped to digit classes with
// duplicates collapsed, zero-padded or truncated to 4 characters. Empty
// input yields an empty code.
func Soundex(name string) string {
	s := AlphaOnly(name)
	if s == "" {
		return ""
	}

	first := s[0]
	prev := soundexCodes[first] // zero when the first letter is uncoded

	code := []byte{first}
	for i := 1; i < len(s) && len(code) < 4; i++ {
		c := s[i]
		d, ok := soundexCodes[c]
		if !ok {
			// Vowels and Y reset the duplicate check; H and W keep it.
			if c != 'H' && c != 'W' {
				prev = 0
			}
			continue
		}
		if d == prev {
			continue
		}
		code = append(code, d)
		prev = d
	}

	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code)
}

// NamePrefix returns the fixed-length prefix key: the first 3 characters
// of the alphabetic-only name, or the whole string when shorter.
func NamePrefix(name string) string {
	s := AlphaOnly(name)
	if len(s) > 3 {
		return s[:3]
	}
	return s
}
