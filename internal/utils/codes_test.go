package utils

import (
	"strings"
	"testing"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode()
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}

	if len(code) != CodeLength {
		t.Errorf("expected code length %d, got %d", CodeLength, len(code))
	}

	for _, c := range code {
		if !strings.ContainsRune(CodeAlphabet, c) {
			t.Errorf("code contains character %q outside the alphabet", c)
		}
	}
}

func TestGenerateCodeExcludesAmbiguousCharacters(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode failed: %v", err)
		}
		if strings.ContainsAny(code, "0O1I") {
			t.Errorf("code %q contains ambiguous character", code)
		}
	}
}

func TestGenerateCodeUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode failed: %v", err)
		}
		seen[code] = true
	}

	// 32^6 possible codes; 1000 draws colliding heavily would indicate a
	// broken generator.
	if len(seen) < 990 {
		t.Errorf("expected at least 990 unique codes out of 1000, got %d", len(seen))
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "abc234", "ABC234"},
		{"mixed case", "aBc234", "ABC234"},
		{"whitespace", "  ABC234  ", "ABC234"},
		{"already normalized", "ABC234", "ABC234"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCode(tt.input); got != tt.want {
				t.Errorf("NormalizeCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"valid", "ABC234", true},
		{"valid all letters", "ABCDEF", true},
		{"too short", "ABC23", false},
		{"too long", "ABC2345", false},
		{"contains zero", "ABC230", false},
		{"contains O", "ABCO23", false},
		{"contains one", "ABC123", false},
		{"contains I", "ABI234", false},
		{"lowercase not normalized", "abc234", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCode(tt.code); got != tt.want {
				t.Errorf("ValidCode(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}
