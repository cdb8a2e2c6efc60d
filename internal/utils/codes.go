package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// CodeAlphabet is the set of characters used in retrieval codes. Visually
// ambiguous characters (0/O, 1/I) are excluded so codes survive being read
// aloud or retyped.
const CodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// CodeLength is the number of characters in a retrieval code.
const CodeLength = 6

// GenerateCode returns a random retrieval code. Each character is drawn
// uniformly and independently from CodeAlphabet; uniqueness is enforced by
// the record store's constraint, not here.
func GenerateCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	// len(CodeAlphabet) is 32, so masking the low 5 bits keeps the
	// distribution uniform.
	code := make([]byte, CodeLength)
	for i, b := range buf {
		code[i] = CodeAlphabet[int(b)&31]
	}

	return string(code), nil
}

// NormalizeCode canonicalizes a user-typed code for case-insensitive lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether a string is a well-formed retrieval code after
// normalization.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(CodeAlphabet, c) {
			return false
		}
	}
	return true
}
