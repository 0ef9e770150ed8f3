package utils

import (
	"strings"
	"unicode"
)

// CleanFileNumber trims surrounding whitespace from a file number. The
// identifier itself is opaque; no digit-only or checksum rules apply.
func CleanFileNumber(fileNumber string) string {
	return strings.TrimSpace(fileNumber)
}

// IsValidFileNumber reports whether the identifier is a non-empty printable
// token without interior whitespace.
func IsValidFileNumber(fileNumber string) bool {
	if fileNumber == "" {
		return false
	}
	for _, r := range fileNumber {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
