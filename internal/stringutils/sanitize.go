package stringutils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeUnicodeString drops null bytes and control characters (keeping tab,
// newline and carriage return) so pasted or scraped text cannot smuggle
// unprintable runes into extraction.
func SanitizeUnicodeString(s string) string {
	if utf8.ValidString(s) && !hasControlChars(s) {
		return s
	}

	var builder strings.Builder
	builder.Grow(len(s))

	for _, r := range s {
		if isControlChar(r) {
			continue
		}
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

func isControlChar(r rune) bool {
	if r < 32 && r != '\t' && r != '\n' && r != '\r' {
		return true
	}
	// DEL and the C1 range
	return r == 127 || (r >= 128 && r <= 159)
}

func hasControlChars(s string) bool {
	for _, r := range s {
		if isControlChar(r) {
			return true
		}
	}
	return false
}
