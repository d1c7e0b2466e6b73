// Package empid canonicalizes employee identifiers found in time-clock exports.
package empid

import (
	"strings"
)

const (
	// Prefix is the fixed prefix of every canonical employee ID.
	Prefix = "RBIS"
	// Width is the zero-padded width of the numeric part.
	Width = 4

	nullSentinel = "nan"
)

// Normalize converts a raw identifier to the canonical "RBIS0000" form.
//
//	"5"        -> "RBIS0005"
//	"RBIS7"    -> "RBIS0007"
//	"rbis0045" -> "RBIS0045"
//	"abc"      -> "ABC"
//	""         -> ""
//
// An empty result means the caller should skip the row.
func Normalize(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" || strings.EqualFold(id, nullSentinel) {
		return ""
	}

	upper := strings.ToUpper(id)
	if strings.HasPrefix(upper, Prefix) {
		return pad(digitsOnly(upper[len(Prefix):]))
	}

	if isDigits(id) {
		return pad(id)
	}

	return upper
}

func pad(digits string) string {
	if n := Width - len(digits); n > 0 {
		digits = strings.Repeat("0", n) + digits
	}
	return Prefix + digits
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
