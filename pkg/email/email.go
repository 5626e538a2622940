// Package email derives presentation values from addresses.
package email

import (
	"strings"
	"unicode"
)

const fallbackName = "Admin"

// DisplayName builds a human name from the local part of an address:
// "jane.doe+ops@example.com" becomes "Jane Doe". Separators are dot,
// underscore, hyphen and plus; only the first and last words are kept.
func DisplayName(address string) string {
	local := strings.TrimSpace(address)
	if at := strings.IndexByte(local, '@'); at >= 0 {
		local = local[:at]
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	switch len(parts) {
	case 0:
		return fallbackName
	case 1:
		return capitalize(parts[0])
	default:
		return capitalize(parts[0]) + " " + capitalize(parts[len(parts)-1])
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
