package utils

import (
	"strings"
	"unicode"
)

// ExportedName converts a member name into an exported Go identifier,
// e.g. "shipping_address" -> "ShippingAddress", "id" -> "Id".
func ExportedName(name string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upperNext = true
			continue
		}
		if upperNext {
			r = unicode.ToUpper(r)
			upperNext = false
		}
		b.WriteRune(r)
	}

	result := b.String()
	if result == "" {
		return "X"
	}
	if unicode.IsDigit(rune(result[0])) {
		result = "X" + result
	}
	return result
}
