// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatNumber formats a value with the given decimals and comma-grouped thousands.
func FormatNumber(value float64, decimals int) string {
	negative := value < 0 && math.Abs(value) >= 0.5*math.Pow10(-decimals)
	str := fmt.Sprintf("%.*f", decimals, math.Abs(value))

	intPart, decPart := str, ""
	if i := strings.IndexByte(str, '.'); i >= 0 {
		intPart, decPart = str[:i], str[i:]
	}

	result := groupThousands(intPart) + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts a comma every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatSigned formats a value like FormatNumber with an explicit '+' on positives.
func FormatSigned(value float64, decimals int) string {
	formatted := FormatNumber(value, decimals)
	if value > 0 && strings.Trim(formatted, "0.,") != "" {
		return "+" + formatted
	}
	return formatted
}

// FormatPercent formats a percentage with two decimals.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.2f%%", value)
}
