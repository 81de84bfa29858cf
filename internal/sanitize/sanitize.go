// Package sanitize normalizes untrusted text and numeric input before it
// enters the store. It is applied at mutation boundaries only.
package sanitize

import (
	"math"
	"strconv"
	"strings"
)

// Length limits.
const (
	MaxLen     = 500
	NameMaxLen = 40
)

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// String strips angle brackets, trims whitespace and truncates to MaxLen runes.
func String(s string) string { return StringN(s, MaxLen) }

// StringN is String with an explicit rune limit.
func StringN(s string, n int) string {
	s = strings.TrimSpace(angleBrackets.Replace(s))
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}

// Number coerces v to a finite float64. Non-numeric input yields 0.
func Number(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
