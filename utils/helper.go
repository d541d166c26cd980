package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds a percentage for presentation. The engine keeps full float64
// precision; responses round to 2 decimal places the same way everywhere so
// that the same quantity never renders two different values on one dashboard.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// SplitAndTrim splits a comma separated env value into trimmed, non-empty parts.
func SplitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
