package inventory

import (
	"math"
	"strconv"
	"strings"
)

// Areas at or above the threshold were entered in hundredths of a square
// metre and are scaled down by the divisor.
const (
	AreaScaleThreshold = 1000
	AreaScaleDivisor   = 100
)

// ParseNumber reads a locale-formatted number ("1.234,56", "12,5", "450")
// from v, returning fallback when v is absent or unparseable
func ParseNumber(v Value, fallback float64) float64 {
	f, ok := number(v)
	if !ok {
		return fallback
	}
	return f
}

// ParseArea is ParseNumber with the area scale correction applied to
// parsed values. The fallback is returned unscaled.
func ParseArea(v Value, fallback float64) float64 {
	f, ok := number(v)
	if !ok {
		return fallback
	}
	if f >= AreaScaleThreshold {
		f /= AreaScaleDivisor
	}
	return f
}

func number(v Value) (float64, bool) {
	if f, ok := v.Float(); ok {
		return f, finite(f)
	}
	if v.IsAbsent() {
		return 0, false
	}
	return parseLocaleNumber(v.String())
}

// parseLocaleNumber normalises decimal separators: with both '.' and ','
// present the dots are thousands separators, a lone ',' is the decimal mark
func parseLocaleNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		}
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(f) {
		return 0, false
	}
	return f, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
