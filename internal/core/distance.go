package core

import (
	"strconv"
	"strings"
)

// ParseDistance converts a telemetry distance cell to kilometres.
//
// Exports use a comma decimal separator ("44,8") and occasionally carry unit
// suffixes or thousands junk; the comma becomes a dot and every character
// that is not a digit, dot or minus sign is stripped before parsing.
// Unparsable values degrade to zero rather than failing the row.
func ParseDistance(s string) float64 {
	if s == "" {
		return 0
	}
	s = strings.Replace(s, ",", ".", 1)
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseOdometer converts a MAIN start/end odometer cell to kilometres.
// Like parseFloat in the source sheet it accepts a leading numeric prefix
// ("120.5 km" is 120.5) and degrades to zero otherwise.
func ParseOdometer(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	end := 0
	seenDot := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			end = i + 1
		case r == '.' && !seenDot:
			seenDot = true
			end = i + 1
		case (r == '-' || r == '+') && i == 0:
			end = i + 1
		default:
			goto done
		}
	}
done:
	f, err := strconv.ParseFloat(strings.TrimRight(s[:end], "."), 64)
	if err != nil {
		return 0
	}
	return f
}
