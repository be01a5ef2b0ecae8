// Package core holds the reconciliation domain: vehicles, records, totals
// and the normalization helpers shared by every pipeline stage.
//
// This file implements canonical date handling. Sheet exports mix formats
// like "01/15/24", "15/01/2024 10:30" and already-canonical "2024-01-15";
// everything is reduced to YYYY-MM-DD before it is used as an aggregation
// key.
package core

import "strings"

const canonicalLayout = "2006-01-02"

// DateNormalizer converts free-form date text to canonical YYYY-MM-DD.
// It is a pluggable strategy so a stricter, locale-aware parser can replace
// the default heuristic without touching extraction or aggregation.
type DateNormalizer func(string) string

// NormalizeDate is the default best-effort normalizer.
//
// It drops everything after the first space (time-of-day suffix), splits the
// remainder on "/", and when exactly three parts come out it assumes
// month-first unless the first part exceeds 12. Two-digit years get a "20"
// prefix. Anything that does not split into three parts passes through
// unchanged, and empty input yields empty output; it never fails.
//
// The month/day choice is ambiguous when both parts are <= 12 (e.g.
// "03/04/24"): month-first wins, matching the source sheet. This is a known
// accuracy limitation, kept deliberately.
func NormalizeDate(s string) string {
	if s == "" {
		return ""
	}
	datePart, _, _ := strings.Cut(s, " ")
	parts := strings.Split(datePart, "/")
	if len(parts) != 3 {
		return datePart
	}

	var month, day string
	if atoiLoose(parts[0]) > 12 {
		day = pad2(parts[0])
		month = pad2(parts[1])
	} else {
		month = pad2(parts[0])
		day = pad2(parts[1])
	}
	year := parts[2]
	if len(year) == 2 {
		year = "20" + year
	}
	return year + "-" + month + "-" + day
}

func pad2(s string) string {
	if len(s) < 2 {
		return strings.Repeat("0", 2-len(s)) + s
	}
	return s
}

// atoiLoose parses the leading digits of s, mirroring parseInt semantics:
// "15th" is 15, garbage is 0.
func atoiLoose(s string) int {
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}
