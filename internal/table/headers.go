package table

import (
	"regexp"
	"strings"
)

// placeholderHeaders are tokens the sheet export emits for unnamed columns.
var placeholderHeaders = map[string]struct{}{
	"column":    {},
	"null":      {},
	"undefined": {},
	"nan":       {},
	"-":         {},
	"":          {},
}

// autoColumnRe matches spreadsheet auto-generated names like "Column 12".
var autoColumnRe = regexp.MustCompile(`(?i)^column\s*\d+$`)

// IsValidHeader reports whether a column name is semantically usable:
// non-empty after trimming, not a placeholder token, and not an
// auto-generated "Column N" name.
func IsValidHeader(header string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	if _, bad := placeholderHeaders[h]; bad {
		return false
	}
	return !autoColumnRe.MatchString(h)
}

// ClassifyHeaders filters the parser's first row down to the valid column
// names and returns, alongside them, the original indices of the retained
// columns. Projecting data rows through the same index list keeps rows and
// headers aligned by construction.
func ClassifyHeaders(raw []string) (headers []string, keep []int) {
	for i, h := range raw {
		if IsValidHeader(h) {
			headers = append(headers, strings.TrimSpace(h))
			keep = append(keep, i)
		}
	}
	return headers, keep
}

// Project maps a raw row onto the retained columns. Cells are trimmed;
// positions past the end of a ragged row become empty strings.
func Project(row []string, keep []int) []string {
	out := make([]string, len(keep))
	for i, idx := range keep {
		if idx < len(row) {
			out[i] = strings.TrimSpace(row[idx])
		}
	}
	return out
}
