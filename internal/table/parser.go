package table

import "strings"

// ParseCSV splits raw delimited text into rows of string fields.
//
// A quote-toggle state machine handles double-quoted fields containing
// commas: '"' flips the in-quote flag, ',' splits only outside quotes, and
// every other character is appended to the current field. Blank lines are
// skipped entirely, which means a quoted field spanning a blank line is not
// supported; the Google Sheets CSV export never produces one. Rows are not
// validated against a column count, ragged rows pass through as-is.
func ParseCSV(csvText string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(csvText, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		var (
			row     []string
			field   strings.Builder
			inQuote bool
		)
		for _, ch := range line {
			switch {
			case ch == '"':
				inQuote = !inQuote
			case ch == ',' && !inQuote:
				row = append(row, field.String())
				field.Reset()
			default:
				field.WriteRune(ch)
			}
		}
		row = append(row, field.String())
		rows = append(rows, row)
	}
	return rows
}
