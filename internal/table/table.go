// Package table turns raw spreadsheet CSV exports into aligned, cleaned
// tables. Parsing is deliberately forgiving: exports from the tracking sheet
// carry placeholder headers, ragged rows and stray blank lines, and the
// pipeline downstream prefers dropped cells over hard failures.
package table

import (
	"strings"

	"kmrecon/internal/core"
)

// RawTable is one loaded sheet tab: the retained headers, the data rows
// projected onto those headers, and the kind of table it is.
//
// Invariant: every row in Rows has exactly len(Headers) cells; fully empty
// rows are excluded at load time.
type RawTable struct {
	Name    string
	Kind    core.SourceKind
	Headers []string
	Rows    [][]string
}

// Empty returns a well-formed table with no data, used when a source fails
// to load so the rest of the pipeline can proceed.
func Empty(name string, kind core.SourceKind) RawTable {
	return RawTable{Name: name, Kind: kind}
}

// Load parses CSV text into a RawTable: first row classified into valid
// headers, remaining rows projected onto the retained columns.
func Load(name string, kind core.SourceKind, csvText string) RawTable {
	rows := ParseCSV(csvText)
	if len(rows) == 0 {
		return Empty(name, kind)
	}
	headers, keep := ClassifyHeaders(rows[0])
	t := RawTable{Name: name, Kind: kind, Headers: headers}
	for _, row := range rows[1:] {
		projected := Project(row, keep)
		if isEmptyRow(projected) {
			continue
		}
		t.Rows = append(t.Rows, projected)
	}
	return t
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
