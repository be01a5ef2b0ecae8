// Package extract maps cleaned tables onto typed trip and telemetry
// records. Column lookup is alias-driven: each logical field lists the
// header substrings that may name it, resolved once per table into an index
// so row processing never rescans headers.
package extract

import "strings"

// Field is a logical column the extractor needs.
type Field string

const (
	FieldRegistration Field = "registration"
	FieldDriver       Field = "driver"
	FieldDate         Field = "date"
	FieldOdoStart     Field = "odo_start"
	FieldOdoEnd       Field = "odo_end"
	FieldStopTime     Field = "stop_time"
	FieldDistance     Field = "distance"
)

// Schema lists, per logical field, the acceptable header substrings in
// preference order. Matching is case-insensitive containment, so "Truck
// Reg" satisfies both "truck" and "reg".
type Schema map[Field][]string

// MainSchema matches the central logbook tab.
func MainSchema() Schema {
	return Schema{
		FieldRegistration: {"truck", "reg"},
		FieldDriver:       {"driver"},
		FieldDate:         {"date", "timestamp"},
		FieldOdoStart:     {"start"},
		FieldOdoEnd:       {"end"},
	}
}

// VehicleSchema matches the per-vehicle telemetry tabs.
func VehicleSchema() Schema {
	return Schema{
		FieldStopTime: {"stop time"},
		FieldDistance: {"dist"},
	}
}

// Columns is a resolved schema: logical field to column index. Missing
// fields are absent from the map.
type Columns map[Field]int

// Resolve matches the schema against a header row. For each field the first
// alias with a matching header wins; within an alias the leftmost matching
// header wins.
func (s Schema) Resolve(headers []string) Columns {
	cols := make(Columns, len(s))
	for field, aliases := range s {
		for _, alias := range aliases {
			if idx := findColumn(headers, alias); idx != -1 {
				cols[field] = idx
				break
			}
		}
	}
	return cols
}

// Has reports whether every listed field resolved.
func (c Columns) Has(fields ...Field) bool {
	for _, f := range fields {
		if _, ok := c[f]; !ok {
			return false
		}
	}
	return true
}

// Cell returns the row's value for a resolved field, or "" when the field
// is missing or the row is too short.
func (c Columns) Cell(row []string, f Field) string {
	idx, ok := c[f]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func findColumn(headers []string, term string) int {
	term = strings.ToLower(term)
	for i, h := range headers {
		if h != "" && strings.Contains(strings.ToLower(h), term) {
			return i
		}
	}
	return -1
}
