package extract

import (
	"log/slog"
	"sort"

	"kmrecon/internal/core"
	"kmrecon/internal/table"
)

// Extractor converts raw tables into typed records. The zero value is not
// usable; construct with New.
type Extractor struct {
	registry  core.Registry
	normalize core.DateNormalizer
}

// New returns an extractor for the given vehicle registry. A nil normalizer
// selects the default month-first heuristic.
func New(registry core.Registry, normalize core.DateNormalizer) *Extractor {
	if normalize == nil {
		normalize = core.NormalizeDate
	}
	return &Extractor{registry: registry, normalize: normalize}
}

// Trips extracts MAIN logbook records. When any required column is missing
// the result is empty, not an error: the dashboard still renders with
// telemetry-only data. Unknown registrations and undated rows are counted
// in diag and skipped.
func (e *Extractor) Trips(t table.RawTable, diag *core.Diagnostics) []core.TripRecord {
	cols := MainSchema().Resolve(t.Headers)
	if !cols.Has(FieldRegistration, FieldDate, FieldOdoStart, FieldOdoEnd) {
		if len(t.Headers) > 0 {
			slog.Warn("MAIN table missing required columns, skipping aggregation",
				"table", t.Name, "headers", len(t.Headers))
		}
		return nil
	}

	var trips []core.TripRecord
	for _, row := range t.Rows {
		reg := e.registry.Extract(cols.Cell(row, FieldRegistration))
		if !e.registry.Contains(reg) {
			if reg != "" {
				diag.UnknownRegistrations++
			}
			continue
		}
		date := e.normalize(cols.Cell(row, FieldDate))
		if date == "" {
			diag.RowsWithoutDate++
			continue
		}

		start := core.ParseOdometer(cols.Cell(row, FieldOdoStart))
		end := core.ParseOdometer(cols.Cell(row, FieldOdoEnd))
		distance := end - start
		if distance < 0 {
			// Rollover or swapped entry: clamp rather than propagate.
			diag.NegativeDeltas++
			distance = 0
		}

		trips = append(trips, core.TripRecord{
			Vehicle:  core.VehicleID(reg),
			Driver:   cols.Cell(row, FieldDriver),
			Date:     date,
			Distance: distance,
		})
	}
	return trips
}

// Telemetry extracts the stop events of one vehicle tab, sorted by date for
// stable iteration. Records without a date are dropped; unparsable
// distances become zero and are kept, the noise filter decides later.
func (e *Extractor) Telemetry(t table.RawTable, vehicle core.VehicleID, diag *core.Diagnostics) []core.TelemetryRecord {
	cols := VehicleSchema().Resolve(t.Headers)
	if !cols.Has(FieldStopTime, FieldDistance) {
		if len(t.Headers) > 0 {
			slog.Warn("vehicle table missing stop time or dist column",
				"table", t.Name, "vehicle", vehicle)
		}
		return nil
	}

	var records []core.TelemetryRecord
	for _, row := range t.Rows {
		date := e.normalize(cols.Cell(row, FieldStopTime))
		if date == "" {
			diag.RowsWithoutDate++
			continue
		}
		records = append(records, core.TelemetryRecord{
			Vehicle:  vehicle,
			Date:     date,
			Distance: core.ParseDistance(cols.Cell(row, FieldDistance)),
		})
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	return records
}
