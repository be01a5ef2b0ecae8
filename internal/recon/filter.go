package recon

import (
	"sort"

	"kmrecon/internal/core"
	"kmrecon/internal/extract"
	"kmrecon/internal/table"
)

// FilterMainRows returns the MAIN rows passing the driver, truck and date
// filters. The source rows are never mutated; the result is a derived view
// sharing the row slices.
//
// Rows whose date fails to normalize are not excluded by the date bound:
// only a successfully normalized date is compared. With all filters at
// their zero values the input comes back unchanged.
func FilterMainRows(t table.RawTable, f core.MainFilter, normalize core.DateNormalizer) [][]string {
	if normalize == nil {
		normalize = core.NormalizeDate
	}
	cols := extract.MainSchema().Resolve(t.Headers)

	out := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if f.Driver != "" && f.Driver != core.FilterAll {
			if cols.Cell(row, extract.FieldDriver) != f.Driver {
				continue
			}
		}
		if f.Truck != "" && f.Truck != core.FilterAll {
			if cols.Cell(row, extract.FieldRegistration) != f.Truck {
				continue
			}
		}
		if f.Start != "" || f.End != "" {
			if date := normalize(cols.Cell(row, extract.FieldDate)); date != "" {
				if f.Start != "" && date < f.Start {
					continue
				}
				if f.End != "" && date > f.End {
					continue
				}
			}
		}
		out = append(out, row)
	}
	return out
}

// FilterVehicleRows returns the vehicle-tab rows passing the date bound and
// the always-on noise threshold. The noise filter applies only when a
// distance column exists, and is layered on top of any date filtering.
func FilterVehicleRows(t table.RawTable, f core.VehicleFilter, noise float64, normalize core.DateNormalizer) [][]string {
	if normalize == nil {
		normalize = core.NormalizeDate
	}
	cols := extract.VehicleSchema().Resolve(t.Headers)
	_, hasDist := cols[extract.FieldDistance]

	out := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if f.Start != "" || f.End != "" {
			if date := normalize(cols.Cell(row, extract.FieldStopTime)); date != "" {
				if f.Start != "" && date < f.Start {
					continue
				}
				if f.End != "" && date > f.End {
					continue
				}
			}
		}
		if hasDist && core.ParseDistance(cols.Cell(row, extract.FieldDistance)) <= noise {
			continue
		}
		out = append(out, row)
	}
	return out
}

// DistinctValues collects the sorted distinct non-empty values of a logical
// field, used to populate the driver and truck filter dropdowns.
func DistinctValues(t table.RawTable, field extract.Field) []string {
	cols := extract.MainSchema().Resolve(t.Headers)
	if _, ok := cols[field]; !ok {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, row := range t.Rows {
		v := cols.Cell(row, field)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
