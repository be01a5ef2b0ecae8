package recon

import (
	"math"

	"kmrecon/internal/core"
)

type (
	// VehicleCell is one vehicle's numbers for a single day.
	VehicleCell struct {
		Vehicle  core.VehicleID `json:"vehicle"`
		Main     float64        `json:"main"`
		Tab      float64        `json:"tab"`
		Variance float64        `json:"variance"`
		// Quiet marks a day where both sources are zero for this vehicle.
		Quiet bool `json:"quiet"`
		// Notable marks |variance| above the highlight threshold with both
		// sources nonzero. Display-only, totals are unaffected.
		Notable bool `json:"notable"`
	}

	// ComparisonRow is one date across all selected vehicles.
	ComparisonRow struct {
		Date     string        `json:"date"`
		Cells    []VehicleCell `json:"cells"`
		QuietDay bool          `json:"quiet_day"`
	}

	// VehicleStats are one vehicle's grand totals over the whole range.
	VehicleStats struct {
		Vehicle         core.VehicleID `json:"vehicle"`
		Main            float64        `json:"main"`
		Tab             float64        `json:"tab"`
		Variance        float64        `json:"variance"`
		VariancePercent float64        `json:"variance_percent"`
	}

	// Comparison is the full per-day variance table plus grand totals.
	Comparison struct {
		Range    core.DateRange  `json:"range"`
		Vehicles []core.VehicleID `json:"vehicles"`
		Rows     []ComparisonRow `json:"rows"`
		Totals   []VehicleStats  `json:"totals"`
	}
)

// BuildComparison derives the per-day variance table for the vehicles over
// the date range. Every date in the range produces a row, including days
// with no data, so chart labels and table rows line up.
func BuildComparison(dt core.DailyTotals, vehicles []core.VehicleID, dr core.DateRange, th core.Thresholds) Comparison {
	cmp := Comparison{Range: dr, Vehicles: vehicles}
	for _, date := range dr.Dates() {
		row := ComparisonRow{Date: date, QuietDay: true}
		for _, v := range vehicles {
			cell := cellFor(dt, v, date, th)
			if !cell.Quiet {
				row.QuietDay = false
			}
			row.Cells = append(row.Cells, cell)
		}
		cmp.Rows = append(cmp.Rows, row)
	}
	cmp.Totals = buildStats(cmp.Rows, vehicles)
	return cmp
}

func cellFor(dt core.DailyTotals, v core.VehicleID, date string, th core.Thresholds) VehicleCell {
	main := dt.MainTotal(v, date)
	tab := dt.VehicleTotal(v, date)
	variance := main - tab
	return VehicleCell{
		Vehicle:  v,
		Main:     main,
		Tab:      tab,
		Variance: variance,
		Quiet:    main == 0 && tab == 0,
		Notable:  math.Abs(variance) > th.VarianceHighlight && main > 0 && tab > 0,
	}
}

func buildStats(rows []ComparisonRow, vehicles []core.VehicleID) []VehicleStats {
	stats := make([]VehicleStats, len(vehicles))
	for i, v := range vehicles {
		stats[i].Vehicle = v
	}
	for _, row := range rows {
		for i, cell := range row.Cells {
			stats[i].Main += cell.Main
			stats[i].Tab += cell.Tab
		}
	}
	for i := range stats {
		stats[i].Variance = stats[i].Main - stats[i].Tab
		if stats[i].Main > 0 {
			pct := stats[i].Variance / stats[i].Main * 100
			stats[i].VariancePercent = math.Round(pct*10) / 10
		}
	}
	return stats
}
