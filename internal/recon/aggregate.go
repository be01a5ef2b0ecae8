// Package recon reconciles logbook mileage against telemetry mileage and
// derives the comparison and export tables the dashboard shows.
package recon

import (
	"kmrecon/internal/core"
)

// BuildDailyTotals folds extracted records into per-vehicle per-day km for
// both sources. Telemetry at or below the noise threshold is treated as
// stationary jitter and excluded from totals; the raw records stay
// available for row display. Summation is order-independent and the result
// is rebuilt from scratch on every call.
func BuildDailyTotals(
	trips []core.TripRecord,
	telemetry map[core.VehicleID][]core.TelemetryRecord,
	registry core.Registry,
	th core.Thresholds,
) core.DailyTotals {
	totals := core.NewDailyTotals(registry)
	for _, trip := range trips {
		totals.Main[trip.Vehicle][trip.Date] += trip.Distance
	}
	for vehicle, records := range telemetry {
		byDate, ok := totals.Vehicle[vehicle]
		if !ok {
			continue
		}
		for _, rec := range records {
			if rec.Distance > th.Noise {
				byDate[rec.Date] += rec.Distance
			}
		}
	}
	return totals
}
