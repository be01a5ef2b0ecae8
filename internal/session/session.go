// Package session owns the in-memory reconciliation state. A Snapshot is
// rebuilt wholesale on every reload and swapped in atomically, so readers
// never observe a partially aggregated state; derived views take the
// snapshot as input and stay pure.
package session

import (
	"time"

	"kmrecon/internal/core"
	"kmrecon/internal/recon"
	"kmrecon/internal/table"
)

// Snapshot is one complete load of all sources: the cleaned tables, the
// extracted records retained for row display, and the aggregated totals.
// Immutable after construction.
type Snapshot struct {
	Generation  uint64
	LoadedAt    time.Time
	Tables      map[string]table.RawTable
	Trips       []core.TripRecord
	Telemetry   map[core.VehicleID][]core.TelemetryRecord
	Totals      core.DailyTotals
	Diagnostics core.Diagnostics
}

// Table returns the named table, or an error when the tab is unknown.
func (s *Snapshot) Table(name string) (table.RawTable, error) {
	t, ok := s.Tables[name]
	if !ok {
		return table.RawTable{}, core.ErrUnknownTable
	}
	return t, nil
}

// Comparison derives the per-day variance table from this snapshot.
func (s *Snapshot) Comparison(vehicles []core.VehicleID, dr core.DateRange, th core.Thresholds) recon.Comparison {
	return recon.BuildComparison(s.Totals, vehicles, dr, th)
}
