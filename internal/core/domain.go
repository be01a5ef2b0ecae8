package core

import (
	"errors"
	"sort"
	"strings"
	"time"
)

const (
	SourceMain    SourceKind = "main"
	SourceVehicle SourceKind = "vehicle"

	// FilterAll is the sentinel dropdown value that disables a MAIN filter.
	FilterAll = "all"
)

type (
	// SourceKind tells the pipeline how to interpret a loaded table.
	SourceKind string

	// VehicleID is one of the fixed set of registration identifiers.
	VehicleID string

	// Vehicle binds a registration identifier to the prefix used to
	// recognise it inside free-text registration cells.
	Vehicle struct {
		ID     VehicleID
		Prefix string
	}

	// TripRecord is one MAIN logbook row reduced to the fields the
	// aggregation cares about. Distance is the clamped odometer delta.
	TripRecord struct {
		Vehicle  VehicleID
		Driver   string
		Date     string // canonical YYYY-MM-DD
		Distance float64
	}

	// TelemetryRecord is one vehicle-tab stop event.
	TelemetryRecord struct {
		Vehicle  VehicleID
		Date     string // canonical YYYY-MM-DD
		Distance float64
	}

	// DailyTotals holds accumulated km per vehicle per day for both
	// sources. Rebuilt wholesale on every reload.
	DailyTotals struct {
		Main    map[VehicleID]map[string]float64
		Vehicle map[VehicleID]map[string]float64
	}

	// Diagnostics counts the rows the pipeline dropped or repaired so a
	// reload can report data quality instead of losing it silently.
	Diagnostics struct {
		UnknownRegistrations int
		RowsWithoutDate      int
		NegativeDeltas       int
		SourcesFailed        int
	}

	// DateRange is an inclusive range of canonical dates.
	DateRange struct {
		Start string
		End   string
	}

	// MainFilter holds the user-selected filters for MAIN rows.
	MainFilter struct {
		Driver string
		Truck  string
		Start  string
		End    string
	}

	// VehicleFilter holds the date bounds for vehicle-tab rows. The noise
	// threshold is applied on top of it and is not user-configurable.
	VehicleFilter struct {
		Start string
		End   string
	}

	// Thresholds are the reconciliation tuning constants.
	Thresholds struct {
		// Noise is the distance below or at which a telemetry record is
		// treated as stationary jitter and excluded from totals.
		Noise float64
		// VarianceHighlight marks a day as a notable discrepancy when the
		// absolute variance exceeds it and both sources are nonzero.
		VarianceHighlight float64
		// WindowDays is the length of the default trailing date window.
		WindowDays int
	}
)

var (
	ErrMissingDateBound  = errors.New("both start and end dates are required")
	ErrInvertedDateRange = errors.New("start date must be before end date")
	ErrUnknownTable      = errors.New("unknown table")
)

// DefaultThresholds returns the tuning constants used by the original
// tracking sheet: 0.10 km noise floor, 10 km highlight, 7-day window.
func DefaultThresholds() Thresholds {
	return Thresholds{Noise: 0.10, VarianceHighlight: 10, WindowDays: 7}
}

// Registry is the closed set of known vehicles, in display order.
type Registry []Vehicle

// DefaultRegistry returns the three trucks tracked by the fleet sheet.
func DefaultRegistry() Registry {
	return Registry{
		{ID: "BD78NGZN", Prefix: "BD78"},
		{ID: "CS44GHNZ", Prefix: "CS44"},
		{ID: "DG28ZLZN", Prefix: "DG28"},
	}
}

// Extract resolves a free-text registration cell to a known VehicleID by
// prefix substring match. Unmatched text passes through unchanged so the
// caller can decide whether to count it as an anomaly.
func (r Registry) Extract(raw string) string {
	if raw == "" {
		return ""
	}
	for _, v := range r {
		if strings.Contains(raw, v.Prefix) {
			return string(v.ID)
		}
	}
	return raw
}

// Contains reports whether id is one of the known vehicles.
func (r Registry) Contains(id string) bool {
	for _, v := range r {
		if string(v.ID) == id {
			return true
		}
	}
	return false
}

// IDs returns the vehicle identifiers in registry order.
func (r Registry) IDs() []VehicleID {
	ids := make([]VehicleID, len(r))
	for i, v := range r {
		ids[i] = v.ID
	}
	return ids
}

// NewDailyTotals returns totals with an empty per-date map for every known
// vehicle, so lookups never have to nil-check the outer maps.
func NewDailyTotals(reg Registry) DailyTotals {
	dt := DailyTotals{
		Main:    make(map[VehicleID]map[string]float64, len(reg)),
		Vehicle: make(map[VehicleID]map[string]float64, len(reg)),
	}
	for _, v := range reg {
		dt.Main[v.ID] = make(map[string]float64)
		dt.Vehicle[v.ID] = make(map[string]float64)
	}
	return dt
}

// MainTotal returns the MAIN km for a vehicle on a date, zero when absent.
func (dt DailyTotals) MainTotal(v VehicleID, date string) float64 {
	return dt.Main[v][date]
}

// VehicleTotal returns the telemetry km for a vehicle on a date.
func (dt DailyTotals) VehicleTotal(v VehicleID, date string) float64 {
	return dt.Vehicle[v][date]
}

// Validate rejects ranges with a missing bound or inverted order. Canonical
// date strings compare correctly as plain strings.
func (dr DateRange) Validate() error {
	if dr.Start == "" || dr.End == "" {
		return ErrMissingDateBound
	}
	if dr.Start > dr.End {
		return ErrInvertedDateRange
	}
	return nil
}

// Dates expands the range to the inclusive list of canonical dates. Invalid
// bounds yield nil.
func (dr DateRange) Dates() []string {
	start, err := time.Parse(canonicalLayout, dr.Start)
	if err != nil {
		return nil
	}
	end, err := time.Parse(canonicalLayout, dr.End)
	if err != nil {
		return nil
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(canonicalLayout))
	}
	return dates
}

// LastNDays returns the trailing n-day range ending on now's date.
func LastNDays(n int, now time.Time) DateRange {
	end := now.Format(canonicalLayout)
	start := now.AddDate(0, 0, -(n - 1)).Format(canonicalLayout)
	return DateRange{Start: start, End: end}
}

// SortedDates returns every date present in either source for the vehicle,
// ascending. Useful for export when no explicit range is given.
func (dt DailyTotals) SortedDates(v VehicleID) []string {
	seen := map[string]struct{}{}
	for d := range dt.Main[v] {
		seen[d] = struct{}{}
	}
	for d := range dt.Vehicle[v] {
		seen[d] = struct{}{}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
