package extract

import (
	"testing"

	"kmrecon/internal/core"
	"kmrecon/internal/table"
)

func mainTable(rows ...[]string) table.RawTable {
	return table.RawTable{
		Name:    "MAIN",
		Kind:    core.SourceMain,
		Headers: []string{"Date", "Driver", "Truck Reg", "Start Odo", "End Odo"},
		Rows:    rows,
	}
}

func TestSchemaResolve(t *testing.T) {
	headers := []string{"Trip Date", "Driver Name", "Truck Reg", "Start Odo", "End Odo"}
	cols := MainSchema().Resolve(headers)

	want := map[Field]int{
		FieldDate:         0,
		FieldDriver:       1,
		FieldRegistration: 2,
		FieldOdoStart:     3,
		FieldOdoEnd:       4,
	}
	for f, idx := range want {
		if got, ok := cols[f]; !ok || got != idx {
			t.Errorf("field %s: got %d (ok=%v), want %d", f, got, ok, idx)
		}
	}
}

func TestSchemaResolveFallbackAlias(t *testing.T) {
	// No "truck" or "date" headers: the "reg" and "timestamp" aliases win.
	headers := []string{"Timestamp", "Registration", "Start", "End"}
	cols := MainSchema().Resolve(headers)
	if cols[FieldDate] != 0 {
		t.Errorf("expected timestamp fallback at 0, got %d", cols[FieldDate])
	}
	if cols[FieldRegistration] != 1 {
		t.Errorf("expected reg fallback at 1, got %d", cols[FieldRegistration])
	}
}

func TestTripsOdometerDelta(t *testing.T) {
	var diag core.Diagnostics
	ex := New(core.DefaultRegistry(), nil)

	trips := ex.Trips(mainTable(
		[]string{"01/15/24", "Smith", "BD78NGZN", "120.5", "150.0"},
		[]string{"01/15/24", "Smith", "BD78NGZN", "150", "120"}, // reversed, clamps to 0
	), &diag)

	if len(trips) != 2 {
		t.Fatalf("expected 2 trips, got %d", len(trips))
	}
	if trips[0].Distance != 29.5 {
		t.Errorf("trip 0 distance = %v, want 29.5", trips[0].Distance)
	}
	if trips[1].Distance != 0 {
		t.Errorf("reversed odometer should clamp to 0, got %v", trips[1].Distance)
	}
	if diag.NegativeDeltas != 1 {
		t.Errorf("expected 1 negative delta counted, got %d", diag.NegativeDeltas)
	}
}

func TestTripsSkipsUnknownVehicles(t *testing.T) {
	var diag core.Diagnostics
	ex := New(core.DefaultRegistry(), nil)

	trips := ex.Trips(mainTable(
		[]string{"01/15/24", "Smith", "ZZ99XXX", "100", "150"},
		[]string{"01/15/24", "Jones", "CS44GHNZ", "100", "150"},
		[]string{"", "Null", "", "100", "150"},
	), &diag)

	if len(trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(trips))
	}
	if trips[0].Vehicle != "CS44GHNZ" {
		t.Errorf("unexpected vehicle %s", trips[0].Vehicle)
	}
	if diag.UnknownRegistrations != 1 {
		t.Errorf("expected 1 unknown registration, got %d", diag.UnknownRegistrations)
	}
}

func TestTripsMissingColumnsYieldsNothing(t *testing.T) {
	var diag core.Diagnostics
	ex := New(core.DefaultRegistry(), nil)

	tab := table.RawTable{
		Name:    "MAIN",
		Kind:    core.SourceMain,
		Headers: []string{"Date", "Driver"}, // no reg or odometer columns
		Rows:    [][]string{{"01/15/24", "Smith"}},
	}
	if trips := ex.Trips(tab, &diag); trips != nil {
		t.Fatalf("expected nil trips, got %v", trips)
	}
}

func TestTelemetry(t *testing.T) {
	var diag core.Diagnostics
	ex := New(core.DefaultRegistry(), nil)

	tab := table.RawTable{
		Name:    "BD78NGZN",
		Kind:    core.SourceVehicle,
		Headers: []string{"Stop Time", "Dist (km)"},
		Rows: [][]string{
			{"2024-01-16 08:00", "12,5"},
			{"2024-01-15 10:00", "44,8"},
			{"", "9"},                      // no date, dropped
			{"2024-01-15 11:00", "scrap"},  // unparsable -> 0, kept
		},
	}
	recs := ex.Telemetry(tab, "BD78NGZN", &diag)
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	// Sorted by date.
	if recs[0].Date != "2024-01-15" || recs[2].Date != "2024-01-16" {
		t.Errorf("records not date-sorted: %v", recs)
	}
	if recs[0].Distance != 44.8 {
		t.Errorf("decimal comma distance = %v, want 44.8", recs[0].Distance)
	}
	if recs[1].Distance != 0 {
		t.Errorf("unparsable distance should be 0, got %v", recs[1].Distance)
	}
	if diag.RowsWithoutDate != 1 {
		t.Errorf("expected 1 undated row, got %d", diag.RowsWithoutDate)
	}
}
