package recon

import (
	"math"
	"strings"
	"testing"

	"kmrecon/internal/core"
	"kmrecon/internal/extract"
	"kmrecon/internal/table"
)

func TestBuildComparisonFlags(t *testing.T) {
	reg := core.DefaultRegistry()
	dt := core.NewDailyTotals(reg)
	dt.Main["BD78NGZN"]["2024-01-15"] = 45
	dt.Vehicle["BD78NGZN"]["2024-01-15"] = 44.8
	dt.Main["BD78NGZN"]["2024-01-16"] = 120
	dt.Vehicle["BD78NGZN"]["2024-01-16"] = 90

	cmp := BuildComparison(dt, []core.VehicleID{"BD78NGZN"},
		core.DateRange{Start: "2024-01-15", End: "2024-01-17"}, core.DefaultThresholds())

	if len(cmp.Rows) != 3 {
		t.Fatalf("expected a row per date in range, got %d", len(cmp.Rows))
	}

	day1 := cmp.Rows[0].Cells[0]
	if math.Abs(day1.Variance-0.2) > 1e-9 {
		t.Errorf("day1 variance = %v, want 0.2", day1.Variance)
	}
	if day1.Notable || day1.Quiet {
		t.Errorf("day1 flags wrong: %+v", day1)
	}

	day2 := cmp.Rows[1].Cells[0]
	if !day2.Notable {
		t.Errorf("30km variance with both sides nonzero should be notable: %+v", day2)
	}

	day3 := cmp.Rows[2].Cells[0]
	if !day3.Quiet || !cmp.Rows[2].QuietDay {
		t.Errorf("empty day should be quiet: %+v", day3)
	}
}

func TestBuildComparisonNotableNeedsBothSides(t *testing.T) {
	reg := core.DefaultRegistry()
	dt := core.NewDailyTotals(reg)
	dt.Main["BD78NGZN"]["2024-01-15"] = 50 // telemetry missing entirely

	cmp := BuildComparison(dt, []core.VehicleID{"BD78NGZN"},
		core.DateRange{Start: "2024-01-15", End: "2024-01-15"}, core.DefaultThresholds())

	cell := cmp.Rows[0].Cells[0]
	if cell.Notable {
		t.Error("variance with a zero side must not be flagged notable")
	}
}

func TestBuildComparisonTotals(t *testing.T) {
	reg := core.DefaultRegistry()
	dt := core.NewDailyTotals(reg)
	dt.Main["BD78NGZN"]["2024-01-15"] = 100
	dt.Main["BD78NGZN"]["2024-01-16"] = 100
	dt.Vehicle["BD78NGZN"]["2024-01-15"] = 90
	dt.Vehicle["BD78NGZN"]["2024-01-16"] = 90

	cmp := BuildComparison(dt, []core.VehicleID{"BD78NGZN"},
		core.DateRange{Start: "2024-01-15", End: "2024-01-16"}, core.DefaultThresholds())

	st := cmp.Totals[0]
	if st.Main != 200 || st.Tab != 180 || st.Variance != 20 {
		t.Fatalf("totals = %+v", st)
	}
	if st.VariancePercent != 10 {
		t.Errorf("variance percent = %v, want 10", st.VariancePercent)
	}
}

func TestEndToEndScenario(t *testing.T) {
	// MAIN with one odometer trip and a BD78NGZN tab with one decimal-comma
	// telemetry stop on the same day.
	mainCSV := "Date,Driver,Truck,Start,End\n01/15/24,Smith,BD78NGZN,100,145\n"
	vehCSV := "Stop Time,Dist\n2024-01-15 10:00,\"44,8\"\n"

	reg := core.DefaultRegistry()
	ex := extract.New(reg, nil)
	var diag core.Diagnostics

	mainTab := table.Load("MAIN", core.SourceMain, mainCSV)
	vehTab := table.Load("BD78NGZN", core.SourceVehicle, vehCSV)

	trips := ex.Trips(mainTab, &diag)
	telemetry := map[core.VehicleID][]core.TelemetryRecord{
		"BD78NGZN": ex.Telemetry(vehTab, "BD78NGZN", &diag),
	}
	dt := BuildDailyTotals(trips, telemetry, reg, core.DefaultThresholds())

	if got := dt.MainTotal("BD78NGZN", "2024-01-15"); got != 45 {
		t.Errorf("MAIN total = %v, want 45", got)
	}
	if got := dt.VehicleTotal("BD78NGZN", "2024-01-15"); got != 44.8 {
		t.Errorf("VEHICLE total = %v, want 44.8", got)
	}

	cmp := BuildComparison(dt, []core.VehicleID{"BD78NGZN"},
		core.DateRange{Start: "2024-01-15", End: "2024-01-15"}, core.DefaultThresholds())
	if v := cmp.Rows[0].Cells[0].Variance; math.Abs(v-0.2) > 1e-9 {
		t.Errorf("variance = %v, want 0.2", v)
	}
}

func TestExportComparisonCSV(t *testing.T) {
	reg := core.DefaultRegistry()
	dt := core.NewDailyTotals(reg)
	dt.Main["BD78NGZN"]["2024-01-15"] = 45
	dt.Vehicle["BD78NGZN"]["2024-01-15"] = 44.8

	cmp := BuildComparison(dt, []core.VehicleID{"BD78NGZN"},
		core.DateRange{Start: "2024-01-15", End: "2024-01-15"}, core.DefaultThresholds())

	out := ExportComparisonCSV(cmp)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if lines[0] != "Date,BD78NGZN MAIN (km),BD78NGZN TAB (km),BD78NGZN Variance" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2024-01-15,45,45,0" {
		t.Errorf("row = %q (km values round to whole units)", lines[1])
	}
}

func TestExportTabCSVRoundTrip(t *testing.T) {
	headers := []string{"Date", "Driver", "Truck"}
	rows := [][]string{
		{"01/15/24", "Smith, John", "BD78NGZN"},
		{"01/16/24", "Jones", "CS44GHNZ"},
	}
	out := ExportTabCSV(headers, rows)

	parsed := table.ParseCSV(out)
	if len(parsed) != 3 {
		t.Fatalf("expected 3 parsed lines, got %d", len(parsed))
	}
	for i, row := range rows {
		for j, cell := range row {
			if parsed[i+1][j] != cell {
				t.Errorf("cell (%d,%d): got %q, want %q", i, j, parsed[i+1][j], cell)
			}
		}
	}
}

func TestExportTabTable(t *testing.T) {
	out := ExportTabTable([]string{"A", "B"}, [][]string{{"1", "2"}})
	for _, want := range []string{"<table>", "<th>A</th>", "<td>1</td>", "</table>"} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q:\n%s", want, out)
		}
	}
}
