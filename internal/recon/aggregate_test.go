package recon

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"kmrecon/internal/core"
)

func TestBuildDailyTotalsNoiseThreshold(t *testing.T) {
	reg := core.DefaultRegistry()
	th := core.DefaultThresholds()

	telemetry := map[core.VehicleID][]core.TelemetryRecord{
		"BD78NGZN": {
			{Vehicle: "BD78NGZN", Date: "2024-01-15", Distance: 0.10}, // exactly at threshold: excluded
			{Vehicle: "BD78NGZN", Date: "2024-01-15", Distance: 0.11}, // just above: included
			{Vehicle: "BD78NGZN", Date: "2024-01-15", Distance: 5.0},
		},
	}
	dt := BuildDailyTotals(nil, telemetry, reg, th)
	got := dt.VehicleTotal("BD78NGZN", "2024-01-15")
	if math.Abs(got-5.11) > 1e-9 {
		t.Errorf("telemetry total = %v, want 5.11", got)
	}
}

func TestBuildDailyTotalsMainSums(t *testing.T) {
	reg := core.DefaultRegistry()
	trips := []core.TripRecord{
		{Vehicle: "BD78NGZN", Date: "2024-01-15", Distance: 29.5},
		{Vehicle: "BD78NGZN", Date: "2024-01-15", Distance: 10},
		{Vehicle: "BD78NGZN", Date: "2024-01-16", Distance: 3},
		{Vehicle: "CS44GHNZ", Date: "2024-01-15", Distance: 7},
	}
	dt := BuildDailyTotals(trips, nil, reg, core.DefaultThresholds())
	if got := dt.MainTotal("BD78NGZN", "2024-01-15"); got != 39.5 {
		t.Errorf("BD78NGZN 01-15 = %v, want 39.5", got)
	}
	if got := dt.MainTotal("BD78NGZN", "2024-01-16"); got != 3 {
		t.Errorf("BD78NGZN 01-16 = %v, want 3", got)
	}
	if got := dt.MainTotal("CS44GHNZ", "2024-01-15"); got != 7 {
		t.Errorf("CS44GHNZ 01-15 = %v, want 7", got)
	}
}

func TestBuildDailyTotalsOrderIndependent(t *testing.T) {
	reg := core.DefaultRegistry()
	th := core.DefaultThresholds()

	trips := []core.TripRecord{
		{Vehicle: "BD78NGZN", Date: "2024-01-15", Distance: 10},
		{Vehicle: "CS44GHNZ", Date: "2024-01-15", Distance: 20},
		{Vehicle: "BD78NGZN", Date: "2024-01-16", Distance: 30},
		{Vehicle: "DG28ZLZN", Date: "2024-01-17", Distance: 40},
	}
	want := BuildDailyTotals(trips, nil, reg, th)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5; i++ {
		shuffled := append([]core.TripRecord(nil), trips...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := BuildDailyTotals(shuffled, nil, reg, th)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("permuted input changed totals:\ngot  %v\nwant %v", got, want)
		}
	}
}

func TestBuildDailyTotalsIgnoresUnknownTelemetryVehicle(t *testing.T) {
	dt := BuildDailyTotals(nil, map[core.VehicleID][]core.TelemetryRecord{
		"ZZ99XXX": {{Vehicle: "ZZ99XXX", Date: "2024-01-15", Distance: 50}},
	}, core.DefaultRegistry(), core.DefaultThresholds())

	for v, byDate := range dt.Vehicle {
		if len(byDate) != 0 {
			t.Errorf("vehicle %s unexpectedly has totals: %v", v, byDate)
		}
	}
}
