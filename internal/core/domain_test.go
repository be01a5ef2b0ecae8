package core

import "testing"

func TestRegistryExtract(t *testing.T) {
	reg := DefaultRegistry()
	cases := []struct {
		in   string
		want string
	}{
		{"BD78NGZN", "BD78NGZN"},
		{"Truck BD78 NGZ", "BD78NGZN"},
		{"CS44GHNZ (spare)", "CS44GHNZ"},
		{"DG28", "DG28ZLZN"},
		{"ZZ99XXX", "ZZ99XXX"}, // unknown passes through unchanged
		{"", ""},
	}
	for _, tc := range cases {
		if got := reg.Extract(tc.in); got != tc.want {
			t.Errorf("Extract(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRegistryContains(t *testing.T) {
	reg := DefaultRegistry()
	if !reg.Contains("BD78NGZN") {
		t.Error("expected BD78NGZN to be known")
	}
	if reg.Contains("ZZ99XXX") {
		t.Error("ZZ99XXX should not be known")
	}
}

func TestNewDailyTotals(t *testing.T) {
	dt := NewDailyTotals(DefaultRegistry())
	for _, id := range DefaultRegistry().IDs() {
		if dt.Main[id] == nil || dt.Vehicle[id] == nil {
			t.Fatalf("vehicle %s missing from totals", id)
		}
	}
	if got := dt.MainTotal("BD78NGZN", "2024-01-15"); got != 0 {
		t.Errorf("empty totals should read zero, got %v", got)
	}
}

func TestSortedDates(t *testing.T) {
	dt := NewDailyTotals(DefaultRegistry())
	dt.Main["BD78NGZN"]["2024-01-16"] = 10
	dt.Main["BD78NGZN"]["2024-01-14"] = 5
	dt.Vehicle["BD78NGZN"]["2024-01-15"] = 7
	dt.Vehicle["BD78NGZN"]["2024-01-14"] = 4

	got := dt.SortedDates("BD78NGZN")
	want := []string{"2024-01-14", "2024-01-15", "2024-01-16"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
