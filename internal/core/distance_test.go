package core

import "testing"

func TestParseDistance(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"44,8", 44.8},
		{"44.8", 44.8},
		{"12 km", 12},
		{"0,05", 0.05},
		{"-3,2", -3.2},
		{"", 0},
		{"n/a", 0},
		{"..", 0},
	}
	for _, tc := range cases {
		if got := ParseDistance(tc.in); got != tc.want {
			t.Errorf("ParseDistance(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseOdometer(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"120.5", 120.5},
		{"150", 150},
		{"120.5 km", 120.5},
		{"  145 ", 145},
		{"-12", -12},
		{"", 0},
		{"abc", 0},
	}
	for _, tc := range cases {
		if got := ParseOdometer(tc.in); got != tc.want {
			t.Errorf("ParseOdometer(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
