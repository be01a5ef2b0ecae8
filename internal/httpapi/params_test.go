package httpapi

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"kmrecon/internal/core"
)

func TestParseRangeDefaultWindow(t *testing.T) {
	now := time.Date(2024, 7, 10, 15, 0, 0, 0, time.UTC)
	dr, err := parseRange(url.Values{}, core.DefaultThresholds(), now)
	if err != nil {
		t.Fatalf("parseRange: %v", err)
	}
	if dr.Start != "2024-07-04" || dr.End != "2024-07-10" {
		t.Errorf("default window = %v, want trailing 7 days ending today", dr)
	}
	if got := len(dr.Dates()); got != 7 {
		t.Errorf("window length = %d, want 7", got)
	}
}

func TestParseRangeValidation(t *testing.T) {
	th := core.DefaultThresholds()
	now := time.Now()

	if _, err := parseRange(url.Values{"start": {"2024-07-01"}}, th, now); !errors.Is(err, core.ErrMissingDateBound) {
		t.Errorf("single bound error = %v, want ErrMissingDateBound", err)
	}
	if _, err := parseRange(url.Values{"start": {"2024-07-05"}, "end": {"2024-07-01"}}, th, now); !errors.Is(err, core.ErrInvertedDateRange) {
		t.Errorf("inverted error = %v, want ErrInvertedDateRange", err)
	}
	if _, err := parseRange(url.Values{"start": {"01/07/2024"}, "end": {"05/07/2024"}}, th, now); err == nil {
		t.Error("non-canonical dates should be rejected")
	}
}

func TestParseVehicles(t *testing.T) {
	reg := core.DefaultRegistry()

	all, err := parseVehicles(url.Values{}, reg)
	if err != nil || len(all) != 3 {
		t.Errorf("empty param = %v, %v; want all 3 vehicles", all, err)
	}

	one, err := parseVehicles(url.Values{"vehicle": {"CS44GHNZ"}}, reg)
	if err != nil || len(one) != 1 || one[0] != "CS44GHNZ" {
		t.Errorf("specific vehicle = %v, %v", one, err)
	}

	if _, err := parseVehicles(url.Values{"vehicle": {"XX00"}}, reg); err == nil {
		t.Error("unknown vehicle should be rejected")
	}
}
