package httpapi

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"kmrecon/internal/core"
	"kmrecon/internal/recon"
)

// parseRange reads start and end query parameters. With both absent the
// default trailing window applies; a single bound or an inverted pair is
// rejected so the caller can answer 422.
func parseRange(query url.Values, th core.Thresholds, now time.Time) (core.DateRange, error) {
	start := strings.TrimSpace(query.Get("start"))
	end := strings.TrimSpace(query.Get("end"))

	if start == "" && end == "" {
		return core.LastNDays(th.WindowDays, now), nil
	}

	dr := core.DateRange{Start: start, End: end}
	if err := dr.Validate(); err != nil {
		return core.DateRange{}, err
	}
	if len(dr.Dates()) == 0 {
		return core.DateRange{}, fmt.Errorf("dates must use the YYYY-MM-DD form")
	}
	return dr, nil
}

// parseVehicles resolves the vehicle query parameter to the selected
// vehicle IDs. Empty or "all" selects the whole registry.
func parseVehicles(query url.Values, registry core.Registry) ([]core.VehicleID, error) {
	v := strings.TrimSpace(query.Get("vehicle"))
	if v == "" || v == core.FilterAll {
		return registry.IDs(), nil
	}
	if !registry.Contains(v) {
		return nil, fmt.Errorf("unknown vehicle %q", v)
	}
	return []core.VehicleID{core.VehicleID(v)}, nil
}

// parseFormat reads the export format parameter, defaulting to CSV.
func parseFormat(query url.Values) (string, error) {
	f := strings.TrimSpace(query.Get("format"))
	switch f {
	case "":
		return recon.FormatCSV, nil
	case recon.FormatCSV, recon.FormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q: must be csv or table", f)
	}
}
