package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"kmrecon/internal/core"
	"kmrecon/internal/extract"
	"kmrecon/internal/recon"
	"kmrecon/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// snapshot fetches the current snapshot, answering 503 when no load has
// completed yet.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*session.Snapshot, bool) {
	snap, ok := s.loader.Current()
	if !ok {
		slog.WarnContext(r.Context(), "Request before first snapshot", "url", r.URL.Path)
		writeError(w, http.StatusServiceUnavailable, "no snapshot loaded yet")
		return nil, false
	}
	return snap, true
}

// comparisonFor returns the comparison for the selection, cached per
// (generation, vehicles, range).
func (s *Server) comparisonFor(snap *session.Snapshot, vehicles []core.VehicleID, dr core.DateRange) recon.Comparison {
	key := comparisonKey(snap.Generation, vehicles, dr)
	if cmp, found := s.comparisonCache.Get(key); found {
		return cmp
	}
	cmp := snap.Comparison(vehicles, dr, s.th)
	s.comparisonCache.Set(key, cmp)
	return cmp
}

func comparisonKey(gen uint64, vehicles []core.VehicleID, dr core.DateRange) string {
	parts := make([]string, 0, len(vehicles)+2)
	parts = append(parts, fmt.Sprintf("g%d", gen))
	for _, v := range vehicles {
		parts = append(parts, string(v))
	}
	parts = append(parts, dr.Start+".."+dr.End)
	return strings.Join(parts, "|")
}

type totalsSeries struct {
	Vehicle core.VehicleID `json:"vehicle"`
	Main    []float64      `json:"main"`
	Tab     []float64      `json:"tab"`
}

type totalsResponse struct {
	Generation  uint64           `json:"generation"`
	LoadedAt    time.Time        `json:"loaded_at"`
	Range       core.DateRange   `json:"range"`
	Dates       []string         `json:"dates"`
	Series      []totalsSeries   `json:"series"`
	Diagnostics core.Diagnostics `json:"diagnostics"`
}

// handleTotals returns chart-ready per-day totals: one label list and a
// MAIN and TAB series per selected vehicle, aligned by index.
func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	dr, err := parseRange(r.URL.Query(), s.th, time.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	vehicles, err := parseVehicles(r.URL.Query(), s.registry)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	cmp := s.comparisonFor(snap, vehicles, dr)

	resp := totalsResponse{
		Generation:  snap.Generation,
		LoadedAt:    snap.LoadedAt,
		Range:       dr,
		Diagnostics: snap.Diagnostics,
	}
	for _, v := range vehicles {
		resp.Series = append(resp.Series, totalsSeries{Vehicle: v})
	}
	for _, row := range cmp.Rows {
		resp.Dates = append(resp.Dates, row.Date)
		for i, cell := range row.Cells {
			resp.Series[i].Main = append(resp.Series[i].Main, cell.Main)
			resp.Series[i].Tab = append(resp.Series[i].Tab, cell.Tab)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleVehicleStats returns per-vehicle grand totals over the range.
func (s *Server) handleVehicleStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	dr, err := parseRange(r.URL.Query(), s.th, time.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	vehicles, err := parseVehicles(r.URL.Query(), s.registry)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	cmp := s.comparisonFor(snap, vehicles, dr)

	writeJSON(w, http.StatusOK, struct {
		Generation uint64              `json:"generation"`
		Range      core.DateRange      `json:"range"`
		Stats      []recon.VehicleStats `json:"stats"`
	}{snap.Generation, dr, cmp.Totals})
}

// handleComparison returns the full per-day variance table.
func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	dr, err := parseRange(r.URL.Query(), s.th, time.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	vehicles, err := parseVehicles(r.URL.Query(), s.registry)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	cmp := s.comparisonFor(snap, vehicles, dr)

	writeJSON(w, http.StatusOK, struct {
		Generation uint64 `json:"generation"`
		recon.Comparison
	}{snap.Generation, cmp})
}

// tabBounds reads the optional start and end filters for a tab view. A
// single bound is allowed; an inverted pair is not.
func tabBounds(r *http.Request) (start, end string, err error) {
	q := r.URL.Query()
	start = strings.TrimSpace(q.Get("start"))
	end = strings.TrimSpace(q.Get("end"))
	if start != "" && end != "" && start > end {
		return "", "", core.ErrInvertedDateRange
	}
	return start, end, nil
}

type tabRowsResponse struct {
	Tab        string          `json:"tab"`
	Kind       core.SourceKind `json:"kind"`
	Generation uint64          `json:"generation"`
	Headers    []string        `json:"headers"`
	Rows       [][]string      `json:"rows"`
	TotalRows  int             `json:"total_rows"`
	Showing    int             `json:"showing"`
	Drivers    []string        `json:"drivers,omitempty"`
	Trucks     []string        `json:"trucks,omitempty"`
}

// filterTab applies the view filters for a tab, shared between the rows
// endpoint and the export so both always return the same rows.
func (s *Server) filterTab(r *http.Request, snap *session.Snapshot, name string) (*tabRowsResponse, error) {
	t, err := snap.Table(name)
	if err != nil {
		return nil, err
	}

	start, end, err := tabBounds(r)
	if err != nil {
		return nil, err
	}

	resp := &tabRowsResponse{
		Tab:        t.Name,
		Kind:       t.Kind,
		Generation: snap.Generation,
		Headers:    t.Headers,
		TotalRows:  len(t.Rows),
	}

	q := r.URL.Query()
	switch t.Kind {
	case core.SourceMain:
		f := core.MainFilter{
			Driver: strings.TrimSpace(q.Get("driver")),
			Truck:  strings.TrimSpace(q.Get("truck")),
			Start:  start,
			End:    end,
		}
		resp.Rows = recon.FilterMainRows(t, f, nil)
		resp.Drivers = recon.DistinctValues(t, extract.FieldDriver)
		resp.Trucks = recon.DistinctValues(t, extract.FieldRegistration)
	case core.SourceVehicle:
		f := core.VehicleFilter{Start: start, End: end}
		resp.Rows = recon.FilterVehicleRows(t, f, s.th.Noise, nil)
	default:
		resp.Rows = t.Rows
	}
	resp.Showing = len(resp.Rows)
	return resp, nil
}

// handleTabRows returns the filtered rows of one tab plus the distinct
// dropdown values for the MAIN filters.
func (s *Server) handleTabRows(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	name := r.PathValue("name")
	resp, err := s.filterTab(r, snap, name)
	if errors.Is(err, core.ErrUnknownTable) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown tab %q", name))
		return
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleExportComparison streams the comparison as CSV or table markup.
func (s *Server) handleExportComparison(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	dr, err := parseRange(r.URL.Query(), s.th, time.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	vehicles, err := parseVehicles(r.URL.Query(), s.registry)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	format, err := parseFormat(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	cmp := s.comparisonFor(snap, vehicles, dr)

	if format == recon.FormatTable {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(recon.ExportComparisonTable(cmp)))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="comparison.csv"`)
	_, _ = w.Write([]byte(recon.ExportComparisonCSV(cmp)))
}

// handleExportTab streams a filtered tab view, applying exactly the same
// filters as the rows endpoint.
func (s *Server) handleExportTab(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	name := r.PathValue("name")
	format, err := parseFormat(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	view, err := s.filterTab(r, snap, name)
	if errors.Is(err, core.ErrUnknownTable) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown tab %q", name))
		return
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if format == recon.FormatTable {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(recon.ExportTabTable(view.Headers, view.Rows)))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, view.Tab))
	_, _ = w.Write([]byte(recon.ExportTabCSV(view.Headers, view.Rows)))
}

// handleReload refetches every source and swaps in the new snapshot. The
// refresh announcement is best effort.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loader.Reload(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Reload failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	s.comparisonCache.Clear()

	if s.publisher != nil {
		tabs := make([]string, 0, len(snap.Tables))
		for name := range snap.Tables {
			tabs = append(tabs, name)
		}
		if err := s.publisher.PublishDataRefreshed(r.Context(), snap.Generation, tabs); err != nil {
			slog.WarnContext(r.Context(), "Failed to announce refresh", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, struct {
		Generation  uint64           `json:"generation"`
		LoadedAt    time.Time        `json:"loaded_at"`
		Trips       int              `json:"trips"`
		Diagnostics core.Diagnostics `json:"diagnostics"`
	}{snap.Generation, snap.LoadedAt, len(snap.Trips), snap.Diagnostics})
}
