package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"kmrecon/internal/core"
	"kmrecon/internal/extract"
	"kmrecon/internal/recon"
	"kmrecon/internal/source"
	"kmrecon/internal/table"
)

// ErrAllSourcesFailed is returned when not a single tab could be loaded.
// Individual tab failures are recovered with empty tables instead.
var ErrAllSourcesFailed = errors.New("all data sources failed to load")

// Loader fetches every configured tab, runs the extraction and aggregation
// pipeline, and publishes the resulting snapshot. Reloads may overlap; a
// generation counter guarantees a newer reload's snapshot is never
// overwritten by an older one that finishes late.
type Loader struct {
	fetcher   source.Fetcher
	tabs      []source.Tab
	registry  core.Registry
	th        core.Thresholds
	normalize core.DateNormalizer

	gen atomic.Uint64

	mu      sync.RWMutex
	current *Snapshot
}

// NewLoader builds a loader. A nil normalizer selects the default
// month-first date heuristic.
func NewLoader(fetcher source.Fetcher, tabs []source.Tab, registry core.Registry, th core.Thresholds, normalize core.DateNormalizer) *Loader {
	if normalize == nil {
		normalize = core.NormalizeDate
	}
	return &Loader{
		fetcher:   fetcher,
		tabs:      tabs,
		registry:  registry,
		th:        th,
		normalize: normalize,
	}
}

// Current returns the last completed snapshot, or false before the first
// successful reload.
func (l *Loader) Current() (*Snapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current, l.current != nil
}

// Reload fetches all tabs concurrently and rebuilds the snapshot. A tab
// that fails to fetch is replaced by an empty table and counted in the
// diagnostics; only total unavailability fails the reload.
func (l *Loader) Reload(ctx context.Context) (*Snapshot, error) {
	gen := l.gen.Add(1)
	start := time.Now()

	tables := make([]table.RawTable, len(l.tabs))
	var failed atomic.Int64

	var g errgroup.Group
	for i, tab := range l.tabs {
		g.Go(func() error {
			csvText, err := l.fetcher.FetchCSV(ctx, tab)
			if err != nil {
				slog.WarnContext(ctx, "Source failed to load, substituting empty table",
					"tab", tab.Name, "error", err)
				tables[i] = table.Empty(tab.Name, tab.Kind)
				failed.Add(1)
				return nil
			}
			tables[i] = table.Load(tab.Name, tab.Kind, csvText)
			slog.DebugContext(ctx, "Loaded tab",
				"tab", tab.Name, "columns", len(tables[i].Headers), "rows", len(tables[i].Rows))
			return nil
		})
	}
	// Goroutines recover their own fetch errors, so Wait only joins.
	_ = g.Wait()

	if int(failed.Load()) == len(l.tabs) {
		return nil, ErrAllSourcesFailed
	}

	snap := l.build(gen, tables)
	snap.Diagnostics.SourcesFailed = int(failed.Load())

	l.mu.Lock()
	if l.current == nil || gen > l.current.Generation {
		l.current = snap
	} else {
		slog.WarnContext(ctx, "Discarding stale reload result",
			"generation", gen, "current_generation", l.current.Generation)
	}
	l.mu.Unlock()

	slog.InfoContext(ctx, "Reload completed",
		"generation", gen,
		"sources_failed", snap.Diagnostics.SourcesFailed,
		"trips", len(snap.Trips),
		"unknown_registrations", snap.Diagnostics.UnknownRegistrations,
		"duration_ms", time.Since(start).Milliseconds())
	return snap, nil
}

// build runs extraction and aggregation synchronously against the fetched
// tables. Nothing here touches l.current, so overlapping builds cannot
// interleave partial state.
func (l *Loader) build(gen uint64, tables []table.RawTable) *Snapshot {
	snap := &Snapshot{
		Generation: gen,
		LoadedAt:   time.Now(),
		Tables:     make(map[string]table.RawTable, len(tables)),
		Telemetry:  make(map[core.VehicleID][]core.TelemetryRecord),
	}

	ex := extract.New(l.registry, l.normalize)
	for _, t := range tables {
		snap.Tables[t.Name] = t
		switch t.Kind {
		case core.SourceMain:
			snap.Trips = append(snap.Trips, ex.Trips(t, &snap.Diagnostics)...)
		case core.SourceVehicle:
			vehicle := core.VehicleID(t.Name)
			if !l.registry.Contains(t.Name) {
				slog.Warn("Vehicle tab does not match a known vehicle", "tab", t.Name)
				continue
			}
			snap.Telemetry[vehicle] = ex.Telemetry(t, vehicle, &snap.Diagnostics)
		}
	}

	snap.Totals = recon.BuildDailyTotals(snap.Trips, snap.Telemetry, l.registry, l.th)
	return snap
}
