// Package source defines the ports for retrieving raw CSV table text.
// The reconciliation core is agnostic to the retrieval mechanism; adapters
// exist for the Google Sheets API, local files and a SQLite snapshot store.
package source

import (
	"context"

	"kmrecon/internal/core"
)

// Tab identifies one logical table of the tracking spreadsheet.
type Tab struct {
	// Name is the tab name; vehicle tabs are named after their VehicleID.
	Name string
	// GID is the sheet grid identifier used by the Google adapters.
	GID string
	// Kind selects the extraction path (main logbook vs vehicle telemetry).
	Kind core.SourceKind
}

// Fetcher retrieves one tab's raw CSV text.
type Fetcher interface {
	FetchCSV(ctx context.Context, tab Tab) (string, error)
}

// Writer persists a fetched snapshot for later replay. Implemented by the
// SQLite store and used by the refresh worker.
type Writer interface {
	SaveCSV(ctx context.Context, tab Tab, csvText string) error
}

// DefaultTabs returns the tracking sheet's layout: the MAIN logbook plus
// one telemetry tab per vehicle.
func DefaultTabs() []Tab {
	return []Tab{
		{Name: "MAIN", GID: "1060733973", Kind: core.SourceMain},
		{Name: "BD78NGZN", GID: "1482391741", Kind: core.SourceVehicle},
		{Name: "CS44GHNZ", GID: "416024164", Kind: core.SourceVehicle},
		{Name: "DG28ZLZN", GID: "1908317780", Kind: core.SourceVehicle},
	}
}
