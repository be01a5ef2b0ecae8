// Package backend selects and constructs the tab source configured for
// the process: live Google Sheets, a local CSV directory, or the SQLite
// snapshot store the refresh worker maintains.
package backend

import (
	"context"

	"kmrecon/internal/source"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result contains the fetcher and an optional cleanup function.
type Result struct {
	Fetcher source.Fetcher
	// Writer is non-nil only for backends that can persist snapshots.
	Writer  source.Writer
	Cleanup CleanupFunc
}

// Factory creates fetchers based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// Google Sheets specific
	GoogleSpreadsheetID string

	// Files specific
	DataDirectory string

	// SQLite specific
	SQLiteDBPath string
}

// Type represents the kind of tab source.
type Type string

const (
	SheetsBackend Type = "sheets"
	FilesBackend  Type = "files"
	SQLiteBackend Type = "sqlite"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case SheetsBackend, FilesBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
