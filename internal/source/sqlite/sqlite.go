// Package sqlite is a snapshot store for raw tab CSV text. The refresh
// worker writes the latest fetch into it; the server can then load from
// the local database when the spreadsheet is unreachable. Only raw source
// text is persisted, processed aggregates stay in memory.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"kmrecon/internal/source"
)

type Store struct {
	db *sql.DB
}

var (
	_ source.Fetcher = (*Store)(nil)
	_ source.Writer  = (*Store)(nil)
)

// ErrNoSnapshot is returned when a tab has never been snapshotted.
var ErrNoSnapshot = errors.New("no snapshot for tab")

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveCSV upserts the tab's raw CSV text together with the fetch time.
func (s *Store) SaveCSV(ctx context.Context, tab source.Tab, csvText string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tab_snapshots (tab, kind, csv, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(tab) DO UPDATE SET
			kind = excluded.kind,
			csv = excluded.csv,
			fetched_at = excluded.fetched_at`,
		tab.Name, string(tab.Kind), csvText, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save snapshot for %s: %w", tab.Name, err)
	}
	slog.InfoContext(ctx, "Snapshot saved", "tab", tab.Name, "bytes", len(csvText))
	return nil
}

// FetchCSV returns the latest snapshot of the tab.
func (s *Store) FetchCSV(ctx context.Context, tab source.Tab) (string, error) {
	var csvText string
	err := s.db.QueryRowContext(ctx,
		`SELECT csv FROM tab_snapshots WHERE tab = ?`, tab.Name).Scan(&csvText)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNoSnapshot, tab.Name)
	}
	if err != nil {
		return "", fmt.Errorf("load snapshot for %s: %w", tab.Name, err)
	}
	return csvText, nil
}

// FetchedAt returns when the tab was last snapshotted.
func (s *Store) FetchedAt(ctx context.Context, tab source.Tab) (time.Time, error) {
	var at time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at FROM tab_snapshots WHERE tab = ?`, tab.Name).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNoSnapshot, tab.Name)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("load snapshot time for %s: %w", tab.Name, err)
	}
	return at, nil
}
