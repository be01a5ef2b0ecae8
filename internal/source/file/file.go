// Package file serves tabs from a local directory of <TAB>.csv files,
// useful for development and tests without sheet credentials.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"kmrecon/internal/source"
)

type Store struct {
	dir string
}

var _ source.Fetcher = (*Store)(nil)

func New(dir string) *Store {
	return &Store{dir: dir}
}

// FetchCSV reads <dir>/<tab name>.csv.
func (s *Store) FetchCSV(_ context.Context, tab source.Tab) (string, error) {
	path := filepath.Join(s.dir, tab.Name+".csv")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
