package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"kmrecon/internal/core"
	"kmrecon/internal/source"
)

func TestFetchCSV(t *testing.T) {
	dir := t.TempDir()
	want := "Date,Truck\n01/15/24,BD78NGZN\n"
	if err := os.WriteFile(filepath.Join(dir, "MAIN.csv"), []byte(want), 0644); err != nil {
		t.Fatal(err)
	}

	s := New(dir)
	got, err := s.FetchCSV(context.Background(), source.Tab{Name: "MAIN", Kind: core.SourceMain})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFetchCSVMissingFile(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.FetchCSV(context.Background(), source.Tab{Name: "MAIN"}); err == nil {
		t.Fatal("expected error for missing file")
	}
}
