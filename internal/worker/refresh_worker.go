// Package worker implements the background refresh process: it pulls every
// tab from the upstream source, persists the raw CSV into the snapshot
// store, and announces the new data over AMQP.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"kmrecon/internal/amqp"
	"kmrecon/internal/source"
)

// Publisher announces completed refreshes. Satisfied by the AMQP client;
// nil disables announcements.
type Publisher interface {
	PublishDataRefreshed(ctx context.Context, generation uint64, tabs []string) error
}

// RefreshWorker copies tab CSV text from an upstream fetcher into a
// snapshot writer. Each refresh gets a generation number so consumers can
// tell announcements apart.
type RefreshWorker struct {
	upstream  source.Fetcher
	store     source.Writer
	tabs      []source.Tab
	publisher Publisher

	generation atomic.Uint64
}

func NewRefreshWorker(upstream source.Fetcher, store source.Writer, tabs []source.Tab, publisher Publisher) *RefreshWorker {
	return &RefreshWorker{
		upstream:  upstream,
		store:     store,
		tabs:      tabs,
		publisher: publisher,
	}
}

// RefreshAll fetches every tab and persists it. Individual tab failures
// are logged and skipped; only total failure returns an error. On any
// success the refresh is announced best effort.
func (w *RefreshWorker) RefreshAll(ctx context.Context) error {
	gen := w.generation.Add(1)
	start := time.Now()

	var saved, failed atomic.Int64

	var g errgroup.Group
	for _, tab := range w.tabs {
		g.Go(func() error {
			csvText, err := w.upstream.FetchCSV(ctx, tab)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to fetch tab", "tab", tab.Name, "error", err)
				failed.Add(1)
				return nil
			}
			if err := w.store.SaveCSV(ctx, tab, csvText); err != nil {
				slog.ErrorContext(ctx, "Failed to persist tab", "tab", tab.Name, "error", err)
				failed.Add(1)
				return nil
			}
			saved.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	if saved.Load() == 0 {
		return fmt.Errorf("refresh %d: no tab could be fetched", gen)
	}

	slog.InfoContext(ctx, "Refresh completed",
		"generation", gen,
		"saved", saved.Load(),
		"failed", failed.Load(),
		"duration_ms", time.Since(start).Milliseconds())

	if w.publisher != nil {
		names := make([]string, len(w.tabs))
		for i, tab := range w.tabs {
			names[i] = tab.Name
		}
		if err := w.publisher.PublishDataRefreshed(ctx, gen, names); err != nil {
			slog.WarnContext(ctx, "Failed to announce refresh", "generation", gen, "error", err)
		}
	}

	return nil
}

// HandleReloadRequest refreshes in response to an on-demand request.
func (w *RefreshWorker) HandleReloadRequest(ctx context.Context, msg *amqp.ReloadRequestMessage) error {
	slog.InfoContext(ctx, "Refreshing on request", "reason", msg.Reason)
	return w.RefreshAll(ctx)
}

// Run refreshes on the given interval until ctx is cancelled. The first
// refresh happens immediately.
func (w *RefreshWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.RefreshAll(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial refresh failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.RefreshAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic refresh failed", "error", err)
			}
		}
	}
}
