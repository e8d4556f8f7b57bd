// Package monitor re-runs saved searches on a schedule and raises
// alerts when a run surfaces a new deal or a price drop on a listing
// seen before.
package monitor

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nordvik/finndeals/internal/analysis"
	"github.com/nordvik/finndeals/internal/store"
)

// Searcher runs one saved search end to end: fetch, normalize, analyze.
// The CLI wires the FINN client and the analyzer behind this; tests
// substitute canned results.
type Searcher interface {
	Run(ctx context.Context, search store.SavedSearch) (*analysis.Result, error)
}

// SearcherFunc adapts a function to the Searcher interface.
type SearcherFunc func(ctx context.Context, search store.SavedSearch) (*analysis.Result, error)

func (f SearcherFunc) Run(ctx context.Context, search store.SavedSearch) (*analysis.Result, error) {
	return f(ctx, search)
}

// Watcher schedules saved searches with cron and diffs each run against
// the previous snapshot of the same search. Snapshots live as JSON files
// under the data directory, one per search ID.
type Watcher struct {
	searcher  Searcher
	store     *store.Store
	notifier  Notifier
	dataDir   string
	threshold int
	cron      *cron.Cron

	mu sync.Mutex // serializes snapshot read/diff/write per process
}

// NewWatcher creates a watcher. store may be nil to skip history
// recording; a nil notifier falls back to the standard logger. The
// threshold marks which scores count as deals when no saved search
// carries its own.
func NewWatcher(searcher Searcher, st *store.Store, dataDir string, threshold int, notifier Notifier) *Watcher {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Watcher{
		searcher:  searcher,
		store:     st,
		notifier:  notifier,
		dataDir:   dataDir,
		threshold: threshold,
		cron:      cron.New(),
	}
}

// Add schedules a saved search. The spec is standard cron syntax, or a
// descriptor like "@every 30m". Runs that fail are logged and retried at
// the next tick.
func (w *Watcher) Add(search store.SavedSearch, spec string) (cron.EntryID, error) {
	id, err := w.cron.AddFunc(spec, func() {
		if _, err := w.RunOnce(context.Background(), search); err != nil {
			log.Printf("monitor: run %q: %v", search.Name, err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("scheduling %q: %w", search.Name, err)
	}
	return id, nil
}

// Start begins running scheduled searches in the background.
func (w *Watcher) Start() {
	w.cron.Start()
}

// Stop cancels the schedule and waits for any in-flight run to finish.
func (w *Watcher) Stop() {
	<-w.cron.Stop().Done()
}

// RunOnce executes a saved search now, records history, diffs against
// the search's previous snapshot and notifies every alert raised. The
// first run of a search establishes a baseline and raises nothing.
func (w *Watcher) RunOnce(ctx context.Context, search store.SavedSearch) ([]Alert, error) {
	result, err := w.searcher.Run(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", search.Name, err)
	}

	if w.store != nil {
		if err := w.store.RecordHistory(result.Items); err != nil {
			log.Printf("monitor: recording history for %q: %v", search.Name, err)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	path := w.snapshotPath(search.ID)
	previous, err := loadSnapshot(path)
	if err != nil {
		previous = nil // first run, or an unreadable snapshot: start over
	}

	var alerts []Alert
	if previous != nil {
		alerts = w.diff(previous, search, result)
		for _, a := range alerts {
			w.notifier.Notify(a)
		}
	}

	if err := saveSnapshot(path, snapshotFromResult(search.ID, search.Name, result)); err != nil {
		return alerts, err
	}
	return alerts, nil
}

// diff compares a run against the previous snapshot. A listing absent
// from the snapshot that scores at or above the threshold is a new
// deal; a listing present in both whose price fell by at least the drop
// threshold is a price drop.
func (w *Watcher) diff(previous *Snapshot, search store.SavedSearch, result *analysis.Result) []Alert {
	threshold := search.Threshold
	if threshold <= 0 {
		threshold = w.threshold
	}

	var alerts []Alert
	now := time.Now()
	for _, item := range result.Items {
		old, known := previous.Listings[item.ID]
		if !known {
			if item.DealScore >= threshold {
				alerts = append(alerts, Alert{
					Type:      AlertNewDeal,
					SearchID:  search.ID,
					Search:    search.Name,
					ListingID: item.ID,
					Title:     item.Title,
					Price:     item.Price,
					DealScore: item.DealScore,
					URL:       item.URL,
					Message:   fmt.Sprintf("new deal (%d%%): %s at %d kr", item.DealScore, item.Title, item.Price),
					Timestamp: now,
				})
			}
			continue
		}

		if old.Price > 0 && item.HasPrice() && item.Price < old.Price {
			dropPct := float64(old.Price-item.Price) / float64(old.Price) * 100
			if dropPct >= priceDropThresholdPct {
				alerts = append(alerts, Alert{
					Type:      AlertPriceDrop,
					SearchID:  search.ID,
					Search:    search.Name,
					ListingID: item.ID,
					Title:     item.Title,
					Price:     item.Price,
					OldPrice:  old.Price,
					DealScore: item.DealScore,
					URL:       item.URL,
					Message:   fmt.Sprintf("price drop %.0f%%: %s now %d kr (was %d kr)", dropPct, item.Title, item.Price, old.Price),
					Timestamp: now,
				})
			}
		}
	}
	return alerts
}

func (w *Watcher) snapshotPath(searchID string) string {
	return filepath.Join(w.dataDir, "snapshot_"+searchID+".json")
}
