package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nordvik/finndeals/internal/analysis"
	"github.com/nordvik/finndeals/internal/model"
	"github.com/nordvik/finndeals/internal/store"
	"github.com/nordvik/finndeals/internal/testutil"
)

// fixedSearcher returns a queued result per call.
type fixedSearcher struct {
	results []*analysis.Result
	calls   int
}

func (s *fixedSearcher) Run(ctx context.Context, search store.SavedSearch) (*analysis.Result, error) {
	r := s.results[s.calls]
	if s.calls < len(s.results)-1 {
		s.calls++
	}
	return r, nil
}

func resultOf(items ...model.AnalyzedListing) *analysis.Result {
	return &analysis.Result{Items: items}
}

func collectAlerts(dst *[]Alert) Notifier {
	return NotifierFunc(func(a Alert) { *dst = append(*dst, a) })
}

func TestRunOnceBaselineRaisesNothing(t *testing.T) {
	f := testutil.NewListingFactory(1)
	item := testutil.Analyzed(f.Listing(), 95)

	dir := t.TempDir()
	var alerts []Alert
	w := NewWatcher(&fixedSearcher{results: []*analysis.Result{resultOf(item)}},
		nil, dir, 70, collectAlerts(&alerts))

	search := store.SavedSearch{ID: "s1", Name: "phones"}
	got, err := w.RunOnce(context.Background(), search)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(got) != 0 || len(alerts) != 0 {
		t.Errorf("baseline run raised %d alerts, want 0", len(got))
	}

	if _, err := os.Stat(filepath.Join(dir, "snapshot_s1.json")); err != nil {
		t.Errorf("baseline run should persist a snapshot: %v", err)
	}
}

func TestRunOnceNewDealAlert(t *testing.T) {
	f := testutil.NewListingFactory(2)
	known := testutil.Analyzed(f.Listing(), 40)
	deal := testutil.Analyzed(f.Listing(), 85)
	dud := testutil.Analyzed(f.Listing(), 50)

	searcher := &fixedSearcher{results: []*analysis.Result{
		resultOf(known),
		resultOf(known, deal, dud),
	}}

	var alerts []Alert
	w := NewWatcher(searcher, nil, t.TempDir(), 70, collectAlerts(&alerts))
	search := store.SavedSearch{ID: "s1", Name: "phones"}

	if _, err := w.RunOnce(context.Background(), search); err != nil {
		t.Fatalf("baseline: %v", err)
	}
	got, err := w.RunOnce(context.Background(), search)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("got %d alerts, want 1: %+v", len(got), got)
	}
	a := got[0]
	if a.Type != AlertNewDeal {
		t.Errorf("Type = %s, want %s", a.Type, AlertNewDeal)
	}
	if a.ListingID != deal.ID || a.DealScore != 85 {
		t.Errorf("alert carries wrong listing: %+v", a)
	}
	if len(alerts) != 1 {
		t.Errorf("notifier received %d alerts, want 1", len(alerts))
	}
}

func TestRunOncePriceDropAlert(t *testing.T) {
	f := testutil.NewListingFactory(3)
	before := testutil.Analyzed(f.Listing(), 60)
	before.Price = 1000

	bigDrop := before
	bigDrop.Price = 850 // 15% down
	smallDrop := before
	smallDrop.Price = 950 // 5% down, below the drop threshold

	for _, tc := range []struct {
		name   string
		after  model.AnalyzedListing
		alerts int
	}{
		{"drop past threshold", bigDrop, 1},
		{"drop within threshold", smallDrop, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			searcher := &fixedSearcher{results: []*analysis.Result{
				resultOf(before), resultOf(tc.after),
			}}
			var alerts []Alert
			w := NewWatcher(searcher, nil, t.TempDir(), 70, collectAlerts(&alerts))
			search := store.SavedSearch{ID: "sx", Name: "drop"}

			if _, err := w.RunOnce(context.Background(), search); err != nil {
				t.Fatalf("baseline: %v", err)
			}
			got, err := w.RunOnce(context.Background(), search)
			if err != nil {
				t.Fatalf("second run: %v", err)
			}

			if len(got) != tc.alerts {
				t.Fatalf("got %d alerts, want %d: %+v", len(got), tc.alerts, got)
			}
			if tc.alerts == 1 {
				if got[0].Type != AlertPriceDrop {
					t.Errorf("Type = %s, want %s", got[0].Type, AlertPriceDrop)
				}
				if got[0].OldPrice != 1000 || got[0].Price != 850 {
					t.Errorf("prices = %d -> %d, want 1000 -> 850", got[0].OldPrice, got[0].Price)
				}
			}
		})
	}
}

func TestRunOnceSearchThresholdOverride(t *testing.T) {
	f := testutil.NewListingFactory(4)
	baseline := testutil.Analyzed(f.Listing(), 10)
	newcomer := testutil.Analyzed(f.Listing(), 60)

	searcher := &fixedSearcher{results: []*analysis.Result{
		resultOf(baseline), resultOf(baseline, newcomer),
	}}

	// Watcher default 70 would suppress the score-60 newcomer; the
	// search's own threshold of 50 lets it through.
	var alerts []Alert
	w := NewWatcher(searcher, nil, t.TempDir(), 70, collectAlerts(&alerts))
	search := store.SavedSearch{ID: "s2", Name: "low bar", Threshold: 50}

	if _, err := w.RunOnce(context.Background(), search); err != nil {
		t.Fatalf("baseline: %v", err)
	}
	got, err := w.RunOnce(context.Background(), search)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(got) != 1 || got[0].Type != AlertNewDeal {
		t.Fatalf("expected one new-deal alert at the search threshold, got %+v", got)
	}
}

func TestRunOnceRecordsHistory(t *testing.T) {
	f := testutil.NewListingFactory(5)
	item := testutil.Analyzed(f.Listing(), 80)

	dir := t.TempDir()
	st, err := store.Open(dir)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	w := NewWatcher(&fixedSearcher{results: []*analysis.Result{resultOf(item)}},
		st, dir, 70, nil)
	if _, err := w.RunOnce(context.Background(), store.SavedSearch{ID: "s3", Name: "hist"}); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	entries, err := st.History(item.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 1 || entries[0].Price != item.Price {
		t.Errorf("expected one history row at %d kr, got %+v", item.Price, entries)
	}
}

func TestAddRejectsBadSpec(t *testing.T) {
	w := NewWatcher(&fixedSearcher{results: []*analysis.Result{resultOf()}}, nil, t.TempDir(), 70, nil)
	if _, err := w.Add(store.SavedSearch{Name: "x"}, "not a cron spec"); err == nil {
		t.Error("expected an error for a malformed schedule")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	f := testutil.NewListingFactory(6)
	item := testutil.Analyzed(f.Listing(), 77)

	snap := snapshotFromResult("id1", "round trip", resultOf(item))
	path := filepath.Join(t.TempDir(), "snap.json")
	if err := saveSnapshot(path, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := loadSnapshot(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := loaded.Listings[item.ID]
	if !ok {
		t.Fatalf("listing %s missing from loaded snapshot", item.ID)
	}
	if got.Price != item.Price || got.DealScore != 77 {
		t.Errorf("loaded %+v, want price %d score 77", got, item.Price)
	}
}
