package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nordvik/finndeals/internal/analysis"
)

// Snapshot captures what a saved search returned at one point in time,
// keyed by listing ID so consecutive runs can be diffed.
type Snapshot struct {
	Timestamp time.Time                  `json:"timestamp"`
	SearchID  string                     `json:"search_id"`
	Name      string                     `json:"name"`
	Listings  map[string]SnapshotListing `json:"listings"`
}

// SnapshotListing is the slice of a listing worth remembering between runs.
type SnapshotListing struct {
	Title     string `json:"title"`
	Price     int    `json:"price"`
	DealScore int    `json:"deal_score"`
	URL       string `json:"url,omitempty"`
}

func snapshotFromResult(searchID, name string, result *analysis.Result) *Snapshot {
	snap := &Snapshot{
		Timestamp: time.Now(),
		SearchID:  searchID,
		Name:      name,
		Listings:  make(map[string]SnapshotListing, len(result.Items)),
	}
	for _, item := range result.Items {
		snap.Listings[item.ID] = SnapshotListing{
			Title:     item.Title,
			Price:     item.Price,
			DealScore: item.DealScore,
			URL:       item.URL,
		}
	}
	return snap
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return &snap, nil
}

func saveSnapshot(path string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}
