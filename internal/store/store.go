// Package store persists price history, bookmarked listings and search
// snapshots in a SQLite database under the data directory.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nordvik/finndeals/internal/model"
)

const dbFileName = "finndeals.db"

// sqliteTimeLayout is the format CURRENT_TIMESTAMP produces.
const sqliteTimeLayout = "2006-01-02 15:04:05"

const schema = `
CREATE TABLE IF NOT EXISTS price_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	listing_id TEXT NOT NULL,
	title TEXT,
	price INTEGER,
	url TEXT,
	category TEXT,
	condition TEXT,
	location TEXT,
	recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_price_history_listing ON price_history(listing_id);
CREATE INDEX IF NOT EXISTS idx_price_history_recorded ON price_history(recorded_at);

CREATE TABLE IF NOT EXISTS saved_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	listing_id TEXT UNIQUE NOT NULL,
	title TEXT,
	price INTEGER,
	url TEXT,
	category TEXT,
	condition TEXT,
	location TEXT,
	deal_score INTEGER,
	notes TEXT,
	saved_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS search_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	search_name TEXT,
	search_params TEXT,
	results_json TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// Store wraps the SQLite database holding historical listing data.
type Store struct {
	db  *sql.DB
	dir string
}

// Open creates the data directory if needed, opens finndeals.db inside it
// and applies the schema. The schema is idempotent, so Open is safe to call
// on an existing database.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db, dir: dir}, nil
}

// Dir returns the data directory the store was opened with.
func (s *Store) Dir() string {
	return s.dir
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordHistory appends one price observation per analyzed listing. The
// listing's Category label groups the rows for trend queries; it is
// typically the search keyword the listings came from.
func (s *Store) RecordHistory(items []model.AnalyzedListing) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning history transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO price_history (listing_id, title, price, url, category, condition, location)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing history insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.Exec(item.ID, item.Title, item.Price, item.URL,
			item.Category, item.Condition, item.Location); err != nil {
			return fmt.Errorf("recording history for %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// HistoryEntry is one recorded price observation for a listing.
type HistoryEntry struct {
	Price      int
	Title      string
	Location   string
	Condition  string
	RecordedAt time.Time
}

// History returns all recorded observations for a listing, newest first.
func (s *Store) History(listingID string) ([]HistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT price, title, location, condition, recorded_at
		FROM price_history
		WHERE listing_id = ?
		ORDER BY recorded_at DESC, id DESC`, listingID)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var recorded string
		if err := rows.Scan(&e.Price, &e.Title, &e.Location, &e.Condition, &recorded); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.RecordedAt = parseTimestamp(recorded)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// TrendPoint aggregates the recorded prices of one calendar day.
type TrendPoint struct {
	Date     string
	AvgPrice float64
	Count    int
	MinPrice int
	MaxPrice int
}

// PriceTrends returns per-day price aggregates over the last N days,
// oldest first. An empty category matches all recorded rows.
func (s *Store) PriceTrends(category string, days int) ([]TrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	window := fmt.Sprintf("-%d days", days)

	query := `
		SELECT DATE(recorded_at), AVG(price), COUNT(*), MIN(price), MAX(price)
		FROM price_history
		WHERE recorded_at >= datetime('now', ?)`
	args := []any{window}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " GROUP BY DATE(recorded_at) ORDER BY DATE(recorded_at)"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying trends: %w", err)
	}
	defer rows.Close()

	var points []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Date, &p.AvgPrice, &p.Count, &p.MinPrice, &p.MaxPrice); err != nil {
			return nil, fmt.Errorf("scanning trend row: %w", err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// SavedItem is a bookmarked listing with user notes.
type SavedItem struct {
	ListingID   string
	Title       string
	Price       int
	URL         string
	Category    string
	Condition   string
	Location    string
	DealScore   int
	Notes       string
	SavedAt     time.Time
	LastUpdated time.Time
}

// SaveItem bookmarks an analyzed listing, updating the existing bookmark
// when the listing was saved before. The original saved_at survives an
// update; last_updated moves.
func (s *Store) SaveItem(item model.AnalyzedListing, notes string) error {
	_, err := s.db.Exec(`
		INSERT INTO saved_items (listing_id, title, price, url, category, condition, location, deal_score, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(listing_id) DO UPDATE SET
			title = excluded.title,
			price = excluded.price,
			url = excluded.url,
			category = excluded.category,
			condition = excluded.condition,
			location = excluded.location,
			deal_score = excluded.deal_score,
			notes = excluded.notes,
			last_updated = CURRENT_TIMESTAMP`,
		item.ID, item.Title, item.Price, item.URL, item.Category,
		item.Condition, item.Location, item.DealScore, notes)
	if err != nil {
		return fmt.Errorf("saving item %s: %w", item.ID, err)
	}
	return nil
}

// SavedItems returns all bookmarks, most recently saved first.
func (s *Store) SavedItems() ([]SavedItem, error) {
	rows, err := s.db.Query(`
		SELECT listing_id, title, price, url, category, condition, location,
		       deal_score, notes, saved_at, last_updated
		FROM saved_items
		ORDER BY saved_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying saved items: %w", err)
	}
	defer rows.Close()

	var items []SavedItem
	for rows.Next() {
		var it SavedItem
		var savedAt, lastUpdated string
		if err := rows.Scan(&it.ListingID, &it.Title, &it.Price, &it.URL,
			&it.Category, &it.Condition, &it.Location,
			&it.DealScore, &it.Notes, &savedAt, &lastUpdated); err != nil {
			return nil, fmt.Errorf("scanning saved item: %w", err)
		}
		it.SavedAt = parseTimestamp(savedAt)
		it.LastUpdated = parseTimestamp(lastUpdated)
		items = append(items, it)
	}

	return items, rows.Err()
}

// DeleteItem removes a bookmark. It reports whether a row was deleted.
func (s *Store) DeleteItem(listingID string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM saved_items WHERE listing_id = ?`, listingID)
	if err != nil {
		return false, fmt.Errorf("deleting item %s: %w", listingID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SearchRecord is a stored snapshot of one search run. Params and Results
// hold the JSON as written; callers unmarshal into their own types.
type SearchRecord struct {
	ID        int64
	Name      string
	Params    json.RawMessage
	Results   json.RawMessage
	CreatedAt time.Time
}

// SaveSearchResult stores a search run for later reference. Params and
// results are marshaled to JSON.
func (s *Store) SaveSearchResult(name string, params, results any) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshaling search params: %w", err)
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshaling search results: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO search_results (search_name, search_params, results_json)
		VALUES (?, ?, ?)`,
		name, string(paramsJSON), string(resultsJSON))
	if err != nil {
		return fmt.Errorf("saving search results: %w", err)
	}
	return nil
}

// RecentSearchResults returns the newest stored search runs, up to limit.
func (s *Store) RecentSearchResults(limit int) ([]SearchRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(`
		SELECT id, search_name, search_params, results_json, created_at
		FROM search_results
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying search results: %w", err)
	}
	defer rows.Close()

	var records []SearchRecord
	for rows.Next() {
		var r SearchRecord
		var params, results, created string
		if err := rows.Scan(&r.ID, &r.Name, &params, &results, &created); err != nil {
			return nil, fmt.Errorf("scanning search record: %w", err)
		}
		r.Params = json.RawMessage(params)
		r.Results = json.RawMessage(results)
		r.CreatedAt = parseTimestamp(created)
		records = append(records, r)
	}

	return records, rows.Err()
}

// CleanupHistory deletes price history older than the given age and
// returns the number of rows removed.
func (s *Store) CleanupHistory(olderThan time.Duration) (int64, error) {
	cutoff := fmt.Sprintf("-%d seconds", int64(olderThan.Seconds()))
	res, err := s.db.Exec(`
		DELETE FROM price_history
		WHERE recorded_at < datetime('now', ?)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up history: %w", err)
	}
	return res.RowsAffected()
}

// Stats summarizes what the database currently holds.
type Stats struct {
	HistoryRows   int
	TrackedItems  int
	SavedItems    int
	SearchRecords int
}

// Stats counts the rows in each table.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM price_history`, &st.HistoryRows},
		{`SELECT COUNT(DISTINCT listing_id) FROM price_history`, &st.TrackedItems},
		{`SELECT COUNT(*) FROM saved_items`, &st.SavedItems},
		{`SELECT COUNT(*) FROM search_results`, &st.SearchRecords},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return Stats{}, fmt.Errorf("counting rows: %w", err)
		}
	}
	return st, nil
}

// parseTimestamp handles both SQLite's CURRENT_TIMESTAMP format and
// RFC3339 strings. Unparseable values yield the zero time.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
