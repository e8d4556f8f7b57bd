package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nordvik/finndeals/internal/finn"
)

const searchesFileName = "saved_searches.json"

// SavedSearch is a reusable search definition kept in saved_searches.json.
type SavedSearch struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Params    finn.SearchParams `json:"params"`
	Threshold int               `json:"threshold,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Searches manages the saved search definitions file. All operations read
// and rewrite the whole file, which stays small in practice.
type Searches struct {
	mu   sync.Mutex
	path string
}

// OpenSearches returns a Searches backed by saved_searches.json in dir.
func OpenSearches(dir string) *Searches {
	return &Searches{path: filepath.Join(dir, searchesFileName)}
}

// All returns every saved search. A missing file is an empty list.
func (s *Searches) All() ([]SavedSearch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Add stores a new search, assigning it an ID and creation time. The
// stored copy is returned. An empty name defaults to the search keyword.
func (s *Searches) Add(search SavedSearch) (SavedSearch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	searches, err := s.load()
	if err != nil {
		return SavedSearch{}, err
	}

	search.ID = uuid.NewString()
	search.CreatedAt = time.Now()
	if search.Name == "" {
		search.Name = search.Params.Keyword
	}

	return search, s.save(append(searches, search))
}

// Find looks a search up by ID, falling back to an exact name match.
func (s *Searches) Find(idOrName string) (SavedSearch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	searches, err := s.load()
	if err != nil {
		return SavedSearch{}, err
	}
	for _, search := range searches {
		if search.ID == idOrName {
			return search, nil
		}
	}
	for _, search := range searches {
		if search.Name == idOrName {
			return search, nil
		}
	}
	return SavedSearch{}, fmt.Errorf("saved search %q not found", idOrName)
}

// Update replaces the stored search carrying the same ID.
func (s *Searches) Update(search SavedSearch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	searches, err := s.load()
	if err != nil {
		return err
	}
	for i := range searches {
		if searches[i].ID == search.ID {
			search.CreatedAt = searches[i].CreatedAt
			search.UpdatedAt = time.Now()
			searches[i] = search
			return s.save(searches)
		}
	}
	return fmt.Errorf("saved search %q not found", search.ID)
}

// Delete removes the search with the given ID.
func (s *Searches) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	searches, err := s.load()
	if err != nil {
		return err
	}
	for i := range searches {
		if searches[i].ID == id {
			return s.save(append(searches[:i], searches[i+1:]...))
		}
	}
	return fmt.Errorf("saved search %q not found", id)
}

func (s *Searches) load() ([]SavedSearch, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading saved searches: %w", err)
	}

	var searches []SavedSearch
	if err := json.Unmarshal(data, &searches); err != nil {
		return nil, fmt.Errorf("parsing saved searches: %w", err)
	}
	return searches, nil
}

func (s *Searches) save(searches []SavedSearch) error {
	data, err := json.MarshalIndent(searches, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling saved searches: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing saved searches: %w", err)
	}
	return nil
}
