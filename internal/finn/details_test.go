package finn

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nordvik/finndeals/internal/model"
)

func TestFetchDetailsEnrichesListings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kode := r.URL.Query().Get("finnkode")
		fmt.Fprintf(w, `<html><body>
		<div class="description">Beskrivelse for %s.</div>
		<dl><dt>Tilstand</dt><dd>Pent brukt</dd></dl>
		<div class="seller">Privatperson</div>
		</body></html>`, kode)
	}))
	defer server.Close()

	raws := []model.RawListing{
		{ID: "1", Title: "iPhone 13", URL: server.URL + "/ad.html?finnkode=1"},
		{ID: "2", Title: "iPhone 14", URL: server.URL + "/ad.html?finnkode=2"},
		{ID: "3", Title: "iPhone 15", URL: server.URL + "/ad.html?finnkode=3"},
	}

	cfg := testConfig(server.URL)
	cfg.Workers = 2
	c := NewClient(cfg, nil)

	enriched, err := c.FetchDetails(context.Background(), raws, nil)
	if err != nil {
		t.Fatalf("FetchDetails: %v", err)
	}
	if len(enriched) != 3 {
		t.Fatalf("got %d listings, want 3", len(enriched))
	}

	for _, item := range enriched {
		if item.Condition != "Pent brukt" {
			t.Errorf("listing %s: condition = %q", item.ID, item.Condition)
		}
		if item.SellerText != "privat" {
			t.Errorf("listing %s: seller = %q", item.ID, item.SellerText)
		}
		if item.Description != fmt.Sprintf("Beskrivelse for %s.", item.ID) {
			t.Errorf("listing %s: description = %q", item.ID, item.Description)
		}
	}
}

func TestFetchDetailsKeepsOrderAndInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><dl><dt>Tilstand</dt><dd>Brukt</dd></dl></body></html>`))
	}))
	defer server.Close()

	raws := []model.RawListing{
		{ID: "a", Title: "Ting A", URL: server.URL + "/a"},
		{ID: "b", Title: "Ting B"}, // no URL, must pass through untouched
		{ID: "c", Title: "Ting C", URL: server.URL + "/c"},
	}

	cfg := testConfig(server.URL)
	cfg.Workers = 3
	c := NewClient(cfg, nil)

	enriched, err := c.FetchDetails(context.Background(), raws, nil)
	if err != nil {
		t.Fatalf("FetchDetails: %v", err)
	}

	if enriched[0].ID != "a" || enriched[1].ID != "b" || enriched[2].ID != "c" {
		t.Errorf("order changed: %s %s %s", enriched[0].ID, enriched[1].ID, enriched[2].ID)
	}
	if enriched[1].Condition != "" {
		t.Errorf("listing without URL was enriched: %+v", enriched[1])
	}
	if enriched[0].Condition != "Brukt" || enriched[2].Condition != "Brukt" {
		t.Errorf("conditions = %q, %q; want Brukt", enriched[0].Condition, enriched[2].Condition)
	}
	if raws[0].Condition != "" {
		t.Error("input slice was mutated")
	}
}

func TestFetchDetailsSurvivesFailedPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("finnkode") == "2" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`<html><body><dl><dt>Tilstand</dt><dd>Som ny</dd></dl></body></html>`))
	}))
	defer server.Close()

	raws := []model.RawListing{
		{ID: "1", Title: "A", URL: server.URL + "/ad?finnkode=1"},
		{ID: "2", Title: "B", URL: server.URL + "/ad?finnkode=2"},
	}

	c := NewClient(testConfig(server.URL), nil)
	enriched, err := c.FetchDetails(context.Background(), raws, nil)
	if err != nil {
		t.Fatalf("FetchDetails: %v", err)
	}

	if enriched[0].Condition != "Som ny" {
		t.Errorf("healthy page not enriched: %+v", enriched[0])
	}
	if enriched[1].Condition != "" {
		t.Errorf("failed page should leave listing untouched: %+v", enriched[1])
	}
}

func TestFetchDetailsCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`<html><body></body></html>`))
	}))
	defer server.Close()

	raws := make([]model.RawListing, 20)
	for i := range raws {
		raws[i] = model.RawListing{
			ID:    fmt.Sprintf("%d", i),
			Title: "Ting",
			URL:   fmt.Sprintf("%s/ad?finnkode=%d", server.URL, i),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	cfg := testConfig(server.URL)
	cfg.Workers = 2
	c := NewClient(cfg, nil)

	enriched, err := c.FetchDetails(ctx, raws, nil)
	if err == nil {
		t.Fatal("expected context error")
	}
	if len(enriched) != 20 {
		t.Errorf("got %d listings, want the full batch back", len(enriched))
	}
}

func TestFetchDetailsEmptyBatch(t *testing.T) {
	c := NewClient(testConfig("https://www.finn.no"), nil)
	enriched, err := c.FetchDetails(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("FetchDetails: %v", err)
	}
	if enriched != nil {
		t.Errorf("got %v, want nil for empty batch", enriched)
	}
}
