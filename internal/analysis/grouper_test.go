package analysis

import (
	"regexp"
	"testing"

	"github.com/nordvik/finndeals/internal/model"
)

func TestGroupKey(t *testing.T) {
	g := NewGrouper(nil)

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"brand plus model", "Apple iPhone 13 64GB sort", "apple_iphone_64gb"},
		{"same product no brand word", "iPhone 13 64GB hvit selges", "apple_iphone_64gb"},
		{"different brand", "Samsung Galaxy S23", "samsung_galaxy_s23"},
		{"brand token skipped", "Dyson V15 Detect støvsuger", "dyson_v15_detect"},
		{"stop words dropped", "Pent brukt sofa selges", "unknown_sofa"},
		{"short tokens dropped", "TV 55 LG", "lg"},
		{"norwegian letters counted as runes", "Blå sofa på salg", "unknown_blå_sofa"},
		{"brand only", "Apple", "apple"},
		{"empty title", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.GroupKey(tt.title); got != tt.want {
				t.Errorf("GroupKey(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestGroupKeyBrandOrder(t *testing.T) {
	// "oled" belongs to the lg rule, but nintendo is checked first.
	g := NewGrouper(nil)
	if got := g.GroupKey("Nintendo Switch OLED"); got != "nintendo_switch_oled" {
		t.Errorf("GroupKey = %q, want nintendo_switch_oled", got)
	}
}

func TestGroupKeyCustomVocabulary(t *testing.T) {
	vocab := &Vocabulary{
		Brands: []BrandRule{
			{"acme", regexp.MustCompile(`\b(acme|rocket)\b`)},
		},
		StopWords: map[string]bool{"billig": true},
	}
	g := NewGrouper(vocab)

	if got := g.GroupKey("Billig Acme rakettslede"); got != "acme_rakettslede" {
		t.Errorf("GroupKey = %q, want acme_rakettslede", got)
	}
	if got := g.GroupKey("Billig sykkel"); got != "unknown_sykkel" {
		t.Errorf("GroupKey = %q, want unknown_sykkel", got)
	}
}

func TestGroupMembershipOrderIndependent(t *testing.T) {
	listings := []model.Listing{
		{ID: "1", Title: "Apple iPhone 13 64GB sort"},
		{ID: "2", Title: "Samsung Galaxy S23"},
		{ID: "3", Title: "iPhone 13 64GB hvit selges"},
		{ID: "4", Title: "Sony WH-1000XM5 hodetelefoner"},
	}
	permuted := []model.Listing{listings[3], listings[1], listings[2], listings[0]}

	g := NewGrouper(nil)
	a := g.Group(listings)
	b := g.Group(permuted)

	if len(a) != len(b) {
		t.Fatalf("group counts differ: %d vs %d", len(a), len(b))
	}
	for key, members := range a {
		ids := make(map[string]bool)
		for _, m := range members {
			ids[m.ID] = true
		}
		other, ok := b[key]
		if !ok {
			t.Fatalf("key %q missing after permutation", key)
		}
		if len(other) != len(members) {
			t.Fatalf("key %q: member count differs", key)
		}
		for _, m := range other {
			if !ids[m.ID] {
				t.Errorf("key %q: unexpected member %q", key, m.ID)
			}
		}
	}
}

func TestGroupPreservesInsertionOrder(t *testing.T) {
	listings := []model.Listing{
		{ID: "1", Title: "iPhone 13 64GB hvit"},
		{ID: "2", Title: "Samsung Galaxy S23"},
		{ID: "3", Title: "iPhone 13 64GB sort"},
	}

	groups := NewGrouper(nil).Group(listings)
	members := groups["apple_iphone_64gb"]
	if len(members) != 2 {
		t.Fatalf("got %d members, want 2", len(members))
	}
	if members[0].ID != "1" || members[1].ID != "3" {
		t.Errorf("insertion order not preserved: %q, %q", members[0].ID, members[1].ID)
	}
}
