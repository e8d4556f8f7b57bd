// Package testutil provides seeded factories for listing fixtures used
// across the test suites.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/nordvik/finndeals/internal/model"
)

// ListingFactory generates deterministic listing fixtures. The same
// seed always produces the same sequence.
type ListingFactory struct {
	rand *rand.Rand
}

// NewListingFactory creates a factory. A zero seed falls back to the
// current time for tests that only need variety, not reproducibility.
func NewListingFactory(seed int64) *ListingFactory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &ListingFactory{rand: rand.New(rand.NewSource(seed))}
}

// FinnCode generates a nine-digit listing ID in FINN's range.
func (f *ListingFactory) FinnCode() string {
	return fmt.Sprintf("%d", 100000000+f.rand.Intn(900000000))
}

// Title picks a product title from a small fixed pool.
func (f *ListingFactory) Title() string {
	titles := []string{
		"iPhone 13 128GB stellar", "Samsung Galaxy S23 Ultra",
		"MacBook Air M2 selges", "PlayStation 5 med to kontrollere",
		"Nintendo Switch OLED hvit", "Sony WH-1000XM5 hodetelefoner",
	}
	return titles[f.rand.Intn(len(titles))]
}

// Price generates a whole-kroner price between 500 and 25000.
func (f *ListingFactory) Price() int {
	return 500 + f.rand.Intn(24501)
}

// Location picks a Norwegian city.
func (f *ListingFactory) Location() string {
	locations := []string{"Oslo", "Bergen", "Trondheim", "Stavanger", "Tromsø"}
	return locations[f.rand.Intn(len(locations))]
}

// Condition picks a condition phrase the scorer recognizes.
func (f *ListingFactory) Condition() string {
	conditions := []string{"Ny", "Som ny", "Pent brukt", "Brukt"}
	return conditions[f.rand.Intn(len(conditions))]
}

// Posted picks a recency phrase in FINN's style.
func (f *ListingFactory) Posted() string {
	posted := []string{"i dag", "i går", "2 dager siden", "1 uke siden"}
	return posted[f.rand.Intn(len(posted))]
}

// Listing generates a fully populated normalized listing.
func (f *ListingFactory) Listing() model.Listing {
	id := f.FinnCode()
	return model.Listing{
		ID:         id,
		Title:      f.Title(),
		Price:      f.Price(),
		Location:   f.Location(),
		Condition:  f.Condition(),
		Posted:     f.Posted(),
		SellerType: model.SellerPrivate,
		URL:        "https://www.finn.no/bap/forsale/ad.html?finnkode=" + id,
		ScrapedAt:  time.Now(),
	}
}

// PricedListings generates one listing per price, all sharing the same
// title so they land in one comparison group.
func (f *ListingFactory) PricedListings(title string, prices ...int) []model.Listing {
	listings := make([]model.Listing, len(prices))
	for i, price := range prices {
		l := f.Listing()
		l.Title = title
		l.Price = price
		listings[i] = l
	}
	return listings
}

// Analyzed wraps a listing with a fixed deal score for tests that only
// exercise the layers above the scorer.
func Analyzed(l model.Listing, score int) model.AnalyzedListing {
	return model.AnalyzedListing{
		Listing:   l,
		DealScore: score,
		Factors:   model.DealFactors{Details: map[string]string{}},
	}
}
