package analysis

import (
	"sort"

	"github.com/nordvik/finndeals/internal/model"
)

// Reference computes the price baseline over a group's priced members.
// Listings without a price are ignored. A group with no priced members
// yields the zero stats record with Count 0; callers must read Count < 2
// as "insufficient data", not as a zero reference price.
func Reference(listings []model.Listing) model.ReferenceStats {
	prices := make([]int, 0, len(listings))
	for _, l := range listings {
		if l.HasPrice() {
			prices = append(prices, l.Price)
		}
	}
	if len(prices) == 0 {
		return model.ReferenceStats{}
	}

	sort.Ints(prices)
	sum := 0
	for _, p := range prices {
		sum += p
	}

	stats := model.ReferenceStats{
		Avg:   float64(sum) / float64(len(prices)),
		Min:   prices[0],
		Max:   prices[len(prices)-1],
		Count: len(prices),
	}

	mid := len(prices) / 2
	if len(prices)%2 == 0 {
		stats.Median = float64(prices[mid-1]+prices[mid]) / 2
	} else {
		stats.Median = float64(prices[mid])
	}

	return stats
}
