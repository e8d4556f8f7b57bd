package normalize

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/nordvik/finndeals/internal/model"
)

// Price parses a scraped price string into whole kroner. Text like
// "12 500 kr" or "1 500,-" may carry non-breaking spaces and currency
// suffixes; we drop all whitespace and read the first run of digits.
// Anything unparsable yields 0, which downstream treats as "no price".
func Price(text string) int {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}
		if digits.Len() > 0 {
			break
		}
	}
	if digits.Len() == 0 {
		return 0
	}

	value, err := strconv.Atoi(digits.String())
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// Seller maps free-form seller text onto the fixed seller vocabulary.
func Seller(text string) model.SellerType {
	s := strings.ToLower(text)
	switch {
	case strings.Contains(s, "privat") || strings.Contains(s, "private"):
		return model.SellerPrivate
	case strings.Contains(s, "bedrift") || strings.Contains(s, "business") || strings.Contains(s, "forhandler"):
		return model.SellerBusiness
	default:
		return model.SellerUnknown
	}
}

// Listing converts a raw scraped record into a normalized Listing.
// A record without a title, or without both a URL and an id, is junk
// and is rejected with ok=false. Never returns an error: an unparsable
// price becomes 0.
func Listing(raw model.RawListing) (model.Listing, bool) {
	title := collapseSpace(raw.Title)
	id := strings.TrimSpace(raw.ID)
	url := strings.TrimSpace(raw.URL)

	if title == "" || (url == "" && id == "") {
		return model.Listing{}, false
	}

	return model.Listing{
		ID:          id,
		Title:       title,
		Price:       Price(raw.PriceText),
		Location:    strings.TrimSpace(raw.Location),
		Condition:   strings.TrimSpace(raw.Condition),
		Posted:      strings.TrimSpace(raw.Posted),
		SellerType:  Seller(raw.SellerText),
		URL:         url,
		ImageURL:    strings.TrimSpace(raw.ImageURL),
		Description: strings.TrimSpace(raw.Description),
		ScrapedAt:   raw.ScrapedAt,
	}, true
}

// Batch normalizes a scraped batch, preserving input order. Rejected
// records are counted, not returned; the caller decides whether to log.
func Batch(raws []model.RawListing) ([]model.Listing, int) {
	listings := make([]model.Listing, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		l, ok := Listing(raw)
		if !ok {
			dropped++
			continue
		}
		listings = append(listings, l)
	}
	return listings, dropped
}

// collapseSpace trims the string and squeezes internal whitespace runs,
// including non-breaking spaces, to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
