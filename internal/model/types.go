package model

import "time"

// SellerType classifies who posted a listing.
type SellerType string

const (
	SellerPrivate  SellerType = "private"
	SellerBusiness SellerType = "business"
	SellerUnknown  SellerType = "unknown"
)

// RecommendationLevel buckets a deal score for display and filtering.
type RecommendationLevel string

const (
	RecommendExcellent  RecommendationLevel = "excellent"
	RecommendGreat      RecommendationLevel = "great"
	RecommendGood       RecommendationLevel = "good"
	RecommendFair       RecommendationLevel = "fair"
	RecommendOverpriced RecommendationLevel = "overpriced"
)

// RawListing is one ad as captured from a search or detail page, before
// normalization. Any field may be empty, and the same ad can appear twice
// in a batch.
type RawListing struct {
	ID          string
	Title       string
	PriceText   string
	Location    string
	Condition   string
	Posted      string
	SellerText  string
	URL         string
	ImageURL    string
	Description string
	ScrapedAt   time.Time
}

// Listing is a normalized marketplace ad. Price is whole NOK; 0 means the
// ad states no price, and such listings are excluded from reference stats.
type Listing struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Price       int        `json:"price"`
	Location    string     `json:"location,omitempty"`
	Condition   string     `json:"condition,omitempty"`
	Posted      string     `json:"posted,omitempty"`
	SellerType  SellerType `json:"seller_type"`
	URL         string     `json:"url,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	ScrapedAt   time.Time  `json:"scraped_at"`
}

// HasPrice reports whether the ad states a price. Callers should use this
// instead of testing the zero sentinel directly.
func (l Listing) HasPrice() bool {
	return l.Price > 0
}

// ReferenceStats summarizes the priced members of a comparison group.
// Count < 2 means not enough data for a meaningful baseline, which is
// different from a zero reference price.
type ReferenceStats struct {
	Avg    float64 `json:"avg"`
	Median float64 `json:"median"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Count  int     `json:"count"`
}

// DealFactors holds the weighted sub-scores behind a deal score, each in
// [0,100], plus human-readable detail strings keyed by factor.
type DealFactors struct {
	PriceFactor      float64           `json:"price_factor"`
	ConditionFactor  float64           `json:"condition_factor"`
	SellerFactor     float64           `json:"seller_factor"`
	ListingAgeFactor float64           `json:"listing_age_factor"`
	Details          map[string]string `json:"details"`
}

// AnalyzedListing is a Listing plus its deal score and a snapshot of the
// group baseline it was scored against.
type AnalyzedListing struct {
	Listing
	DealScore      int                 `json:"deal_score"`
	Factors        DealFactors         `json:"deal_factors"`
	Reference      ReferenceStats      `json:"reference_stats"`
	Recommendation RecommendationLevel `json:"recommendation"`
}
