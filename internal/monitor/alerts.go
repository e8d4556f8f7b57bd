package monitor

import (
	"log"
	"time"
)

// AlertType distinguishes what a watch run noticed.
type AlertType string

const (
	AlertNewDeal   AlertType = "NEW_DEAL"
	AlertPriceDrop AlertType = "PRICE_DROP"
)

// A known listing must drop at least this much to raise an alert.
const priceDropThresholdPct = 10.0

// Alert is one noteworthy change between two runs of a saved search.
type Alert struct {
	Type      AlertType `json:"type"`
	SearchID  string    `json:"search_id"`
	Search    string    `json:"search"`
	ListingID string    `json:"listing_id"`
	Title     string    `json:"title"`
	Price     int       `json:"price"`
	OldPrice  int       `json:"old_price,omitempty"`
	DealScore int       `json:"deal_score"`
	URL       string    `json:"url,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier receives alerts as they are raised.
type Notifier interface {
	Notify(alert Alert)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Alert)

func (f NotifierFunc) Notify(a Alert) { f(a) }

// LogNotifier writes alerts to the standard logger. It is the default
// sink when no other notifier is wired in.
type LogNotifier struct{}

func (LogNotifier) Notify(a Alert) {
	log.Printf("[%s] %s: %s", a.Type, a.Search, a.Message)
}
