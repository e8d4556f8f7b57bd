package analysis

import (
	"fmt"
	"strings"

	"github.com/nordvik/finndeals/internal/model"
)

// Factor weights. Price dominates; condition, seller and listing age
// nudge the score.
const (
	weightPrice     = 0.60
	weightCondition = 0.20
	weightSeller    = 0.10
	weightAge       = 0.10
)

const defaultConditionWeight = 0.70

// Scorer rates listings against their group's price baseline. It holds
// no mutable state: scoring the same listing against the same stats
// always yields the same result.
type Scorer struct {
	vocab *Vocabulary
}

func NewScorer(vocab *Vocabulary) *Scorer {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Scorer{vocab: vocab}
}

// Score computes the deal score for a listing given its group's
// reference stats. A listing without a price scores 0 with empty factor
// details; the weighted formula is never entered. Otherwise the result
// is the floor of the weighted factor sum, always in [0,100].
func (s *Scorer) Score(l model.Listing, ref model.ReferenceStats) (int, model.DealFactors) {
	factors := model.DealFactors{Details: map[string]string{}}

	if !l.HasPrice() {
		return 0, factors
	}

	// Price vs the group average. Being 30% below average saturates the
	// factor near 100, 30% above near 0, exactly average gives 50. With
	// no usable average the factor stays neutral.
	if ref.Avg > 0 {
		pct := (ref.Avg - float64(l.Price)) / ref.Avg * 100
		factors.PriceFactor = clamp(50+pct*1.67, 0, 100)
		factors.Details["price_vs_avg"] = fmt.Sprintf("%+.1f%%", pct)
		factors.Details["avg_price"] = fmt.Sprintf("%.0f kr", ref.Avg)
	} else {
		factors.PriceFactor = 50
	}

	// Condition. First matching phrase in the ordered table wins;
	// unrecognized or missing condition text gets the "used" default.
	condition := strings.ToLower(strings.TrimSpace(l.Condition))
	weight := defaultConditionWeight
	for _, cw := range s.vocab.Conditions {
		if strings.Contains(condition, cw.Phrase) {
			weight = cw.Weight
			break
		}
	}
	factors.ConditionFactor = weight * 100
	if condition == "" {
		factors.Details["condition"] = "not specified"
	} else {
		factors.Details["condition"] = condition
	}

	// Seller. Private sellers tend to price below trade.
	switch l.SellerType {
	case model.SellerPrivate:
		factors.SellerFactor = 70
	case model.SellerBusiness:
		factors.SellerFactor = 60
	default:
		factors.SellerFactor = 65
	}
	factors.Details["seller_type"] = string(l.SellerType)

	// Listing age, read off the relative posted text as scraped.
	posted := strings.ToLower(l.Posted)
	age := 70.0
	switch {
	case containsAny(posted, "i dag", "today", "time", "minut"):
		age = 90
	case containsAny(posted, "i går", "yesterday"):
		age = 85
	case strings.ContainsAny(posted, "123") && strings.Contains(posted, "dag"):
		age = 75
	case strings.ContainsAny(posted, "4567") && strings.Contains(posted, "dag"):
		age = 65
	case containsAny(posted, "uke", "week"):
		age = 55
	case containsAny(posted, "måned", "month"):
		age = 40
	}
	factors.ListingAgeFactor = age
	if posted == "" {
		factors.Details["posted"] = "unknown"
	} else {
		factors.Details["posted"] = posted
	}

	total := factors.PriceFactor*weightPrice +
		factors.ConditionFactor*weightCondition +
		factors.SellerFactor*weightSeller +
		factors.ListingAgeFactor*weightAge

	return int(total), factors
}

// Recommend maps a deal score onto its recommendation tier. The
// thresholds are fixed; a configurable deal threshold only filters
// reporting and never changes scoring.
func Recommend(score int) model.RecommendationLevel {
	switch {
	case score >= 90:
		return model.RecommendExcellent
	case score >= 80:
		return model.RecommendGreat
	case score >= 70:
		return model.RecommendGood
	case score >= 50:
		return model.RecommendFair
	default:
		return model.RecommendOverpriced
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
