package analysis

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nordvik/finndeals/internal/model"
)

// Groups smaller than this carry no comparison value for display.
const comparisonMinSize = 2

// Display groups are truncated to the cheapest few members.
const comparisonLimit = 5

// Analyzer runs the full scoring pipeline over a normalized batch:
// group by title, compute every group's reference stats, then score
// each listing against its group's baseline. Grouping and estimation
// finish before any scoring starts, so the stats a listing is scored
// against never shift mid-batch.
type Analyzer struct {
	grouper *Grouper
	scorer  *Scorer
}

func NewAnalyzer(vocab *Vocabulary) *Analyzer {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Analyzer{
		grouper: NewGrouper(vocab),
		scorer:  NewScorer(vocab),
	}
}

// Summary aggregates one analyzed batch. Price fields cover only priced
// listings; score fields cover every listing, zero scores included.
type Summary struct {
	TotalItems       int               `json:"total_items"`
	AvgPrice         float64           `json:"avg_price"`
	MedianPrice      float64           `json:"median_price"`
	MinPrice         int               `json:"min_price"`
	MaxPrice         int               `json:"max_price"`
	AvgDealScore     float64           `json:"avg_deal_score"`
	BestDealScore    int               `json:"best_deal_score"`
	DealsCount       int               `json:"deals_count"`
	PotentialSavings float64           `json:"potential_savings"`
	Distribution     ScoreDistribution `json:"score_distribution"`
}

// ScoreDistribution counts listings per score tier.
type ScoreDistribution struct {
	Excellent int `json:"excellent"`
	Great     int `json:"great"`
	Good      int `json:"good"`
	Fair      int `json:"fair"`
	Poor      int `json:"poor"`
}

// Result is the complete outcome of analyzing one batch.
type Result struct {
	Items       []model.AnalyzedListing            `json:"items"`
	Stats       Summary                            `json:"stats"`
	Comparisons map[string][]model.AnalyzedListing `json:"comparisons"`
}

// Analyze scores a batch of normalized listings. The threshold marks
// which scores count as deals for DealsCount and PotentialSavings; it
// does not influence the scores themselves. Items come back sorted by
// score, best first, with ties keeping input order. An empty batch
// yields an empty result, not an error.
func (a *Analyzer) Analyze(listings []model.Listing, threshold int) *Result {
	result := &Result{
		Items:       []model.AnalyzedListing{},
		Comparisons: map[string][]model.AnalyzedListing{},
	}
	if len(listings) == 0 {
		return result
	}

	groups := a.grouper.Group(listings)
	references := make(map[string]model.ReferenceStats, len(groups))
	for key, members := range groups {
		references[key] = Reference(members)
	}

	items := make([]model.AnalyzedListing, 0, len(listings))
	for _, l := range listings {
		ref := references[a.grouper.GroupKey(l.Title)]
		score, factors := a.scorer.Score(l, ref)
		items = append(items, model.AnalyzedListing{
			Listing:        l,
			DealScore:      score,
			Factors:        factors,
			Reference:      ref,
			Recommendation: Recommend(score),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DealScore > items[j].DealScore
	})

	result.Items = items
	result.Stats = summarize(items, threshold)
	result.Comparisons = a.comparisons(items)
	return result
}

func summarize(items []model.AnalyzedListing, threshold int) Summary {
	s := Summary{TotalItems: len(items)}
	if len(items) == 0 {
		return s
	}

	listings := make([]model.Listing, len(items))
	for i, it := range items {
		listings[i] = it.Listing
	}
	priced := Reference(listings)
	s.AvgPrice = priced.Avg
	s.MedianPrice = priced.Median
	s.MinPrice = priced.Min
	s.MaxPrice = priced.Max

	scoreSum := 0
	for _, it := range items {
		scoreSum += it.DealScore
		if it.DealScore > s.BestDealScore {
			s.BestDealScore = it.DealScore
		}

		if it.DealScore >= threshold {
			s.DealsCount++
			if it.HasPrice() && it.Reference.Avg > float64(it.Price) {
				s.PotentialSavings += it.Reference.Avg - float64(it.Price)
			}
		}

		switch {
		case it.DealScore >= 90:
			s.Distribution.Excellent++
		case it.DealScore >= 80:
			s.Distribution.Great++
		case it.DealScore >= 70:
			s.Distribution.Good++
		case it.DealScore >= 50:
			s.Distribution.Fair++
		default:
			s.Distribution.Poor++
		}
	}
	s.AvgDealScore = float64(scoreSum) / float64(len(items))

	return s
}

// comparisons re-derives the title groups for display: only groups with
// at least two members, each sorted cheapest first with unpriced
// listings last, truncated to the display limit.
func (a *Analyzer) comparisons(items []model.AnalyzedListing) map[string][]model.AnalyzedListing {
	groups := make(map[string][]model.AnalyzedListing)
	for _, it := range items {
		key := a.grouper.GroupKey(it.Title)
		groups[key] = append(groups[key], it)
	}

	out := make(map[string][]model.AnalyzedListing)
	for key, members := range groups {
		if len(members) < comparisonMinSize {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			pi, pj := members[i].Price, members[j].Price
			if pi <= 0 {
				return false
			}
			if pj <= 0 {
				return true
			}
			return pi < pj
		})
		if len(members) > comparisonLimit {
			members = members[:comparisonLimit]
		}
		out[displayKey(key)] = members
	}
	return out
}

// displayKey turns "apple_iphone_64gb" into "Apple Iphone 64gb".
func displayKey(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r)) + p[size:]
	}
	return strings.Join(parts, " ")
}
