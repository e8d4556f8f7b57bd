package analysis

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nordvik/finndeals/internal/model"
)

// Grouper assigns every listing to exactly one comparison group based on
// its title. Membership is a function of title content alone, so a price
// change on a re-scrape never moves a listing between groups.
type Grouper struct {
	vocab *Vocabulary
}

func NewGrouper(vocab *Vocabulary) *Grouper {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Grouper{vocab: vocab}
}

// GroupKey derives the comparison-group key for a title: the detected
// brand plus the first two significant tokens, joined with "_". Tokens
// are runs of Unicode letters and digits; stop words, tokens shorter
// than three runes and the brand's own name are skipped. Titles with
// fewer significant tokens still form a key; brand-only groups are
// accepted as noisy rather than guessed at.
func (g *Grouper) GroupKey(title string) string {
	lower := strings.ToLower(title)

	brand := "unknown"
	matched := false
	for _, rule := range g.vocab.Brands {
		if rule.Pattern.MatchString(lower) {
			brand = rule.Name
			matched = true
			break
		}
	}

	parts := []string{brand}
	for _, tok := range tokenize(lower) {
		if len(parts) == 3 {
			break
		}
		if g.vocab.StopWords[tok] || utf8.RuneCountInString(tok) <= 2 {
			continue
		}
		if matched && tok == brand {
			continue
		}
		parts = append(parts, tok)
	}

	return strings.Join(parts, "_")
}

// Group partitions listings by group key. Insertion order is preserved
// within each group; the key set does not depend on input order.
func (g *Grouper) Group(listings []model.Listing) map[string][]model.Listing {
	groups := make(map[string][]model.Listing)
	for _, l := range listings {
		key := g.GroupKey(l.Title)
		groups[key] = append(groups[key], l)
	}
	return groups
}

// tokenize splits a lowercased title into runs of letters and digits.
// The separator "_" can therefore never appear inside a token.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
