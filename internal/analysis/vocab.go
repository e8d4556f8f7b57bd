package analysis

import "regexp"

// BrandRule matches a product family in a lowercased title. Rules are
// checked in order and the first match names the group's brand.
type BrandRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// ConditionWeight maps a condition phrase to a quality weight in [0,1].
// Entries are checked in order, so a phrase must come before any phrase
// it contains ("som ny" before "ny").
type ConditionWeight struct {
	Phrase string
	Weight float64
}

// Vocabulary carries the language-dependent tables behind grouping and
// scoring. It is treated as immutable after construction; tests inject
// reduced tables to isolate behavior.
type Vocabulary struct {
	Brands     []BrandRule
	StopWords  map[string]bool
	Conditions []ConditionWeight
}

// DefaultVocabulary returns the production tables for the Norwegian
// marketplace, with English fallbacks for cross-posted ads.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Brands: []BrandRule{
			{"apple", regexp.MustCompile(`\b(iphone|ipad|macbook|mac|apple|airpods|watch)\b`)},
			{"samsung", regexp.MustCompile(`\b(samsung|galaxy)\b`)},
			{"sony", regexp.MustCompile(`\b(sony|playstation|ps[45])\b`)},
			{"microsoft", regexp.MustCompile(`\b(xbox|microsoft|surface)\b`)},
			{"nintendo", regexp.MustCompile(`\b(nintendo|switch)\b`)},
			{"dyson", regexp.MustCompile(`\b(dyson)\b`)},
			{"lg", regexp.MustCompile(`\b(lg|oled)\b`)},
			{"dji", regexp.MustCompile(`\b(dji|mavic|mini|phantom)\b`)},
			{"canon", regexp.MustCompile(`\b(canon|eos)\b`)},
			{"nikon", regexp.MustCompile(`\b(nikon)\b`)},
			{"nvidia", regexp.MustCompile(`\b(nvidia|geforce|rtx|gtx)\b`)},
			{"amd", regexp.MustCompile(`\b(amd|ryzen|radeon)\b`)},
		},
		StopWords: map[string]bool{
			"til": true, "for": true, "med": true, "og": true, "i": true,
			"på": true, "selges": true, "salg": true, "pent": true,
			"brukt": true, "ny": true, "som": true, "god": true,
			"fin": true, "veldig": true,
			"the": true, "a": true, "an": true, "sale": true, "selling": true,
		},
		Conditions: []ConditionWeight{
			{"som ny", 0.95},
			{"like new", 0.95},
			{"pent brukt", 0.85},
			{"lightly used", 0.85},
			{"til reparasjon", 0.40},
			{"for repair", 0.40},
			{"ny", 1.0},
			{"new", 1.0},
			{"brukt", 0.70},
			{"used", 0.70},
		},
	}
}
